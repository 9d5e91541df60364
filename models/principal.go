package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal roles, stored as the "typ" discriminator claim at token-issuance
// time so one lookup resolves the caller instead of probing every collection.
const (
	RoleUser       = "user"
	RoleRestaurant = "restaurant"
	RoleRider      = "rider"
	RoleAdmin      = "admin"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// User is the sanitized projection used for addressing notifications.
// Credential fields are never part of this allow-list.
type User struct {
	ID    uuid.UUID `bson:"_id" json:"id"`
	Name  string    `bson:"name" json:"name"`
	Email string    `bson:"email" json:"email"`
}

type Restaurant struct {
	ID    uuid.UUID `bson:"_id" json:"id"`
	Name  string    `bson:"name" json:"name"`
	Email string    `bson:"email" json:"email"`
}

type Rider struct {
	ID        uuid.UUID `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
