package models

import "github.com/google/uuid"

type MenuItem struct {
	ID           uuid.UUID `bson:"_id" json:"id"`
	RestaurantID uuid.UUID `bson:"restaurant_id" json:"restaurant_id"`
	Name         string    `bson:"name" json:"name"`
	Price        float64   `bson:"price" json:"price"`
}
