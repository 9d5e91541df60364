package services

import (
	"context"
	"errors"
	"math"

	apperrors "restaurant-api/common/errors"
	"restaurant-api/models"
	"restaurant-api/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ItemRequest is a menu reference with a quantity, as submitted by the client.
// Prices are never order-supplied; they are resolved server-side.
type ItemRequest struct {
	MenuID   uuid.UUID `json:"menu_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// PricedOrder is the pricing engine's output: snapshotted line items plus the
// derived money fields, all rounded to 2 decimal places.
type PricedOrder struct {
	Items       []models.OrderItem
	Subtotal    float64
	Tax         float64
	DeliveryFee float64
	Total       float64
}

// PricingEngine resolves menu references to current prices and computes order
// totals. It performs no writes.
type PricingEngine struct {
	menuRepo    repository.MenuRepository
	taxRate     float64
	deliveryFee float64
}

func NewPricingEngine(menuRepo repository.MenuRepository, taxRate, deliveryFee float64) *PricingEngine {
	return &PricingEngine{
		menuRepo:    menuRepo,
		taxRate:     taxRate,
		deliveryFee: deliveryFee,
	}
}

// Price resolves every item against the restaurant's menu and computes
// subtotal, tax and total. Any missing menu item rejects the whole order; an
// order is never partially priced. Rounding happens once at the end, not per
// line, so repeated half-cent lines cannot drift the total.
func (e *PricingEngine) Price(ctx context.Context, restaurantID uuid.UUID, items []ItemRequest) (*PricedOrder, *apperrors.Error) {
	if len(items) == 0 {
		return nil, apperrors.BadRequest("At least one item is required")
	}

	lineItems := make([]models.OrderItem, 0, len(items))
	var subtotal float64

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, apperrors.BadRequest("Item quantity must be at least 1")
		}

		menuItem, err := e.menuRepo.FindByID(ctx, item.MenuID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, apperrors.NotFound("Menu item not found")
			}
			return nil, apperrors.ServerError("Failed to resolve menu item", err)
		}
		if menuItem.RestaurantID != restaurantID {
			return nil, apperrors.NotFound("Menu item not found")
		}

		lineItems = append(lineItems, models.OrderItem{
			MenuID:   menuItem.ID,
			Name:     menuItem.Name,
			Quantity: item.Quantity,
			Price:    menuItem.Price,
		})
		subtotal += menuItem.Price * float64(item.Quantity)
	}

	priced := &PricedOrder{
		Items:       lineItems,
		Subtotal:    round2(subtotal),
		Tax:         round2(subtotal * e.taxRate),
		DeliveryFee: round2(e.deliveryFee),
	}
	priced.Total = round2(priced.Subtotal + priced.Tax + priced.DeliveryFee)
	return priced, nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
