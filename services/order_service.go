package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-api/cache"
	apperrors "restaurant-api/common/errors"
	"restaurant-api/models"
	"restaurant-api/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	orderCacheTTL     = 30 * time.Second
	orderListCacheTTL = 60 * time.Second

	// Listing results are cached only for the canonical first page; deeper
	// pages always hit the store so invalidation stays a fixed key set.
	defaultPage  = 1
	defaultLimit = 10

	maxOrderNumberAttempts = 5
)

type PlaceOrderRequest struct {
	RestaurantID uuid.UUID     `json:"restaurant_id" binding:"required"`
	Items        []ItemRequest `json:"items" binding:"required,dive"`
	Address      string        `json:"address" binding:"required"`
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService owns the order lifecycle. Every status change flows through
// UpdateStatus or Cancel so there is exactly one code path enforcing the
// transition graph, for HTTP callers and webhook reconciliation alike.
type OrderService struct {
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	restaurantRepo repository.RestaurantRepository
	riderRepo      repository.RiderRepository
	pricing        *PricingEngine
	cache          *cache.Cache
	mailer         *Mailer
	logger         *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	restaurantRepo repository.RestaurantRepository,
	riderRepo repository.RiderRepository,
	pricing *PricingEngine,
	orderCache *cache.Cache,
	mailer *Mailer,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,
		riderRepo:      riderRepo,
		pricing:        pricing,
		cache:          orderCache,
		mailer:         mailer,
		logger:         logger,
	}
}

// PlaceOrder prices the requested items, generates a collision-free order
// number and persists the order as pending. Money fields are computed here
// once and never recalculated afterward.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *PlaceOrderRequest) (*models.Order, *apperrors.Error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.ServerError("Failed to look up user", err)
	}

	if _, err := s.restaurantRepo.FindByID(ctx, req.RestaurantID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Restaurant not found")
		}
		return nil, apperrors.ServerError("Failed to look up restaurant", err)
	}

	priced, priceErr := s.pricing.Price(ctx, req.RestaurantID, req.Items)
	if priceErr != nil {
		return nil, priceErr
	}

	orderNumber, numErr := s.generateOrderNumber(ctx)
	if numErr != nil {
		return nil, numErr
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:           uuid.New(),
		OrderNumber:  orderNumber,
		UserID:       user.ID,
		RestaurantID: req.RestaurantID,
		Items:        priced.Items,
		Subtotal:     priced.Subtotal,
		Tax:          priced.Tax,
		DeliveryFee:  priced.DeliveryFee,
		TotalPrice:   priced.Total,
		Status:       models.OrderPending,
		DeliveryInfo: models.DeliveryInfo{Address: req.Address},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperrors.ServerError("Failed to create order", err)
	}

	s.invalidateOrderCache(ctx, order)

	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", user.ID.String()),
		zap.Float64("total", order.TotalPrice),
	)
	return order, nil
}

// UpdateStatus is the single transition entry point. The requested status
// must be reachable from the current one per the lifecycle graph; anything
// else is a conflict. The notification is enqueued only after the write
// committed.
func (s *OrderService) UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, newStatus string) (*models.Order, *apperrors.Error) {
	if !models.IsValidOrderStatus(newStatus) {
		return nil, apperrors.BadRequest("Unknown order status")
	}

	order, ownErr := s.ownedOrder(ctx, restaurantID, orderID)
	if ownErr != nil {
		return nil, ownErr
	}

	if !models.CanTransition(order.Status, newStatus) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, newStatus))
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, newStatus); err != nil {
		return nil, apperrors.ServerError("Failed to update order status", err)
	}
	order.Status = newStatus
	order.UpdatedAt = time.Now().UTC()

	s.invalidateOrderCache(ctx, order)
	s.notifyUser(ctx, order, func(user *models.User) {
		s.mailer.StatusUpdate(ctx, user, order)
	})

	s.logger.Info("order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", newStatus),
	)
	return order, nil
}

// Cancel moves an order to cancelled. Only pending and processing orders can
// be cancelled; anything further along is a conflict and stays unchanged.
func (s *OrderService) Cancel(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, *apperrors.Error) {
	order, ownErr := s.ownedOrder(ctx, restaurantID, orderID)
	if ownErr != nil {
		return nil, ownErr
	}

	if order.Status != models.OrderPending && order.Status != models.OrderProcessing {
		return nil, apperrors.Conflict(
			fmt.Sprintf("Cannot cancel an order that is %s", order.Status))
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderCancelled); err != nil {
		return nil, apperrors.ServerError("Failed to cancel order", err)
	}
	order.Status = models.OrderCancelled
	order.UpdatedAt = time.Now().UTC()

	s.invalidateOrderCache(ctx, order)
	s.notifyUser(ctx, order, func(user *models.User) {
		s.mailer.Cancellation(ctx, user, order)
	})

	s.logger.Info("order cancelled", zap.String("order_number", order.OrderNumber))
	return order, nil
}

// AssignRider resolves a rider by name and records the assignment on the
// order's delivery info. The order status itself does not change.
func (s *OrderService) AssignRider(ctx context.Context, restaurantID, orderID uuid.UUID, riderName string) (*models.Order, *apperrors.Error) {
	order, ownErr := s.ownedOrder(ctx, restaurantID, orderID)
	if ownErr != nil {
		return nil, ownErr
	}

	if models.IsTerminalStatus(order.Status) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("Cannot assign a rider to an order that is %s", order.Status))
	}

	rider, err := s.riderRepo.FindByName(ctx, riderName)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Rider not found")
		}
		return nil, apperrors.ServerError("Failed to look up rider", err)
	}

	if err := s.orderRepo.UpdateDeliveryInfo(ctx, order.ID, rider.ID, rider.Name); err != nil {
		return nil, apperrors.ServerError("Failed to assign rider", err)
	}
	riderID := rider.ID
	order.DeliveryInfo.RiderID = &riderID
	order.DeliveryInfo.RiderName = rider.Name
	order.UpdatedAt = time.Now().UTC()

	s.invalidateOrderCache(ctx, order)
	s.notifyUser(ctx, order, func(user *models.User) {
		s.mailer.RiderAssigned(ctx, user, order)
	})

	s.logger.Info("rider assigned",
		zap.String("order_number", order.OrderNumber),
		zap.String("rider", rider.Name),
	)
	return order, nil
}

// GetByID is an ownership-checked read served through the cache with a short
// TTL; order amounts are money-sensitive so staleness is kept tight.
func (s *OrderService) GetByID(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, *apperrors.Error) {
	var order models.Order
	err := s.cache.GetOrFetch(ctx, orderKey(orderID), orderCacheTTL, &order,
		func(ctx context.Context) (interface{}, error) {
			return s.orderRepo.FindByID(ctx, orderID)
		})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.ServerError("Failed to fetch order", err)
	}

	if order.RestaurantID != restaurantID {
		return nil, apperrors.NotFound("Order not found")
	}
	return &order, nil
}

// FetchUserOrders returns the user's paginated order history.
func (s *OrderService) FetchUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderPage, *apperrors.Error) {
	return s.fetchOrders(ctx, userOrdersKey(userID), page, limit,
		func(ctx context.Context) ([]models.Order, int64, error) {
			return s.orderRepo.FindByUserID(ctx, userID, page, limit)
		})
}

// FetchRestaurantOrders returns the restaurant's paginated order queue.
func (s *OrderService) FetchRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, page, limit int) (*OrderPage, *apperrors.Error) {
	return s.fetchOrders(ctx, restaurantOrdersKey(restaurantID), page, limit,
		func(ctx context.Context) ([]models.Order, int64, error) {
			return s.orderRepo.FindByRestaurantID(ctx, restaurantID, page, limit)
		})
}

func (s *OrderService) fetchOrders(ctx context.Context, listKey string, page, limit int, load func(ctx context.Context) ([]models.Order, int64, error)) (*OrderPage, *apperrors.Error) {
	buildPage := func(ctx context.Context) (interface{}, error) {
		orders, total, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if orders == nil {
			orders = []models.Order{}
		}
		return &OrderPage{
			Orders: orders,
			Meta: MetaData{
				Page:        page,
				Limit:       limit,
				TotalOrders: total,
				TotalPages:  totalPages(total, limit),
				HasMore:     total > int64(page*limit),
			},
		}, nil
	}

	var result OrderPage
	if page == defaultPage && limit == defaultLimit {
		if err := s.cache.GetOrFetch(ctx, listKey, orderListCacheTTL, &result, buildPage); err != nil {
			return nil, apperrors.ServerError("Failed to fetch orders", err)
		}
		return &result, nil
	}

	out, err := buildPage(ctx)
	if err != nil {
		return nil, apperrors.ServerError("Failed to fetch orders", err)
	}
	return out.(*OrderPage), nil
}

// ownedOrder loads an order by (orderID, restaurantID) pair. An order that
// exists but belongs to another restaurant is indistinguishable from a
// missing one.
func (s *OrderService) ownedOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, *apperrors.Error) {
	order, err := s.orderRepo.FindByIDAndRestaurant(ctx, orderID, restaurantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.ServerError("Failed to fetch order", err)
	}
	return order, nil
}

// generateOrderNumber produces a human-facing order number, retrying until it
// does not collide with an existing order.
func (s *OrderService) generateOrderNumber(ctx context.Context) (string, *apperrors.Error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", apperrors.ServerError("Failed to generate order number", err)
		}
		candidate := "ORD-" + strings.ToUpper(hex.EncodeToString(buf))

		_, err := s.orderRepo.FindByOrderNumber(ctx, candidate)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return candidate, nil
		}
		if err != nil {
			return "", apperrors.ServerError("Failed to check order number", err)
		}
		// collision, retry
	}
	return "", apperrors.ServerError("Failed to generate a unique order number", nil)
}

func (s *OrderService) notifyUser(ctx context.Context, order *models.Order, send func(user *models.User)) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("failed to resolve notification recipient",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}
	send(user)
}

func (s *OrderService) invalidateOrderCache(ctx context.Context, order *models.Order) {
	s.cache.Invalidate(ctx,
		orderKey(order.ID),
		userOrdersKey(order.UserID),
		restaurantOrdersKey(order.RestaurantID),
	)
}

func orderKey(id uuid.UUID) string {
	return "order:" + id.String()
}

func userOrdersKey(userID uuid.UUID) string {
	return "orders:user:" + userID.String()
}

func restaurantOrdersKey(restaurantID uuid.UUID) string {
	return "orders:restaurant:" + restaurantID.String()
}

func totalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
