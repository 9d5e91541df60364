package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"restaurant-api/cache"
	"restaurant-api/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc          *OrderService
	orders       *memOrderRepo
	store        *fakeStore
	queue        *fakeEmailQueue
	userID       uuid.UUID
	restaurantID uuid.UUID
	menuID       uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	userID := uuid.New()
	restaurantID := uuid.New()
	menuID := uuid.New()

	orders := newMemOrderRepo()
	users := &stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Name: "Ada", Email: "ada@example.com"},
	}}
	restaurants := &stubRestaurantRepo{restaurants: map[uuid.UUID]*models.Restaurant{
		restaurantID: {ID: restaurantID, Name: "Mama's Kitchen", Email: "mamas@example.com"},
	}}
	riders := &stubRiderRepo{riders: map[string]*models.Rider{
		"Tunde": {ID: uuid.New(), Name: "Tunde", Email: "tunde@example.com"},
	}}
	menus := &stubMenuRepo{items: map[uuid.UUID]*models.MenuItem{
		menuID: {ID: menuID, RestaurantID: restaurantID, Name: "Jollof Rice", Price: 10.00},
	}}

	store := newFakeStore()
	queue := &fakeEmailQueue{}
	logger := zap.NewNop()

	svc := NewOrderService(
		orders,
		users,
		restaurants,
		riders,
		NewPricingEngine(menus, 0.075, 2.00),
		cache.New(store, logger),
		NewMailer(queue, "noreply@example.com", logger),
		logger,
	)

	return &orderFixture{
		svc:          svc,
		orders:       orders,
		store:        store,
		queue:        queue,
		userID:       userID,
		restaurantID: restaurantID,
		menuID:       menuID,
	}
}

func (f *orderFixture) seedOrder(status string) *models.Order {
	order := &models.Order{
		ID:           uuid.New(),
		OrderNumber:  "ORD-SEED0001",
		UserID:       f.userID,
		RestaurantID: f.restaurantID,
		Items:        []models.OrderItem{{MenuID: f.menuID, Name: "Jollof Rice", Quantity: 2, Price: 10.00}},
		Subtotal:     20.00,
		Tax:          1.50,
		DeliveryFee:  2.00,
		TotalPrice:   23.50,
		Status:       status,
		DeliveryInfo: models.DeliveryInfo{Address: "12 Allen Avenue"},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.orders.put(order)
	return order
}

func TestPlaceOrder(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.PlaceOrder(context.Background(), f.userID, &PlaceOrderRequest{
		RestaurantID: f.restaurantID,
		Items:        []ItemRequest{{MenuID: f.menuID, Quantity: 2}},
		Address:      "12 Allen Avenue",
	})
	require.Nil(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, 20.00, order.Subtotal)
	assert.Equal(t, 1.50, order.Tax)
	assert.Equal(t, 23.50, order.TotalPrice)
	assert.Equal(t, "12 Allen Avenue", order.DeliveryInfo.Address)

	stored := f.orders.get(order.ID)
	require.NotNil(t, stored)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestPlaceOrder_UnknownUser(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), &PlaceOrderRequest{
		RestaurantID: f.restaurantID,
		Items:        []ItemRequest{{MenuID: f.menuID, Quantity: 1}},
		Address:      "12 Allen Avenue",
	})

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Code)
}

func TestUpdateStatus_OwnershipMismatch(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), order.ID, models.OrderProcessing)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Equal(t, models.OrderPending, f.orders.get(order.ID).Status)
	assert.Empty(t, f.queue.sent())
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	_, err := f.svc.UpdateStatus(context.Background(), f.restaurantID, order.ID, models.OrderShipped)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusConflict, err.Code)
	assert.Equal(t, models.OrderPending, f.orders.get(order.ID).Status)
	assert.Empty(t, f.queue.sent())
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	_, err := f.svc.UpdateStatus(context.Background(), f.restaurantID, order.ID, "on_fire")

	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Code)
}

func TestUpdateStatus_EnqueuesNotification(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	updated, err := f.svc.UpdateStatus(context.Background(), f.restaurantID, order.ID, models.OrderProcessing)
	require.Nil(t, err)

	assert.Equal(t, models.OrderProcessing, updated.Status)
	assert.Equal(t, models.OrderProcessing, f.orders.get(order.ID).Status)

	jobs := f.queue.sent()
	require.Len(t, jobs, 1)
	assert.Equal(t, "ada@example.com", jobs[0].To)
	assert.Contains(t, jobs[0].Subject, models.OrderProcessing)
}

func TestCancel_PendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	cancelled, err := f.svc.Cancel(context.Background(), f.restaurantID, order.ID)
	require.Nil(t, err)

	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	jobs := f.queue.sent()
	require.Len(t, jobs, 1)
	assert.Contains(t, jobs[0].Subject, "cancelled")
}

func TestCancel_TooLate(t *testing.T) {
	f := newOrderFixture(t)

	for _, status := range []string{models.OrderReadyForPickup, models.OrderShipped, models.OrderDelivered} {
		t.Run(status, func(t *testing.T) {
			order := f.seedOrder(status)

			_, err := f.svc.Cancel(context.Background(), f.restaurantID, order.ID)

			require.NotNil(t, err)
			assert.Equal(t, http.StatusConflict, err.Code)
			assert.Equal(t, status, f.orders.get(order.ID).Status)
		})
	}
}

func TestAssignRider(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderProcessing)

	updated, err := f.svc.AssignRider(context.Background(), f.restaurantID, order.ID, "Tunde")
	require.Nil(t, err)

	assert.Equal(t, "Tunde", updated.DeliveryInfo.RiderName)
	require.NotNil(t, updated.DeliveryInfo.RiderID)
	// status is untouched by rider assignment
	assert.Equal(t, models.OrderProcessing, updated.Status)

	jobs := f.queue.sent()
	require.Len(t, jobs, 1)
	assert.Contains(t, jobs[0].Subject, "rider")
}

func TestAssignRider_TerminalOrder(t *testing.T) {
	f := newOrderFixture(t)

	for _, status := range []string{models.OrderCancelled, models.OrderDelivered} {
		t.Run(status, func(t *testing.T) {
			order := f.seedOrder(status)

			_, err := f.svc.AssignRider(context.Background(), f.restaurantID, order.ID, "Tunde")

			require.NotNil(t, err)
			assert.Equal(t, http.StatusConflict, err.Code)
			stored := f.orders.get(order.ID)
			assert.Nil(t, stored.DeliveryInfo.RiderID)
			assert.Empty(t, stored.DeliveryInfo.RiderName)
		})
	}
	assert.Empty(t, f.queue.sent())
}

func TestAssignRider_UnknownRider(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderProcessing)

	_, err := f.svc.AssignRider(context.Background(), f.restaurantID, order.ID, "NoSuchRider")

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Nil(t, f.orders.get(order.ID).DeliveryInfo.RiderID)
	assert.Empty(t, f.queue.sent())
}

func TestGetByID_WrongRestaurant(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	_, err := f.svc.GetByID(context.Background(), uuid.New(), order.ID)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Code)
}

func TestGetByID_CacheInvalidatedOnCancel(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(models.OrderPending)

	// Warm the cache with the pending snapshot.
	got, err := f.svc.GetByID(context.Background(), f.restaurantID, order.ID)
	require.Nil(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	_, err = f.svc.Cancel(context.Background(), f.restaurantID, order.ID)
	require.Nil(t, err)

	// The cancelled write must have evicted the stale snapshot.
	got, err = f.svc.GetByID(context.Background(), f.restaurantID, order.ID)
	require.Nil(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
}

func TestFetchUserOrders(t *testing.T) {
	f := newOrderFixture(t)
	f.seedOrder(models.OrderPending)

	page, err := f.svc.FetchUserOrders(context.Background(), f.userID, 1, 10)
	require.Nil(t, err)

	assert.Len(t, page.Orders, 1)
	assert.Equal(t, int64(1), page.Meta.TotalOrders)
	assert.False(t, page.Meta.HasMore)
}
