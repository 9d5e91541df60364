package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"restaurant-api/cache"
	"restaurant-api/gateway"
	"restaurant-api/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ---- in-memory order repository ----

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (r *memOrderRepo) put(order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
}

func (r *memOrderRepo) get(id uuid.UUID) *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		copied := *o
		return &copied
	}
	return nil
}

func (r *memOrderRepo) Create(_ context.Context, order *models.Order) error {
	r.put(order)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o := r.get(id); o != nil {
		return o, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memOrderRepo) FindByIDAndRestaurant(_ context.Context, id, restaurantID uuid.UUID) (*models.Order, error) {
	if o := r.get(id); o != nil && o.RestaurantID == restaurantID {
		return o, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			copied := *o
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindByRestaurantID(_ context.Context, restaurantID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memOrderRepo) UpdateDeliveryInfo(_ context.Context, id uuid.UUID, riderID uuid.UUID, riderName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	o.DeliveryInfo.RiderID = &riderID
	o.DeliveryInfo.RiderName = riderName
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- in-memory payment repository ----

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (r *memPaymentRepo) get(id uuid.UUID) *models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		copied := *p
		return &copied
	}
	return nil
}

func (r *memPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *memPaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memPaymentRepo) FindByReference(_ context.Context, reference string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionDetails.Reference == reference && p.Status != models.PaymentFailed {
			copied := *p
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memPaymentRepo) FindCompletedByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID && p.Status == models.PaymentCompleted {
			copied := *p
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memPaymentRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if p.Status == models.PaymentCompleted {
		return nil
	}
	now := time.Now().UTC()
	p.Status = models.PaymentCompleted
	p.CompletedAt = &now
	return nil
}

func (r *memPaymentRepo) MarkFailed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	now := time.Now().UTC()
	p.Status = models.PaymentFailed
	p.FailedAt = &now
	return nil
}

func (r *memPaymentRepo) SetTransactionDetails(_ context.Context, id uuid.UUID, details models.TransactionDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.TransactionDetails = details
	return nil
}

// ---- directory stubs ----

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type stubRestaurantRepo struct {
	restaurants map[uuid.UUID]*models.Restaurant
}

func (r *stubRestaurantRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if res, ok := r.restaurants[id]; ok {
		return res, nil
	}
	return nil, mongo.ErrNoDocuments
}

type stubRiderRepo struct {
	riders map[string]*models.Rider
}

func (r *stubRiderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Rider, error) {
	for _, rider := range r.riders {
		if rider.ID == id {
			return rider, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *stubRiderRepo) FindByName(_ context.Context, name string) (*models.Rider, error) {
	if rider, ok := r.riders[name]; ok {
		return rider, nil
	}
	return nil, mongo.ErrNoDocuments
}

type stubMenuRepo struct {
	items map[uuid.UUID]*models.MenuItem
}

func (r *stubMenuRepo) FindByID(_ context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if item, ok := r.items[id]; ok {
		return item, nil
	}
	return nil, mongo.ErrNoDocuments
}

// ---- cache store fake ----

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	return val, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

var _ cache.Store = (*fakeStore)(nil)

// ---- email queue fake ----

type fakeEmailQueue struct {
	mu   sync.Mutex
	jobs []models.EmailJob
}

func (q *fakeEmailQueue) Enqueue(_ context.Context, job models.EmailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeEmailQueue) sent() []models.EmailJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.EmailJob(nil), q.jobs...)
}

func (q *fakeEmailQueue) subjects() string {
	var b strings.Builder
	for _, j := range q.sent() {
		b.WriteString(j.Subject)
		b.WriteString(";")
	}
	return b.String()
}

// ---- gateway fake ----

type fakeGateway struct {
	initResp   *gateway.InitializeResponse
	initErr    error
	initCalls  []gateway.InitializeRequest
	verifyResp *gateway.VerifyResponse
	verifyErr  error
	validSig   string
}

func (g *fakeGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.InitializeResponse, error) {
	g.initCalls = append(g.initCalls, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResp, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*gateway.VerifyResponse, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyResp, nil
}

func (g *fakeGateway) VerifySignature(_ []byte, signature string) bool {
	return signature == g.validSig
}

var _ gateway.Client = (*fakeGateway)(nil)
