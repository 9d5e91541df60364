package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	apperrors "restaurant-api/common/errors"
	"restaurant-api/gateway"
	"restaurant-api/models"
	"restaurant-api/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const chargeSuccessEvent = "charge.success"

type InitializePaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required,oneof=gateway cash_on_delivery"`
}

// InitializePaymentResponse is the sanitized projection returned to callers.
// The gateway path includes the redirect URL; the cash path does not.
type InitializePaymentResponse struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	Status           string    `json:"status"`
	PaymentMethod    string    `json:"payment_method"`
	Amount           float64   `json:"amount"`
	AuthorizationURL string    `json:"authorization_url,omitempty"`
	Reference        string    `json:"reference,omitempty"`
}

// webhookEvent is the gateway's webhook body. Only event and data.reference
// are trusted, and only after the signature check and a direct verify call.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// PaymentService coordinates payment creation, gateway initiation and webhook
// reconciliation. Order transitions always go through the order service's
// shared entry point; this service never writes order status directly.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	orders      *OrderService
	gateway     gateway.Client
	mailer      *Mailer
	callbackURL string
	logger      *zap.Logger
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	orders *OrderService,
	gatewayClient gateway.Client,
	mailer *Mailer,
	callbackURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		orders:      orders,
		gateway:     gatewayClient,
		mailer:      mailer,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// InitializePayment creates a payment for the order and drives either the
// cash-on-delivery path or the gateway initiation. The payment amount is
// fixed to the order total; at most one payment per order ever completes.
func (s *PaymentService) InitializePayment(ctx context.Context, userID uuid.UUID, req *InitializePaymentRequest) (*InitializePaymentResponse, *apperrors.Error) {
	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.ServerError("Failed to fetch order", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("Order does not belong to this user")
	}

	if _, err := s.paymentRepo.FindCompletedByOrderID(ctx, order.ID); err == nil {
		return nil, apperrors.Conflict("Order has already been paid")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ServerError("Failed to check existing payments", err)
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        userID,
		Amount:        order.TotalPrice,
		Status:        models.PaymentProcessing,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperrors.ServerError("Failed to create payment", err)
	}

	if req.PaymentMethod == models.MethodCashOnDelivery {
		return s.confirmCashPayment(ctx, order, payment)
	}
	return s.initiateGatewayPayment(ctx, order, payment)
}

// confirmCashPayment confirms the order synchronously; the payment stays
// processing until settled on delivery.
func (s *PaymentService) confirmCashPayment(ctx context.Context, order *models.Order, payment *models.Payment) (*InitializePaymentResponse, *apperrors.Error) {
	if _, err := s.orders.UpdateStatus(ctx, order.RestaurantID, order.ID, models.OrderProcessing); err != nil {
		return nil, err
	}

	s.logger.Info("cash payment confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_id", payment.ID.String()),
	)
	return &InitializePaymentResponse{
		PaymentID:     payment.ID,
		Status:        payment.Status,
		PaymentMethod: payment.PaymentMethod,
		Amount:        payment.Amount,
	}, nil
}

func (s *PaymentService) initiateGatewayPayment(ctx context.Context, order *models.Order, payment *models.Payment) (*InitializePaymentResponse, *apperrors.Error) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, apperrors.ServerError("Failed to look up user", err)
	}

	init, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:    toMinorUnits(order.TotalPrice),
		Email:     user.Email,
		Reference: order.OrderNumber,
		Metadata: map[string]string{
			"order_id":      order.ID.String(),
			"restaurant_id": order.RestaurantID.String(),
			"user_id":       order.UserID.String(),
		},
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		// No automatic retry; the user re-initiates payment if they want to.
		if markErr := s.paymentRepo.MarkFailed(ctx, payment.ID); markErr != nil {
			s.logger.Error("failed to mark payment failed",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(markErr),
			)
		}
		return nil, apperrors.ServerError("Payment gateway initialization failed", err)
	}

	details := models.TransactionDetails{
		Reference:        init.Reference,
		AuthorizationURL: init.AuthorizationURL,
		Metadata: map[string]string{
			"order_id": order.ID.String(),
		},
	}
	if err := s.paymentRepo.SetTransactionDetails(ctx, payment.ID, details); err != nil {
		return nil, apperrors.ServerError("Failed to store transaction details", err)
	}

	s.logger.Info("gateway payment initiated",
		zap.String("order_number", order.OrderNumber),
		zap.String("reference", init.Reference),
	)
	return &InitializePaymentResponse{
		PaymentID:        payment.ID,
		Status:           payment.Status,
		PaymentMethod:    payment.PaymentMethod,
		Amount:           payment.Amount,
		AuthorizationURL: init.AuthorizationURL,
		Reference:        init.Reference,
	}, nil
}

// HandleWebhookEvent reconciles a gateway webhook against pending payments.
// It returns false for anything that should be silently ignored: bad
// signature, uninteresting event, unverifiable charge, unknown reference.
// Redelivery of the same event is safe: the payment is re-marked completed
// and an already-confirmed order is left alone, though the confirmation
// email is enqueued again (duplicate sends are tolerated, not deduplicated).
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, rawPayload []byte, signature string) bool {
	if !s.gateway.VerifySignature(rawPayload, signature) {
		s.logger.Warn("webhook signature mismatch")
		return false
	}

	var event webhookEvent
	if err := json.Unmarshal(rawPayload, &event); err != nil {
		s.logger.Warn("unparseable webhook payload", zap.Error(err))
		return false
	}
	if event.Event != chargeSuccessEvent {
		return false
	}

	// Do not trust the webhook body: confirm against the gateway directly.
	verification, err := s.gateway.Verify(ctx, event.Data.Reference)
	if err != nil {
		s.logger.Error("gateway verification failed",
			zap.String("reference", event.Data.Reference),
			zap.Error(err),
		)
		return false
	}
	if verification.Status != "success" {
		s.logger.Warn("webhook charge not verified as successful",
			zap.String("reference", event.Data.Reference),
			zap.String("status", verification.Status),
		)
		return false
	}

	payment, err := s.paymentRepo.FindByReference(ctx, event.Data.Reference)
	if err != nil {
		s.logger.Warn("no payment for webhook reference",
			zap.String("reference", event.Data.Reference),
			zap.Error(err),
		)
		return false
	}

	if err := s.paymentRepo.MarkCompleted(ctx, payment.ID); err != nil {
		s.logger.Error("failed to mark payment completed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return false
	}

	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		s.logger.Error("failed to fetch order for completed payment",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return false
	}

	// Confirm through the shared transition entry point. On redelivery the
	// order is already past pending and the transition is skipped.
	if order.Status == models.OrderPending {
		updated, updErr := s.orders.UpdateStatus(ctx, order.RestaurantID, order.ID, models.OrderProcessing)
		if updErr != nil {
			s.logger.Error("failed to confirm order after payment",
				zap.String("order_number", order.OrderNumber),
				zap.Error(updErr),
			)
			return false
		}
		order = updated
	}

	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("failed to resolve user for payment confirmation",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return true
	}
	s.mailer.OrderConfirmation(ctx, user, order)

	s.logger.Info("payment reconciled",
		zap.String("order_number", order.OrderNumber),
		zap.String("reference", event.Data.Reference),
	)
	return true
}

// GetPaymentByOrderID returns the payment for an order, scoped to its owner.
func (s *PaymentService) GetPaymentByOrderID(ctx context.Context, userID, orderID uuid.UUID) (*models.Payment, *apperrors.Error) {
	payment, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, apperrors.ServerError("Failed to fetch payment", err)
	}
	if payment.UserID != userID {
		return nil, apperrors.NotFound("Payment not found")
	}
	return payment, nil
}

// toMinorUnits converts a 2-decimal amount to the gateway's integer minor
// unit without floating-point truncation surprises.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
