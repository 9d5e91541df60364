package controllers

import (
	"io"
	"net/http"

	apperrors "restaurant-api/common/errors"
	"restaurant-api/middleware"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const signatureHeader = "x-paystack-signature"

type PaymentController struct {
	paymentService *services.PaymentService
	logger         *zap.Logger
}

func NewPaymentController(paymentService *services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{paymentService: paymentService, logger: logger}
}

// InitializePayment creates a payment for one of the caller's orders
func (pc *PaymentController) InitializePayment(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := pc.paymentService.InitializePayment(c.Request.Context(), principal.ID, &req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": result})
}

// GetPaymentByOrderID returns the payment for one of the caller's orders
func (pc *PaymentController) GetPaymentByOrderID(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	payment, svcErr := pc.paymentService.GetPaymentByOrderID(c.Request.Context(), principal.ID, orderID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// Webhook receives gateway events. It always answers 200 so the gateway
// stops redelivering, and never explains why an event was ignored: a hostile
// caller learns nothing from probing this endpoint.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		pc.logger.Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	signature := c.GetHeader(signatureHeader)
	handled := pc.paymentService.HandleWebhookEvent(c.Request.Context(), payload, signature)
	if !handled {
		pc.logger.Debug("webhook event ignored")
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
