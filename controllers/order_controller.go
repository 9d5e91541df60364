package controllers

import (
	"net/http"
	"strconv"

	apperrors "restaurant-api/common/errors"
	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// PlaceOrder handles order creation for the authenticated user. Placement
// itself sends no notification; the confirmation email follows payment.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.PlaceOrder(c.Request.Context(), principal.ID, &req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrders returns paginated orders for the authenticated user
func (oc *OrderController) GetOrders(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(c)
	result, svcErr := oc.orderService.FetchUserOrders(c.Request.Context(), principal.ID, page, limit)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRestaurantOrders returns paginated orders for the authenticated restaurant
func (oc *OrderController) GetRestaurantOrders(c *gin.Context) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(c)
	result, svcErr := oc.orderService.FetchRestaurantOrders(c.Request.Context(), principal.ID, page, limit)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderByID returns one of the authenticated restaurant's orders
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	principal, orderID, ok := restaurantAndOrder(c)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetByID(c.Request.Context(), principal.ID, orderID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order along the lifecycle graph
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	principal, orderID, ok := restaurantAndOrder(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateStatus(c.Request.Context(), principal.ID, orderID, req.Status)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder cancels a pending or processing order
func (oc *OrderController) CancelOrder(c *gin.Context) {
	principal, orderID, ok := restaurantAndOrder(c)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.Cancel(c.Request.Context(), principal.ID, orderID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// AssignRider assigns a named rider to an order's delivery
func (oc *OrderController) AssignRider(c *gin.Context) {
	principal, orderID, ok := restaurantAndOrder(c)
	if !ok {
		return
	}

	var req struct {
		RiderName string `json:"rider_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.AssignRider(c.Request.Context(), principal.ID, orderID, req.RiderName)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func restaurantAndOrder(c *gin.Context) (models.Principal, uuid.UUID, bool) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.Principal{}, uuid.Nil, false
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return models.Principal{}, uuid.Nil, false
	}

	return principal, orderID, true
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100

	page := 1
	limit := 10

	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = l
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	return page, limit
}
