package routes

import (
	"restaurant-api/controllers"
	"restaurant-api/middleware"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
)

func Register(
	r *gin.Engine,
	jwtSecret string,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController,
) {
	auth := middleware.Auth(jwtSecret)

	userRoutes := r.Group("/orders")
	userRoutes.Use(auth, middleware.RequireRole(models.RoleUser))
	userRoutes.POST("", orderController.PlaceOrder)
	userRoutes.GET("", orderController.GetOrders)

	restaurantRoutes := r.Group("/restaurant/orders")
	restaurantRoutes.Use(auth, middleware.RequireRole(models.RoleRestaurant))
	restaurantRoutes.GET("", orderController.GetRestaurantOrders)
	restaurantRoutes.GET("/:id", orderController.GetOrderByID)
	restaurantRoutes.PATCH("/:id/status", orderController.UpdateOrderStatus)
	restaurantRoutes.POST("/:id/cancel", orderController.CancelOrder)
	restaurantRoutes.POST("/:id/rider", orderController.AssignRider)

	paymentRoutes := r.Group("/payments")
	paymentRoutes.POST("/webhook", paymentController.Webhook)

	authedPayments := paymentRoutes.Group("")
	authedPayments.Use(auth, middleware.RequireRole(models.RoleUser))
	authedPayments.POST("/initialize", paymentController.InitializePayment)
	authedPayments.GET("/order/:orderId", paymentController.GetPaymentByOrderID)
}
