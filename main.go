package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"restaurant-api/cache"
	"restaurant-api/common/logger"
	"restaurant-api/config"
	"restaurant-api/controllers"
	"restaurant-api/database"
	"restaurant-api/gateway"
	"restaurant-api/queue"
	"restaurant-api/repository"
	"restaurant-api/routes"
	"restaurant-api/sender"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	zapLogger := logger.New(cfg.Environment)
	defer zapLogger.Sync()

	db, err := database.NewMongoDatabase(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		zapLogger.Fatal("failed to connect to mongodb", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	queueConn, err := queue.NewConnection(cfg.RabbitMQURL, cfg.NotificationQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer queueConn.Close()

	smtpSender, err := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		zapLogger.Fatal("failed to configure smtp sender", zap.Error(err))
	}

	// Repositories
	orderRepo := repository.NewMongoOrderRepo(db)
	paymentRepo := repository.NewMongoPaymentRepo(db)
	userRepo := repository.NewMongoUserRepo(db)
	restaurantRepo := repository.NewMongoRestaurantRepo(db)
	riderRepo := repository.NewMongoRiderRepo(db)
	menuRepo := repository.NewMongoMenuRepo(db)

	// Core services
	orderCache := cache.New(cache.NewRedisStore(redisClient), zapLogger)
	publisher := queue.NewPublisher(queueConn, zapLogger)
	mailer := services.NewMailer(publisher, cfg.MailFrom, zapLogger)
	pricing := services.NewPricingEngine(menuRepo, cfg.TaxRate, cfg.DeliveryFee)
	orderService := services.NewOrderService(orderRepo, userRepo, restaurantRepo, riderRepo, pricing, orderCache, mailer, zapLogger)
	paystack := gateway.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	paymentService := services.NewPaymentService(paymentRepo, orderRepo, userRepo, orderService, paystack, mailer, cfg.CallbackURL, zapLogger)

	// Notification consumer runs independently of the request path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(queueConn, smtpSender, zapLogger)
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			zapLogger.Error("notification consumer exited", zap.Error(err))
		}
	}()

	// HTTP surface
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(zapLogger))

	orderController := controllers.NewOrderController(orderService)
	paymentController := controllers.NewPaymentController(paymentService, zapLogger)
	routes.Register(router, cfg.JWTSecret, orderController, paymentController)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
}
