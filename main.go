package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/restaurant-service/config"
	"github.com/Eursukkul/restaurant-service/internal/consumer"
	"github.com/Eursukkul/restaurant-service/internal/handler"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"github.com/Eursukkul/restaurant-service/pkg/logger"
	"github.com/Eursukkul/restaurant-service/pkg/rabbitmq"
	"github.com/Eursukkul/restaurant-service/pkg/session"
	"github.com/Eursukkul/restaurant-service/pkg/storage"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

const (
	serviceName = "restaurant-service"
	maxBodySize = "8M"
)

func main() {
	cfg := config.Load()
	log := logger.New(serviceName, cfg.LogLevel)

	db, err := openDB(cfg)
	if err != nil {
		log.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if cfg.SeedDemo {
		if err := database.SeedDemo(db); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Repositories
	reservationRepo := repository.NewReservationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	menuRepo := repository.NewMenuItemRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// RabbitMQ is optional: without RABBITMQ_URL no events are published.
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Error("failed to connect publisher to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewActivityConsumer(cfg.RabbitURL)
		if err != nil {
			log.Error("failed to connect consumer to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Error("failed to start consuming", "error", err)
			os.Exit(1)
		}
		consumer.NewActivityConsumer(activityRepo, log).Start(msgs)
	}

	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Error("failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	// Services
	reservationSvc := service.NewReservationService(reservationRepo, service.ReservationSettings{
		MaxTables:     cfg.MaxTables,
		OverlapWindow: cfg.OverlapWindow,
		OpeningTime:   cfg.OpeningTime,
		ClosingTime:   cfg.ClosingTime,
	}, publisher, log)
	orderSvc := service.NewOrderService(orderRepo, menuRepo, service.SimulatedGateway{Delay: 200 * time.Millisecond}, service.OrderSettings{
		TaxRate:        cfg.TaxRate,
		PaymentTimeout: cfg.PaymentTimeout,
	}, publisher, log)
	menuSvc := service.NewMenuService(menuRepo, categoryRepo, files, cfg.MaxUploadBytes, log)
	staffSvc := service.NewStaffService(staffRepo, files, cfg.MaxUploadBytes, log)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, orderRepo, log)
	authSvc := service.NewAuthService(userRepo, log)
	dashboardSvc := service.NewDashboardService(reservationRepo, orderRepo, staffRepo, activityRepo, log)

	guard := middleware.NewSessionGuard(session.NewManager(cfg.SessionSecret, cfg.SessionIdleTimeout), cfg.SecureCookies)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.BodyLimit(maxBodySize))

	e.Static(storage.URLPrefix, files.Root())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})

	api := e.Group("/api/v1")
	handler.NewAuthHandler(authSvc, guard).RegisterRoutes(api)
	handler.NewReservationHandler(reservationSvc, guard).RegisterRoutes(api)
	handler.NewOrderHandler(orderSvc, guard).RegisterRoutes(api)
	handler.NewMenuHandler(menuSvc, guard).RegisterRoutes(api)
	handler.NewStaffHandler(staffSvc, guard).RegisterRoutes(api)
	handler.NewFeedbackHandler(feedbackSvc, guard).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardSvc, guard).RegisterRoutes(api)

	go func() {
		log.Info("restaurant service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("restaurant service stopped")
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return database.NewSQLiteDB(cfg.DBPath)
	}
	return database.NewPostgresDB(cfg.DSN())
}
