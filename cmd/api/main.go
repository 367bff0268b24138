package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-invoice-ws/internal/config"
	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/handler"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/internal/service"
	"go-invoice-ws/internal/ws"
	"go-invoice-ws/pkg/database"
	"go-invoice-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logger")
	}
	if envErr != nil {
		log.Warn().Msg(".env file not found, using system environment")
	}
	jwt.Configure(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTTTLHours)*time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	defer database.Close(db)

	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal().Err(err).Msg("Auto migration failed")
	}

	// 3. Setup WebSocket Hub and event publishers
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	publisher := events.Multi{events.NewHubPublisher(wsHub)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer kafkaPublisher.Close()
		publisher = append(publisher, kafkaPublisher)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher enabled")
	}

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)

	productService := service.NewProductService(productRepo, publisher)
	invoiceService := service.NewInvoiceService(invoiceRepo, productRepo, publisher, cfg.Invoice.DefaultTaxRate)
	reconcileService := service.NewReconcileService(invoiceRepo, productRepo, publisher, cfg.Inventory.ReconcileConcurrency)
	dashboardService := service.NewDashboardService(dashboardRepo, cfg.Inventory.LowStockThreshold)
	sessionIdle := time.Duration(cfg.Auth.SessionIdleMinutes) * time.Minute
	authService := service.NewAuthService(userRepo, publisher, sessionIdle)
	userService := service.NewUserService(userRepo, privilegeRepo)

	// 5. Seed privileges and the admin user
	created, err := userService.EnsureAdmin(ctx, service.BootstrapUser{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		FullName: cfg.Bootstrap.AdminName,
		Business: model.Party{
			Name:    cfg.Bootstrap.BusinessName,
			Address: cfg.Bootstrap.BusinessAddress,
			TaxID:   cfg.Bootstrap.BusinessTaxID,
			Contact: cfg.Bootstrap.BusinessContact,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to seed admin user")
	} else if created {
		log.Info().Str("email", cfg.Bootstrap.AdminEmail).Msg("Admin user created")
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.RegisterRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Profile:   handler.NewProfileHandler(userService),
		Product:   handler.NewProductHandler(productService),
		Invoice:   handler.NewInvoiceHandler(invoiceService, reconcileService, userService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}, userRepo, sessionIdle, wsHub)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	if !service.FlushEvents(5 * time.Second) {
		log.Warn().Msg("Some events were not published before shutdown")
	}

	log.Info().Msg("Server exited")
}
