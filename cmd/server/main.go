package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"nagarseva/internal/adapters/http/middleware"
	"nagarseva/internal/adapters/http/routes"
	"nagarseva/internal/adapters/persistence/models"
	"nagarseva/internal/config"
	"nagarseva/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "nagarseva/docs" // Swagger docs
)

// @title NagarSeva Civic Portal API
// @version 1.0
// @description Municipal civic-complaint portal: guest and citizen complaint submission, OTP email verification, ward-scoped complaint handling.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@nagarseva.gov.in

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.nagarseva.gov.in
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed master data (wards, sub-zones, complaint types)
	if err := config.SeedMasterData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "NagarSeva Civic Portal API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    64 << 20, // multipart uploads
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	svcs := routes.Setup(app, db, cfg)

	// Start cron service (session sweeps, SLA marking, token purge)
	cronService := services.NewCronService(svcs.Guest, svcs.Complaint, svcs.RefreshToken, cfg)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
