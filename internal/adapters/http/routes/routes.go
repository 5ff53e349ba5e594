package routes

import (
	"nagarseva/internal/adapters/http/handlers"
	"nagarseva/internal/adapters/http/middleware"
	"nagarseva/internal/adapters/persistence/repositories"
	"nagarseva/internal/config"
	"nagarseva/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Services bundles the long-lived services the caller needs after route
// setup (the cron service schedules against them)
type Services struct {
	Guest        *services.GuestService
	Complaint    *services.ComplaintService
	RefreshToken repositories.RefreshTokenRepository
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Services {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	wardRepo := repositories.NewWardRepository(db)
	typeRepo := repositories.NewComplaintTypeRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	captchaService := services.NewCaptchaService(cfg)
	mailerService := services.NewMailerService(cfg)
	sessionStore := services.NewSessionStore()
	complaintService := services.NewComplaintService(complaintRepo, typeRepo, wardRepo, userRepo, cfg)
	guestService := services.NewGuestService(sessionStore, captchaService, mailerService, authService, complaintService, cfg)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	guestHandler := handlers.NewGuestHandler(guestService, captchaService, cfg)
	complaintHandler := handlers.NewComplaintHandler(complaintService, cfg)
	masterHandler := handlers.NewMasterHandler(wardRepo, typeRepo)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, authHandler, guestHandler, complaintHandler, masterHandler, dashboardHandler, cfg)

	return &Services{
		Guest:        guestService,
		Complaint:    complaintService,
		RefreshToken: refreshTokenRepo,
	}
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	authHandler *handlers.AuthHandler,
	guestHandler *handlers.GuestHandler,
	complaintHandler *handlers.ComplaintHandler,
	masterHandler *handlers.MasterHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// Auth routes
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Master data (public, cacheable)
	router.Get("/wards", middleware.MasterDataCache(), masterHandler.ListWards)
	router.Get("/complaint-types", middleware.MasterDataCache(), masterHandler.ListComplaintTypes)

	// Captcha challenge (public, never cached)
	router.Get("/captcha", middleware.NoCacheHeaders(), guestHandler.GetCaptcha)

	// Guest workflow (public, rate limited)
	guestRoutes := router.Group("/guest/complaints", middleware.NoCacheHeaders())
	setupGuestRoutes(guestRoutes, guestHandler)

	// Public complaint tracking
	router.Get("/complaints/track/:trackingNumber", complaintHandler.Track)

	// Citizen complaint routes (authenticated)
	complaintRoutes := router.Group("/complaints")
	complaintRoutes.Use(middleware.AuthMiddleware(cfg))
	complaintRoutes.Post("/", complaintHandler.Submit)
	complaintRoutes.Get("/", complaintHandler.ListMine)
	complaintRoutes.Get("/:id", complaintHandler.Get)

	// Officer routes (Officer/Admin only)
	officerRoutes := router.Group("/officer/complaints")
	officerRoutes.Use(middleware.AuthMiddleware(cfg))
	officerRoutes.Use(middleware.OfficerOrAdmin())
	officerRoutes.Get("/", complaintHandler.ListWard)
	officerRoutes.Post("/:id/assign", complaintHandler.Assign)
	officerRoutes.Patch("/:id/status", complaintHandler.UpdateStatus)

	// Maintenance routes
	maintenanceRoutes := router.Group("/maintenance/complaints")
	maintenanceRoutes.Use(middleware.AuthMiddleware(cfg))
	maintenanceRoutes.Use(middleware.MaintenanceOnly())
	maintenanceRoutes.Get("/", complaintHandler.ListAssigned)
	maintenanceRoutes.Post("/:id/photos", complaintHandler.UploadWorkPhotos)
	maintenanceRoutes.Patch("/:id/status", complaintHandler.UpdateWorkStatus)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Get("/admin", middleware.AdminOnly(), dashboardHandler.AdminDashboard)
	dashboardRoutes.Get("/officer", middleware.OfficerOrAdmin(), dashboardHandler.OfficerDashboard)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupGuestRoutes configures the guest complaint workflow routes.
// Intake and verify get the auth limiter (5/min/IP); resend gets the
// strict limiter (3/min/IP) matching the per-session resend cap.
func setupGuestRoutes(router fiber.Router, handler *handlers.GuestHandler) {
	router.Post("/", middleware.AuthRateLimiter(), handler.BeginIntake)
	router.Post("/verify", middleware.AuthRateLimiter(), handler.VerifyComplaint)
	router.Post("/resend-otp", middleware.StrictRateLimiter(), handler.ResendOTP)
	router.Post("/cancel", handler.CancelSession)
}
