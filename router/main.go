package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/handlers"
	auth_handlers "github.com/starbooks/monitoring-api/handlers/auth"
	dashboard_handlers "github.com/starbooks/monitoring-api/handlers/dashboard"
	institution_handlers "github.com/starbooks/monitoring-api/handlers/institution"
	mou_handlers "github.com/starbooks/monitoring-api/handlers/mou"
	notification_handlers "github.com/starbooks/monitoring-api/handlers/notification"
	reference_handlers "github.com/starbooks/monitoring-api/handlers/reference"
	training_handlers "github.com/starbooks/monitoring-api/handlers/training"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/middleware"
)

// Deps carries everything the routes are built from
type Deps struct {
	Store      database.Storage
	Cache      cache.Cache
	Registry   *schema.Registry
	JWTManager *auth.JWTManager
	Log        *zap.Logger

	Institutions  *services.InstitutionService
	MOU           *services.MOUService
	Trainings     *services.TrainingService
	Notifications *services.NotificationService
	Dashboards    *services.DashboardService
	Reports       *services.ReportService
	Exports       *services.ExportService

	AllowedOrigins    string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func SetupRoutes(app *fiber.App, d Deps) {
	revoked := auth.NewRevocationList(d.Cache)
	bruteForceProtection := middleware.NewBruteForceProtection(d.Cache)
	authMiddleware := middleware.NewAuthMiddleware(d.JWTManager, revoked, d.Store)

	healthHandler := handlers.NewHealthHandler(d.Store, d.Cache)
	authHandler := auth_handlers.NewAuthHandler(d.Store, d.JWTManager, revoked, bruteForceProtection, d.Log)
	referenceHandler := reference_handlers.NewReferenceHandler(d.Registry)
	institutionHandler := institution_handlers.NewInstitutionHandler(d.Institutions, d.Exports, d.Log)
	mouHandler := mou_handlers.NewMOUHandler(d.MOU, d.Log)
	trainingHandler := training_handlers.NewTrainingHandler(d.Trainings, d.Log)
	notificationHandler := notification_handlers.NewNotificationHandler(d.Notifications, d.Log)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(d.Dashboards, d.Reports, d.Log)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    d.AllowedOrigins,
		RateLimitRequests: d.RateLimitRequests,
		RateLimitWindow:   d.RateLimitWindow,
		Log:               d.Log,
	})

	// Health check endpoint (public)
	app.Get("/ping", healthHandler.Ping)

	// API v1 group
	api := app.Group("/api/v1")
	api.Get("/ping", healthHandler.Ping)
	api.Get("/health", healthHandler.Health)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/register", authMiddleware.RequireAdmin(), middleware.AuditLog(d.Log, "user_register", "users"), authHandler.Register)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Everything below requires a signed-in coordinator or admin
	protected := api.Group("", authMiddleware.Required())
	protected.Get("/profile", authHandler.GetProfile)

	reference := protected.Group("/reference")
	reference.Get("/provinces", referenceHandler.GetProvinces)
	reference.Get("/options", referenceHandler.GetOptions)
	reference.Get("/schema/:kind", referenceHandler.GetSchema)

	institutions := protected.Group("/institutions")
	institutions.Get("/", institutionHandler.ListInstitutions)
	institutions.Get("/export", institutionHandler.ExportInstitutions)
	institutions.Post("/validate", institutionHandler.ValidateInstitution)
	institutions.Post("/", middleware.AuditLog(d.Log, "institution_create", "institutions"), institutionHandler.CreateInstitution)
	institutions.Get("/:id", institutionHandler.GetInstitution)
	institutions.Get("/:id/mou", mouHandler.GetMOUDownloadURL)
	institutions.Post("/:id/mou", middleware.AuditLog(d.Log, "mou_upload", "institutions"), mouHandler.UploadMOU)

	protected.Get("/mou-documents", mouHandler.ListMOUDocuments)

	trainings := protected.Group("/trainings")
	trainings.Get("/", trainingHandler.ListTrainings)
	trainings.Post("/", middleware.AuditLog(d.Log, "training_create", "trainings"), trainingHandler.CreateTraining)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/recipients", notificationHandler.PreviewRecipients)
	notifications.Post("/", middleware.AuditLog(d.Log, "notification_send", "notifications"), notificationHandler.SendNotification)

	protected.Get("/dashboard", dashboardHandler.GetDashboard)
	protected.Get("/reports/summary", dashboardHandler.GetSummaryReport)
}
