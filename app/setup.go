package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/api"
	"github.com/starbooks/monitoring-api/config"
	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/router"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/services/cron"
	"github.com/starbooks/monitoring-api/services/dispatch"
	"github.com/starbooks/monitoring-api/services/filestore"
	"github.com/starbooks/monitoring-api/utils"
	"github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/cache"
)

// NewRegistry builds the record schema registry from the configured taxonomy
func NewRegistry(env *config.Environment) (*schema.Registry, error) {
	types, err := env.InstitutionTypeList()
	if err != nil {
		return nil, err
	}
	return schema.NewRegistry(schema.Options{InstitutionTypes: types}), nil
}

// OpenStore connects the storage selected by STORAGE_DRIVER and migrates it
func OpenStore(env *config.Environment, log *zap.Logger) (database.Storage, error) {
	var store database.Storage
	switch env.STORAGE_DRIVER {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		store = database.NewMemoryStore()
	case "", "postgres":
		gormStore, err := database.StartGORM(env, log)
		if err != nil {
			return nil, fmt.Errorf("check whether PostgreSQL is running: %w", err)
		}
		store = gormStore
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", env.STORAGE_DRIVER)
	}

	if err := store.Init(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}
	return store, nil
}

// OpenCache connects Redis when REDIS_URL is set and falls back to an
// in-process cache otherwise
func OpenCache(env *config.Environment, log *zap.Logger) cache.Cache {
	if env.REDIS_URL == "" {
		log.Info("REDIS_URL not set, using in-process cache")
		return cache.NewMemoryCache()
	}
	redisCache, err := cache.NewRedisCache(env.REDIS_URL, env.REDIS_PASSWORD, env.REDIS_DB)
	if err != nil {
		log.Warn("failed to connect to Redis, using in-process cache", zap.Error(err))
		return cache.NewMemoryCache()
	}
	return redisCache
}

// OpenFileStore returns Spaces when configured and an in-process store otherwise
func OpenFileStore(env *config.Environment, log *zap.Logger) (filestore.FileStore, error) {
	cfg := filestore.SpacesConfig{
		AccessKey: env.DO_SPACES_KEY,
		SecretKey: env.DO_SPACES_SECRET,
		Bucket:    env.DO_SPACES_BUCKET,
		Region:    env.DO_SPACES_REGION,
		Endpoint:  env.DO_SPACES_ENDPOINT,
	}
	if !cfg.IsConfigured() {
		if env.IsProduction() {
			return nil, errors.New("DigitalOcean Spaces must be configured in production")
		}
		log.Warn("Spaces not configured, MOU files are kept in memory")
		return filestore.NewMemoryStore(), nil
	}
	return filestore.NewSpacesStore(cfg)
}

// OpenDispatcher builds the notification dispatcher. The returned *sql.DB is
// non-nil only for the postgres channel and must be closed by the caller.
func OpenDispatcher(env *config.Environment, log *zap.Logger) (dispatch.Dispatcher, *sql.DB, error) {
	cfg := dispatch.Config{
		Channel:     env.NOTIFY_CHANNEL,
		SendGridKey: env.SENDGRID_API_KEY,
		FromName:    env.NOTIFY_FROM_NAME,
		FromEmail:   env.NOTIFY_FROM_EMAIL,
		WebhookURL:  env.NOTIFY_WEBHOOK_URL,
		PGChannel:   env.NOTIFY_PG_CHANNEL,
	}

	var sqlDB *sql.DB
	if env.NOTIFY_CHANNEL == dispatch.ChannelPostgres {
		db, err := database.OpenSQL(env)
		if err != nil {
			return nil, nil, err
		}
		sqlDB = db
		cfg.DB = db
	}

	d, err := dispatch.New(cfg, log)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, nil, err
	}
	log.Info("notification dispatcher ready", zap.String("channel", d.Channel()))
	return d, sqlDB, nil
}

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil && !os.IsNotExist(err) {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	log, err := utils.NewLogger(env.GO_ENV, env.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if env.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	registry, err := NewRegistry(env)
	if err != nil {
		return err
	}

	store, err := OpenStore(env, log)
	if err != nil {
		return err
	}
	defer store.Close()

	appCache := OpenCache(env, log)
	defer appCache.Close()

	files, err := OpenFileStore(env, log)
	if err != nil {
		return err
	}

	dispatcher, notifyDB, err := OpenDispatcher(env, log)
	if err != nil {
		return err
	}
	if notifyDB != nil {
		defer notifyDB.Close()
	}

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.NewSeeder(store, log).SeedAdminUser(bootstrapCtx, env.ADMIN_USERNAME, env.ADMIN_PASSWORD)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin user: %w", err)
	}

	notifications := services.NewNotificationService(store, registry, dispatcher, log)

	deps := router.Deps{
		Store:    store,
		Cache:    appCache,
		Registry: registry,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret:        env.JWT_SECRET,
			Expiry:        env.JWT_EXPIRY,
			RefreshExpiry: env.JWT_REFRESH_EXPIRY,
			Issuer:        env.JWT_ISSUER,
		}),
		Log: log,

		Institutions:  services.NewInstitutionService(store, registry, appCache, log),
		MOU:           services.NewMOUService(store, files, appCache, log),
		Trainings:     services.NewTrainingService(store, registry, appCache, log),
		Notifications: notifications,
		Dashboards:    services.NewDashboardService(store, appCache, log),
		Reports:       services.NewReportService(store, appCache, log),
		Exports:       services.NewExportService(store, log),

		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   time.Minute,
	}

	// Cron jobs are optional; a failed start is logged, not fatal
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		var purger cron.Purger
		if p, ok := appCache.(cron.Purger); ok {
			purger = p
		}
		cronManager = cron.NewCronManager(cron.Config{MOUReminderSchedule: env.MOU_REMINDER_SCHEDULE}, notifications, purger, log)
		if err := cronManager.Start(); err != nil {
			log.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), log)
	router.SetupRoutes(server.GetEngine(), deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	return server.Run()
}
