package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/starbooks/monitoring-api/schema"
)

// LoadENV loads .env when GO_ENV is unset or development
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil {
			return err
		}
	}

	return nil
}

// Environment holds every setting the API reads from the process environment
type Environment struct {
	GO_ENV string
	PORT   int

	// Database
	STORAGE_DRIVER string
	DB_USER_NAME   string
	DB_PASSWORD    string
	DB_NAME        string
	DB_HOST        string
	DB_PORT        string
	DB_SSL_MODE    string

	// JWT
	JWT_SECRET         string
	JWT_ISSUER         string
	JWT_EXPIRY         time.Duration
	JWT_REFRESH_EXPIRY time.Duration

	// Redis
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       int

	// DigitalOcean Spaces
	DO_SPACES_KEY      string
	DO_SPACES_SECRET   string
	DO_SPACES_BUCKET   string
	DO_SPACES_REGION   string
	DO_SPACES_ENDPOINT string

	// Notification dispatch
	NOTIFY_CHANNEL     string
	SENDGRID_API_KEY   string
	NOTIFY_FROM_EMAIL  string
	NOTIFY_FROM_NAME   string
	NOTIFY_WEBHOOK_URL string
	NOTIFY_PG_CHANNEL  string

	// Domain
	INSTITUTION_TAXONOMY string
	INSTITUTION_TYPES    []string

	// Cron
	CRON_ENABLED          bool
	MOU_REMINDER_SCHEDULE string

	// Bootstrap admin, created at startup when the user table is empty
	ADMIN_USERNAME string
	ADMIN_PASSWORD string

	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	LOG_LEVEL           string
}

// IsProduction reports whether GO_ENV is production
func (e *Environment) IsProduction() bool {
	return e.GO_ENV == "production"
}

// InstitutionTypeList resolves the institution taxonomy. An explicit
// INSTITUTION_TYPES list wins over the named INSTITUTION_TAXONOMY preset.
func (e *Environment) InstitutionTypeList() ([]string, error) {
	if len(e.INSTITUTION_TYPES) > 0 {
		return e.INSTITUTION_TYPES, nil
	}
	types, ok := schema.Taxonomy(e.INSTITUTION_TAXONOMY)
	if !ok {
		return nil, fmt.Errorf("unknown INSTITUTION_TAXONOMY %q", e.INSTITUTION_TAXONOMY)
	}
	return types, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("GO_ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("JWT_ISSUER", "starbooks-monitoring")
	v.SetDefault("JWT_EXPIRY", 2*time.Hour)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7*24*time.Hour)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DO_SPACES_REGION", "sgp1")
	v.SetDefault("NOTIFY_CHANNEL", "log")
	v.SetDefault("NOTIFY_FROM_NAME", "STARBOOKS Monitoring")
	v.SetDefault("NOTIFY_PG_CHANNEL", "starbooks_notifications")
	v.SetDefault("INSTITUTION_TAXONOMY", "ownership")
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("MOU_REMINDER_SCHEDULE", "0 0 8 * * MON")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	return v
}

// Get reads the environment through viper, applying defaults
func Get() (*Environment, error) {
	v := newViper()

	return &Environment{
		GO_ENV: v.GetString("GO_ENV"),
		PORT:   v.GetInt("PORT"),

		STORAGE_DRIVER: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DB_USER_NAME:   v.GetString("DB_USER_NAME"),
		DB_PASSWORD:    v.GetString("DB_PASSWORD"),
		DB_NAME:        v.GetString("DB_NAME"),
		DB_HOST:        v.GetString("DB_HOST"),
		DB_PORT:        v.GetString("DB_PORT"),
		DB_SSL_MODE:    v.GetString("DB_SSL_MODE"),

		JWT_SECRET:         v.GetString("JWT_SECRET"),
		JWT_ISSUER:         v.GetString("JWT_ISSUER"),
		JWT_EXPIRY:         v.GetDuration("JWT_EXPIRY"),
		JWT_REFRESH_EXPIRY: v.GetDuration("JWT_REFRESH_EXPIRY"),

		REDIS_URL:      v.GetString("REDIS_URL"),
		REDIS_PASSWORD: v.GetString("REDIS_PASSWORD"),
		REDIS_DB:       v.GetInt("REDIS_DB"),

		DO_SPACES_KEY:      v.GetString("DO_SPACES_KEY"),
		DO_SPACES_SECRET:   v.GetString("DO_SPACES_SECRET"),
		DO_SPACES_BUCKET:   v.GetString("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:   v.GetString("DO_SPACES_REGION"),
		DO_SPACES_ENDPOINT: v.GetString("DO_SPACES_ENDPOINT"),

		NOTIFY_CHANNEL:     strings.ToLower(v.GetString("NOTIFY_CHANNEL")),
		SENDGRID_API_KEY:   v.GetString("SENDGRID_API_KEY"),
		NOTIFY_FROM_EMAIL:  v.GetString("NOTIFY_FROM_EMAIL"),
		NOTIFY_FROM_NAME:   v.GetString("NOTIFY_FROM_NAME"),
		NOTIFY_WEBHOOK_URL: v.GetString("NOTIFY_WEBHOOK_URL"),
		NOTIFY_PG_CHANNEL:  v.GetString("NOTIFY_PG_CHANNEL"),

		INSTITUTION_TAXONOMY: v.GetString("INSTITUTION_TAXONOMY"),
		INSTITUTION_TYPES:    splitList(v.GetString("INSTITUTION_TYPES")),

		CRON_ENABLED:          v.GetBool("CRON_ENABLED"),
		MOU_REMINDER_SCHEDULE: v.GetString("MOU_REMINDER_SCHEDULE"),

		ADMIN_USERNAME: v.GetString("ADMIN_USERNAME"),
		ADMIN_PASSWORD: v.GetString("ADMIN_PASSWORD"),

		ALLOWED_ORIGINS:     v.GetString("ALLOWED_ORIGINS"),
		RATE_LIMIT_REQUESTS: v.GetInt("RATE_LIMIT_REQUESTS"),
		LOG_LEVEL:           strings.ToLower(v.GetString("LOG_LEVEL")),
	}, nil
}

// splitList parses a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
