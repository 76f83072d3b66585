package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/utils/response"
)

const accessLogFormat = "${status} ${method} ${path} ${latency} ip=${ip} request_id=${locals:requestid}\n"

// SecurityConfig configures the middleware stack every request passes through
type SecurityConfig struct {
	// AllowedOrigins is a comma separated CORS list; empty means any origin
	AllowedOrigins    string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Log receives access log lines; nil discards them
	Log *zap.Logger
}

// SetupSecurity installs request ids, access logging, panic recovery,
// secure headers, CORS and the rate limiter on app
func SetupSecurity(app *fiber.App, config SecurityConfig) {
	app.Use(requestid.New())
	app.Use(accessLog(config.Log))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	// the API serves JSON and XLSX downloads only, never frames or scripts
	app.Use(helmet.New(helmet.Config{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
	}))

	app.Use(corsFor(config.AllowedOrigins))

	if config.RateLimitRequests > 0 {
		app.Use(rateLimit(config.RateLimitRequests, config.RateLimitWindow))
	}
}

func accessLog(log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return logger.New(logger.Config{
		Format: accessLogFormat,
		Output: zap.NewStdLog(log.Named("http")).Writer(),
	})
}

// corsFor allows credentials only for an explicit origin list; browsers
// reject credentials on a wildcard origin
func corsFor(allowed string) fiber.Handler {
	origins := strings.TrimSpace(allowed)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders:    "Content-Disposition,X-Request-ID",
		AllowCredentials: origins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	})
}

// rateLimit caps requests per client IP within window
func rateLimit(limit int, window time.Duration) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.TooManyRequests(c, "Too many requests, please slow down")
		},
	})
}
