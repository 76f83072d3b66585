package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/utils/response"
)

// bodyLimit leaves room for a maximum size MOU scan plus multipart overhead
const bodyLimit = 12 * 1024 * 1024

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *zap.Logger
}

func NewAPIServer(listenAddress string, log *zap.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "STARBOOKS Monitoring API",
			BodyLimit:    bodyLimit,
			ErrorHandler: errorHandler(log),
		}),
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.log.Info("starting API server", zap.String("address", s.listenAddress))

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler renders errors that escaped a handler in the standard envelope
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code == fiber.StatusNotFound {
				return response.NotFound(c, "Route not found")
			}
			return response.Error(c, fe.Code, fe.Message, "HTTP_ERROR")
		}
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return response.InternalServerError(c, "")
	}
}
