package training

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/handlers"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/utils/paginate"
	"github.com/starbooks/monitoring-api/utils/response"
)

// TrainingHandler handles training session endpoints
type TrainingHandler struct {
	trainings *services.TrainingService
	log       *zap.Logger
}

func NewTrainingHandler(trainings *services.TrainingService, log *zap.Logger) *TrainingHandler {
	return &TrainingHandler{trainings: trainings, log: log}
}

// ListTrainings handles GET /api/v1/trainings. type filters on the training
// type and status on the mode; meta sums participants of the filtered set.
func (h *TrainingHandler) ListTrainings(c *fiber.Ctx) error {
	size, page := handlers.PageParams(c)

	list, totals, err := h.trainings.List(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("list trainings", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch trainings")
	}

	return response.Paginated(c, paginate.PageOf(list, size, page), fiber.Map{"participants": totals})
}

// CreateTraining handles POST /api/v1/trainings
func (h *TrainingHandler) CreateTraining(c *fiber.Ctx) error {
	raw, err := handlers.DecodeRecord(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	t, err := h.trainings.Create(c.UserContext(), raw)
	if err != nil {
		if !handlers.IsClientError(err) {
			h.log.Error("create training", zap.Error(err))
		}
		return handlers.WriteError(c, err, "Training")
	}
	return response.Created(c, t)
}
