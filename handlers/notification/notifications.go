package notification

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/handlers"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/utils/middleware"
	"github.com/starbooks/monitoring-api/utils/paginate"
	"github.com/starbooks/monitoring-api/utils/response"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
	log                 *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		log:                 log,
	}
}

// GetNotifications handles GET /api/v1/notifications
// Returns the sent history, latest first
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	size, page := handlers.PageParams(c)

	list, err := h.notificationService.List(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("list notifications", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	return response.Paginated(c, paginate.PageOf(list, size, page), nil)
}

// SendNotification handles POST /api/v1/notifications
// Validates, dispatches and records the notification; 502 when delivery fails
func (h *NotificationHandler) SendNotification(c *fiber.Ctx) error {
	raw, err := handlers.DecodeRecord(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	sentBy, _ := middleware.GetUsername(c)
	n, err := h.notificationService.Send(c.UserContext(), raw, sentBy)
	if err != nil {
		if !handlers.IsClientError(err) {
			h.log.Error("send notification", zap.Error(err))
		}
		return handlers.WriteError(c, err, "Notification")
	}
	return response.Created(c, n)
}

// PreviewRecipients handles GET /api/v1/notifications/recipients?recipients=<selector>
func (h *NotificationHandler) PreviewRecipients(c *fiber.Ctx) error {
	selector := c.Query("recipients")
	if selector == "" {
		return response.BadRequest(c, "recipients is required")
	}

	list, err := h.notificationService.ResolveRecipients(c.UserContext(), selector)
	if err != nil {
		return response.InternalServerError(c, "Failed to resolve recipients")
	}

	names := make([]fiber.Map, 0, len(list))
	for _, inst := range list {
		names = append(names, fiber.Map{
			"institutionId":   inst.ID,
			"institutionName": inst.InstitutionName,
			"province":        inst.Province,
			"email":           inst.Email,
		})
	}
	return response.Success(c, fiber.Map{"count": len(names), "recipients": names})
}
