package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services/dispatch"
	"github.com/starbooks/monitoring-api/utils/response"
)

// WriteError maps service and store errors onto the response envelope.
// what names the resource in 404/409/500 messages.
func WriteError(c *fiber.Ctx, err error, what string) error {
	var fieldErrs schema.ErrorList
	switch {
	case errors.As(err, &fieldErrs):
		return response.RecordValidationError(c, fieldErrs)
	case errors.Is(err, database.ErrNotFound):
		return response.NotFound(c, what+" not found")
	case errors.Is(err, database.ErrDuplicate):
		return response.Conflict(c, what+" already exists")
	case errors.Is(err, dispatch.ErrDispatchFailed):
		return response.BadGateway(c, "Notification could not be delivered")
	}
	return response.InternalServerError(c, "Failed to process "+what)
}

// IsClientError reports whether err maps to a 4xx response
func IsClientError(err error) bool {
	var fieldErrs schema.ErrorList
	return errors.As(err, &fieldErrs) ||
		errors.Is(err, database.ErrNotFound) ||
		errors.Is(err, database.ErrDuplicate)
}
