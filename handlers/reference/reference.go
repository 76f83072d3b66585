package reference

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/utils/response"
)

// ReferenceHandler exposes the lists and schemas forms are built from
type ReferenceHandler struct {
	registry *schema.Registry
}

func NewReferenceHandler(registry *schema.Registry) *ReferenceHandler {
	return &ReferenceHandler{registry: registry}
}

// GetProvinces handles GET /api/v1/reference/provinces
func (h *ReferenceHandler) GetProvinces(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{
		"regions":   schema.Regions,
		"provinces": h.registry.Provinces(),
	})
}

// GetOptions handles GET /api/v1/reference/options
func (h *ReferenceHandler) GetOptions(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{
		"institutionTypes":  h.registry.InstitutionTypes(),
		"unitStatuses":      schema.UnitStatuses,
		"trainingTypes":     schema.TrainingTypes,
		"trainingModes":     schema.TrainingModes,
		"notificationTypes": schema.NotificationTypes,
		"taxonomies": fiber.Map{
			schema.TaxonomyOwnership: schema.OwnershipTypes,
			schema.TaxonomyLevel:     schema.LevelTypes,
		},
	})
}

// GetSchema handles GET /api/v1/reference/schema/:kind
func (h *ReferenceHandler) GetSchema(c *fiber.Ctx) error {
	kind := schema.EntityKind(c.Params("kind"))
	fields := h.registry.Describe(kind)
	if fields == nil {
		return response.NotFound(c, "Unknown entity kind")
	}
	return response.Success(c, fiber.Map{"kind": kind, "fields": fields})
}
