package institution

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/handlers"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/utils/paginate"
	"github.com/starbooks/monitoring-api/utils/response"
)

// InstitutionHandler handles institution endpoints
type InstitutionHandler struct {
	institutions *services.InstitutionService
	exports      *services.ExportService
	log          *zap.Logger
}

// NewInstitutionHandler creates a new institution handler
func NewInstitutionHandler(institutions *services.InstitutionService, exports *services.ExportService, log *zap.Logger) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, exports: exports, log: log}
}

// ListInstitutions handles GET /api/v1/institutions
func (h *InstitutionHandler) ListInstitutions(c *fiber.Ctx) error {
	size, page := handlers.PageParams(c)

	list, err := h.institutions.List(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("list institutions", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch institutions")
	}

	return response.Paginated(c, paginate.PageOf(list, size, page), nil)
}

// GetInstitution handles GET /api/v1/institutions/:id
func (h *InstitutionHandler) GetInstitution(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid institution ID")
	}

	inst, err := h.institutions.Get(c.UserContext(), id)
	if err != nil {
		return handlers.WriteError(c, err, "Institution")
	}
	return response.Success(c, inst)
}

// CreateInstitution handles POST /api/v1/institutions. Every failing field
// is reported at once with 422.
func (h *InstitutionHandler) CreateInstitution(c *fiber.Ctx) error {
	raw, err := handlers.DecodeRecord(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	inst, err := h.institutions.Create(c.UserContext(), raw)
	if err != nil {
		if !handlers.IsClientError(err) {
			h.log.Error("create institution", zap.Error(err))
		}
		return handlers.WriteError(c, err, "Institution")
	}
	return response.Created(c, inst)
}

// ValidateInstitution handles POST /api/v1/institutions/validate. Nothing is stored.
func (h *InstitutionHandler) ValidateInstitution(c *fiber.Ctx) error {
	raw, err := handlers.DecodeRecord(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	rec, err := h.institutions.Validate(raw)
	if err != nil {
		return handlers.WriteError(c, err, "Institution")
	}
	return response.SuccessWithMessage(c, "Record is valid", rec)
}

// ExportInstitutions handles GET /api/v1/institutions/export with the list filters
func (h *InstitutionHandler) ExportInstitutions(c *fiber.Ctx) error {
	data, filename, err := h.exports.ExportInstitutions(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("export institutions", zap.Error(err))
		return response.InternalServerError(c, "Failed to export institutions")
	}

	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}
