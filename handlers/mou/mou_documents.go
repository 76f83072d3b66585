package mou

import (
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/handlers"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/services/filestore"
	"github.com/starbooks/monitoring-api/utils/paginate"
	"github.com/starbooks/monitoring-api/utils/pdfvalidation"
	"github.com/starbooks/monitoring-api/utils/response"
)

const (
	defaultURLExpiry = 15 * time.Minute
	maxURLExpiry     = 24 * time.Hour
)

// MOUHandler handles MOU uploads, downloads and the MOU listing
type MOUHandler struct {
	mou *services.MOUService
	log *zap.Logger
}

// NewMOUHandler creates a new MOU handler
func NewMOUHandler(mou *services.MOUService, log *zap.Logger) *MOUHandler {
	return &MOUHandler{mou: mou, log: log}
}

// ListMOUDocuments handles GET /api/v1/mou-documents. status filters on
// Available or Missing; meta carries the counts of the filtered set.
func (h *MOUHandler) ListMOUDocuments(c *fiber.Ctx) error {
	size, page := handlers.PageParams(c)

	docs, counts, err := h.mou.List(c.UserContext(), handlers.FilterSpec(c))
	if err != nil {
		h.log.Error("list MOU documents", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch MOU documents")
	}

	return response.Paginated(c, paginate.PageOf(docs, size, page), fiber.Map{"counts": counts})
}

// UploadMOU handles POST /api/v1/institutions/:id/mou (multipart field "file")
func (h *MOUHandler) UploadMOU(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid institution ID")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "A PDF file is required in the 'file' field")
	}

	content, result, err := pdfvalidation.ReadPDFUpload(file, pdfvalidation.MOULimits)
	if err != nil {
		h.log.Error("read MOU upload", zap.Error(err))
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	if !result.Valid {
		return response.ErrorWithDetails(c, fiber.StatusUnprocessableEntity,
			"Invalid MOU document", "INVALID_FILE", result.Error)
	}

	inst, err := h.mou.Upload(c.UserContext(), id, filepath.Base(file.Filename), content)
	if err != nil {
		if !handlers.IsClientError(err) {
			h.log.Error("upload MOU", zap.Uint("institution_id", id), zap.Error(err))
		}
		return handlers.WriteError(c, err, "Institution")
	}

	return response.SuccessWithMessage(c, "MOU uploaded", fiber.Map{
		"institution": inst,
		"pageCount":   result.PageCount,
	})
}

// GetMOUDownloadURL handles GET /api/v1/institutions/:id/mou. expires is in
// seconds and capped at one day.
func (h *MOUHandler) GetMOUDownloadURL(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid institution ID")
	}

	ttl := defaultURLExpiry
	if v := c.Query("expires"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return response.BadRequest(c, "expires must be a positive number of seconds")
		}
		ttl = min(time.Duration(secs)*time.Second, maxURLExpiry)
	}

	url, err := h.mou.DownloadURL(c.UserContext(), id, ttl)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoMOU), errors.Is(err, filestore.ErrObjectNotFound):
			return response.NotFound(c, "No MOU document uploaded for this institution")
		}
		return handlers.WriteError(c, err, "Institution")
	}

	return response.Success(c, fiber.Map{
		"url":       url,
		"expiresIn": int(ttl.Seconds()),
	})
}
