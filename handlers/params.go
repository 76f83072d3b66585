package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/utils/paginate"
	"github.com/starbooks/monitoring-api/utils/query"
)

// ErrInvalidID is returned for a non-numeric or zero :id parameter
var ErrInvalidID = errors.New("invalid id")

// PageParams reads page and limit (or page_size), clamped to valid bounds
func PageParams(c *fiber.Ctx) (pageSize, pageNumber int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", c.Query("page_size", strconv.Itoa(paginate.DefaultPageSize))))
	return paginate.Normalize(limit, page)
}

// FilterSpec reads the list filters from the query string
func FilterSpec(c *fiber.Ctx) query.FilterSpec {
	return query.SpecFromParams(func(key string) string { return c.Query(key) })
}

// ParseID reads the :id route parameter
func ParseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// DecodeRecord decodes a JSON object body into raw field values. Numbers
// stay json.Number so integer checks see the literal the client sent.
func DecodeRecord(c *fiber.Ctx) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return raw, nil
}
