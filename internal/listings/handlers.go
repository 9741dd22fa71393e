package listings

import (
	"encoding/json"
	"errors"

	"catalog-backend/internal/pkg/response"
	"catalog-backend/internal/properties"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *Service
}

// GET /api/v1/listings/ — { listings, total }
func (h *Handlers) GetListings(c *fiber.Ctx) error {
	filters, err := parseQueryFilters(c)
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}

	views, total, err := h.Service.QueryListings(c.Context(), filters)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFilter):
			return response.Error(c, err.Error(), 400, nil)
		case errors.Is(err, properties.ErrPropertyNotFound),
			errors.Is(err, properties.ErrUnsupportedKind):
			return response.Error(c, err.Error(), 400, nil)
		default:
			log.Error().Err(err).Msg("Listing query failed")
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}

	return c.JSON(fiber.Map{"listings": views, "total": total})
}

// PUT /api/v1/listings/ — { status, error }
func (h *Handlers) UpsertListings(c *fiber.Ctx) error {
	var body struct {
		Listings []ListingInput `json:"listings"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	// The batch result carries its own failure detail; HTTP 200 either way,
	// matching the upstream scraper's contract.
	return c.JSON(h.Service.UpsertListings(c.Context(), body.Listings))
}

func parseQueryFilters(c *fiber.Ctx) (QueryFilters, error) {
	filters := QueryFilters{
		ListingID:       c.Query("listing_id"),
		DatasetEntities: c.Query("dataset_entities"),
		Properties:      c.Query("properties"),
		Page:            c.QueryInt("page", 0),
	}

	if s := c.Query("scan_date_from"); s != "" {
		t, err := ParseScanDate(s)
		if err != nil {
			return filters, err
		}
		filters.ScanDateFrom = t
	}
	if s := c.Query("scan_date_to"); s != "" {
		t, err := ParseScanDate(s)
		if err != nil {
			return filters, err
		}
		filters.ScanDateTo = t
	}
	if s := c.Query("is_active"); s != "" {
		active, err := properties.ParseBoolLike(s)
		if err != nil {
			return filters, err
		}
		filters.IsActive = &active
	}
	for _, raw := range c.Context().QueryArgs().PeekMulti("image_hashes") {
		filters.ImageHashes = append(filters.ImageHashes, string(raw))
	}
	return filters, nil
}
