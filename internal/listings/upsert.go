package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-backend/internal/domain"
	"catalog-backend/internal/entities"
	"catalog-backend/internal/properties"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PropertyInput is one attribute write: name, declared kind and the raw
// lexical value.
type PropertyInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ListingInput is one listing in an upsert batch. The request is the source
// of truth: structural fields are overwritten and the linked-entity list is
// fully recomputed from Entities.
type ListingInput struct {
	ListingID   string                 `json:"listing_id"`
	ScanDate    string                 `json:"scan_date"`
	IsActive    bool                   `json:"is_active"`
	ImageHashes []string               `json:"image_hashes"`
	Properties  []PropertyInput        `json:"properties"`
	Entities    []entities.EntityInput `json:"entities"`
}

type UpsertError struct {
	ListingID string `json:"listing_id"`
	Message   string `json:"error"`
}

type UpsertResult struct {
	Status string       `json:"status"`
	Error  *UpsertError `json:"error"`
}

func failedResult(listingID, message string) UpsertResult {
	return UpsertResult{Status: StatusFailed, Error: &UpsertError{ListingID: listingID, Message: message}}
}

// UpsertListings applies the batch under a single transaction, processing
// items strictly in input order — later items may depend on property and
// entity rows created by earlier ones. The first error rolls back the entire
// batch and the result names the failing listing.
func (s *Service) UpsertListings(ctx context.Context, inputs []ListingInput) (result UpsertResult) {
	log.Info().Int("listings", len(inputs)).Msg("Upserting listings batch")

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return failedResult("", tx.Error.Error())
	}
	current := ""
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			result = failedResult(current, fmt.Sprintf("panic: %v", r))
		}
	}()

	for _, in := range inputs {
		current = in.ListingID
		if err := s.upsertOne(ctx, tx, in); err != nil {
			tx.Rollback()
			log.Error().Str("listing_id", current).Err(err).Msg("Batch upsert failed")
			return failedResult(current, err.Error())
		}
	}

	if err := tx.Commit().Error; err != nil {
		// A commit failure is a batch-level fault, not attributable to the
		// item that happened to be processed last.
		log.Error().Err(err).Msg("Batch commit failed")
		return failedResult("", err.Error())
	}
	return UpsertResult{Status: StatusSuccess}
}

func (s *Service) upsertOne(ctx context.Context, tx *gorm.DB, in ListingInput) error {
	scanDate, err := ParseScanDate(in.ScanDate)
	if err != nil {
		return err
	}

	if err := upsertListingRow(tx, in, scanDate); err != nil {
		return err
	}

	for _, p := range in.Properties {
		kind, err := domain.ParseKind(p.Type)
		if err != nil {
			return fmt.Errorf("property %q: %w", p.Name, properties.ErrUnsupportedKind)
		}
		prop, created, err := s.Registry.GetOrCreate(ctx, tx, p.Name, kind)
		if err != nil {
			return err
		}
		if !created && prop.Type != kind {
			return fmt.Errorf("property %q is %s but the write declared %s: %w",
				p.Name, prop.Type, kind, properties.ErrKindMismatch)
		}
		if err := properties.UpsertValue(tx, prop.Type, in.ListingID, prop.PropertyID, p.Value); err != nil {
			return fmt.Errorf("property %q: %w", p.Name, err)
		}
	}

	entityIDs, err := entities.LinkAll(tx, in.Entities)
	if err != nil {
		return err
	}
	return tx.Model(&domain.Listing{}).
		Where("listing_id = ?", in.ListingID).
		Update("dataset_entity_ids", domain.Int64Array(entityIDs)).Error
}

// upsertListingRow writes the structural fields. The entity id list is
// provisionally cleared here and repopulated once the item's entities have
// been linked.
func upsertListingRow(tx *gorm.DB, in ListingInput, scanDate *time.Time) error {
	var existing domain.Listing
	err := tx.Where("listing_id = ?", in.ListingID).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Updates(map[string]interface{}{
			"scan_date":          scanDate,
			"is_active":          in.IsActive,
			"image_hashes":       domain.StringArray(in.ImageHashes),
			"dataset_entity_ids": domain.Int64Array{},
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&domain.Listing{
		ListingID:        in.ListingID,
		ScanDate:         scanDate,
		IsActive:         in.IsActive,
		ImageHashes:      domain.StringArray(in.ImageHashes),
		DatasetEntityIDs: domain.Int64Array{},
	}).Error
}

var scanDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseScanDate accepts the timestamp spellings produced by the scraper
// pipeline. An empty string is a null scan date.
func ParseScanDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range scanDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized scan_date %q", s)
}
