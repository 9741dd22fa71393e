package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"catalog-backend/internal/domain"
	"catalog-backend/internal/entities"
	"catalog-backend/internal/properties"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageSize is the fixed query page size.
const PageSize = 100

type Service struct {
	DB       *gorm.DB
	Registry *properties.Registry
}

// QueryFilters carries one query request. DatasetEntities and Properties are
// raw JSON documents as received on the wire; the service validates them
// before touching storage.
type QueryFilters struct {
	ListingID       string
	ScanDateFrom    *time.Time
	ScanDateTo      *time.Time
	IsActive        *bool
	ImageHashes     []string
	DatasetEntities string
	Properties      string
	Page            int
}

type PropertyView struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type EntityView struct {
	Name string         `json:"name"`
	Data datatypes.JSON `json:"data"`
}

type ListingView struct {
	ListingID   string         `json:"listing_id"`
	ScanDate    string         `json:"scan_date"`
	IsActive    bool           `json:"is_active"`
	ImageHashes []string       `json:"image_hashes"`
	Properties  []PropertyView `json:"properties"`
	Entities    []EntityView   `json:"entities"`
}

// QueryListings resolves the full matching listing set, then projects one
// page of it. The returned total is the distinct match count and does not
// depend on the requested page.
func (s *Service) QueryListings(ctx context.Context, f QueryFilters) ([]ListingView, int, error) {
	var required map[string]interface{}
	if f.DatasetEntities != "" {
		if err := json.Unmarshal([]byte(f.DatasetEntities), &required); err != nil {
			return nil, 0, fmt.Errorf("%w: dataset_entities is not valid JSON", ErrInvalidFilter)
		}
	}

	// One transaction for the whole read so every stage sees the same
	// snapshot; nothing is written, so it is released by rollback.
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}
	defer tx.Rollback()

	hasPropFilters, propMatchIDs, err := s.propertyFilteredIDs(ctx, tx, f.Properties, f.ListingID)
	if err != nil {
		return nil, 0, err
	}
	// Active property filters that matched nothing must not fall through to
	// an unfiltered query.
	if hasPropFilters && len(propMatchIDs) == 0 {
		return []ListingView{}, 0, nil
	}

	q := tx.Model(&domain.Listing{})
	if f.ListingID != "" {
		q = q.Where("listing_id = ?", f.ListingID)
	}
	if f.ScanDateFrom != nil {
		q = q.Where("scan_date >= ?", *f.ScanDateFrom)
	}
	if f.ScanDateTo != nil {
		q = q.Where("scan_date <= ?", *f.ScanDateTo)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if hasPropFilters {
		q = q.Where("listing_id IN ?", propMatchIDs)
	}

	var candidates []domain.Listing
	if err := q.Order("listing_id").Find(&candidates).Error; err != nil {
		return nil, 0, err
	}

	entityByID, err := fetchEntities(tx, candidates)
	if err != nil {
		return nil, 0, err
	}

	hashFilter := toSet(f.ImageHashes)
	matched := candidates[:0]
	for _, l := range candidates {
		if !hasLinkedEntity(l, entityByID) {
			continue
		}
		if required != nil && !matchesContainment(l, entityByID, required) {
			continue
		}
		if len(hashFilter) > 0 && !overlaps(l.ImageHashes, hashFilter) {
			continue
		}
		matched = append(matched, l)
	}

	total := len(matched)
	page := pageWindow(matched, f.Page)

	views, err := project(tx, page, entityByID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// propertyFilteredIDs partitions the raw property filter document by each
// property's resolved kind, applies per-kind conjunction filtering and unions
// the resulting id sets across kinds. All lookups run on the enclosing
// query transaction.
func (s *Service) propertyFilteredIDs(ctx context.Context, tx *gorm.DB, raw, listingScope string) (bool, []string, error) {
	if raw == "" {
		return false, nil, nil
	}
	var filters map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return false, nil, fmt.Errorf("%w: properties is not a valid JSON object", ErrInvalidFilter)
	}
	if len(filters) == 0 {
		return false, nil, nil
	}

	byKind := make(map[domain.PropertyKind][]properties.Predicate)
	for idStr, expected := range filters {
		propertyID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return false, nil, fmt.Errorf("%w: property id %q is not an integer", ErrInvalidFilter, idStr)
		}
		kind, err := s.Registry.KindByID(ctx, tx, propertyID)
		if err != nil {
			return false, nil, err
		}
		byKind[kind] = append(byKind[kind], properties.Predicate{PropertyID: propertyID, Expected: expected})
	}

	seen := make(map[string]struct{})
	var ids []string
	for kind, preds := range byKind {
		got, err := properties.FilterListingIDs(tx, kind, preds, listingScope)
		if err != nil {
			return false, nil, err
		}
		for _, id := range got {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return true, ids, nil
}

func fetchEntities(tx *gorm.DB, listings []domain.Listing) (map[int64]domain.DatasetEntity, error) {
	idSet := make(map[int64]struct{})
	for _, l := range listings {
		for _, id := range l.DatasetEntityIDs {
			idSet[id] = struct{}{}
		}
	}
	result := make(map[int64]domain.DatasetEntity, len(idSet))
	if len(idSet) == 0 {
		return result, nil
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	var rows []domain.DatasetEntity
	if err := tx.Where("entity_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, e := range rows {
		result[e.EntityID] = e
	}
	return result, nil
}

// hasLinkedEntity is the base structural requirement: a listing whose id list
// resolves to no stored entity is excluded from all results. An entity with an
// empty name still counts; only missing rows disqualify.
func hasLinkedEntity(l domain.Listing, entityByID map[int64]domain.DatasetEntity) bool {
	for _, id := range l.DatasetEntityIDs {
		if _, ok := entityByID[id]; ok {
			return true
		}
	}
	return false
}

func matchesContainment(l domain.Listing, entityByID map[int64]domain.DatasetEntity, required map[string]interface{}) bool {
	if len(l.DatasetEntityIDs) == 0 {
		return false
	}
	for _, id := range l.DatasetEntityIDs {
		e, ok := entityByID[id]
		if !ok {
			continue
		}
		if entities.DataContainsSubset(e.Data, required) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func overlaps(hashes domain.StringArray, filter map[string]struct{}) bool {
	for _, h := range hashes {
		if _, ok := filter[h]; ok {
			return true
		}
	}
	return false
}

func pageWindow(matched []domain.Listing, page int) []domain.Listing {
	offset := 0
	if page > 1 {
		offset = (page - 1) * PageSize
	}
	if offset >= len(matched) {
		return nil
	}
	end := offset + PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}

// project batch-fetches property values and entities for exactly the page's
// listings (two queries per kind table, no per-listing lookups).
func project(tx *gorm.DB, page []domain.Listing, entityByID map[int64]domain.DatasetEntity) ([]ListingView, error) {
	views := make([]ListingView, 0, len(page))
	if len(page) == 0 {
		return views, nil
	}
	pageIDs := make([]string, 0, len(page))
	for _, l := range page {
		pageIDs = append(pageIDs, l.ListingID)
	}

	propsByListing := make(map[string][]PropertyView)

	var strRows []struct {
		ListingID string
		Name      string
		Value     string
	}
	err := tx.Table("string_property_values").
		Select("string_property_values.listing_id AS listing_id, properties.name AS name, string_property_values.value AS value").
		Joins("JOIN properties ON properties.property_id = string_property_values.property_id").
		Where("string_property_values.listing_id IN ?", pageIDs).
		Scan(&strRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range strRows {
		propsByListing[r.ListingID] = append(propsByListing[r.ListingID], PropertyView{
			Name:  r.Name,
			Type:  domain.KindString.Tag(),
			Value: r.Value,
		})
	}

	var boolRows []struct {
		ListingID string
		Name      string
		Value     bool
	}
	err = tx.Table("boolean_property_values").
		Select("boolean_property_values.listing_id AS listing_id, properties.name AS name, boolean_property_values.value AS value").
		Joins("JOIN properties ON properties.property_id = boolean_property_values.property_id").
		Where("boolean_property_values.listing_id IN ?", pageIDs).
		Scan(&boolRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range boolRows {
		propsByListing[r.ListingID] = append(propsByListing[r.ListingID], PropertyView{
			Name:  r.Name,
			Type:  domain.KindBoolean.Tag(),
			Value: strconv.FormatBool(r.Value),
		})
	}

	for _, l := range page {
		scanDate := ""
		if l.ScanDate != nil {
			scanDate = l.ScanDate.Format("2006-01-02 15:04:05")
		}
		props := propsByListing[l.ListingID]
		if props == nil {
			props = []PropertyView{}
		}
		entityViews := make([]EntityView, 0, len(l.DatasetEntityIDs))
		for _, id := range l.DatasetEntityIDs {
			if e, ok := entityByID[id]; ok {
				entityViews = append(entityViews, EntityView{Name: e.Name, Data: e.Data})
			}
		}
		views = append(views, ListingView{
			ListingID:   l.ListingID,
			ScanDate:    scanDate,
			IsActive:    l.IsActive,
			ImageHashes: l.ImageHashes,
			Properties:  props,
			Entities:    entityViews,
		})
	}
	return views, nil
}
