package properties

import (
	"errors"
	"fmt"

	"catalog-backend/internal/domain"

	"gorm.io/gorm"
)

// Predicate is one (property id, expected value) equality constraint. All
// predicates handed to a store must hold simultaneously for a listing to
// match. Expected carries the raw JSON-decoded filter value; each store
// coerces it to its column type.
type Predicate struct {
	PropertyID int64
	Expected   interface{}
}

// valueStore is the closed per-kind dispatch over the two value tables.
type valueStore interface {
	Upsert(tx *gorm.DB, listingID string, propertyID int64, raw string) error
	FilterListingIDs(db *gorm.DB, preds []Predicate, listingScope string) ([]string, error)
}

func storeFor(kind domain.PropertyKind) (valueStore, error) {
	switch kind {
	case domain.KindString:
		return stringStore{}, nil
	case domain.KindBoolean:
		return booleanStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

// UpsertValue writes raw as the value of (listingID, propertyID) in the table
// for kind, overwriting any existing value in place.
func UpsertValue(tx *gorm.DB, kind domain.PropertyKind, listingID string, propertyID int64, raw string) error {
	store, err := storeFor(kind)
	if err != nil {
		return err
	}
	return store.Upsert(tx, listingID, propertyID, raw)
}

// FilterListingIDs returns the listing ids whose values in the kind's table
// satisfy every predicate, deduplicated by GROUP BY on listing id. A non-empty
// listingScope restricts the search to that single listing.
func FilterListingIDs(db *gorm.DB, kind domain.PropertyKind, preds []Predicate, listingScope string) ([]string, error) {
	store, err := storeFor(kind)
	if err != nil {
		return nil, err
	}
	return store.FilterListingIDs(db, preds, listingScope)
}

type stringStore struct{}

func (stringStore) Upsert(tx *gorm.DB, listingID string, propertyID int64, raw string) error {
	var existing domain.StringPropertyValue
	err := tx.Where("listing_id = ? AND property_id = ?", listingID, propertyID).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Update("value", raw).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&domain.StringPropertyValue{
		ListingID:  listingID,
		PropertyID: propertyID,
		Value:      raw,
	}).Error
}

func (stringStore) FilterListingIDs(db *gorm.DB, preds []Predicate, listingScope string) ([]string, error) {
	q := db.Model(&domain.StringPropertyValue{}).Select("listing_id")
	for _, p := range preds {
		q = q.Where("property_id = ? AND value = ?", p.PropertyID, fmt.Sprintf("%v", p.Expected))
	}
	if listingScope != "" {
		q = q.Where("listing_id = ?", listingScope)
	}
	var ids []string
	if err := q.Group("listing_id").Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

type booleanStore struct{}

func (booleanStore) Upsert(tx *gorm.DB, listingID string, propertyID int64, raw string) error {
	val, err := ParseBoolLike(raw)
	if err != nil {
		return fmt.Errorf("boolean property value: %w", err)
	}
	var existing domain.BooleanPropertyValue
	findErr := tx.Where("listing_id = ? AND property_id = ?", listingID, propertyID).First(&existing).Error
	if findErr == nil {
		return tx.Model(&existing).Update("value", val).Error
	}
	if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return findErr
	}
	return tx.Create(&domain.BooleanPropertyValue{
		ListingID:  listingID,
		PropertyID: propertyID,
		Value:      val,
	}).Error
}

func (booleanStore) FilterListingIDs(db *gorm.DB, preds []Predicate, listingScope string) ([]string, error) {
	q := db.Model(&domain.BooleanPropertyValue{}).Select("listing_id")
	for _, p := range preds {
		expected, ok := coerceBool(p.Expected)
		if !ok {
			// Not a recognized boolean form: nothing can match.
			return nil, nil
		}
		q = q.Where("property_id = ? AND value = ?", p.PropertyID, expected)
	}
	if listingScope != "" {
		q = q.Where("listing_id = ?", listingScope)
	}
	var ids []string
	if err := q.Group("listing_id").Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func coerceBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := ParseBoolLike(x)
		return b, err == nil
	default:
		b, err := ParseBoolLike(fmt.Sprintf("%v", x))
		return b, err == nil
	}
}
