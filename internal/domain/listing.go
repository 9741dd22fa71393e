package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray stores a string slice as JSON text so the same column type works
// on Postgres and the sqlite test driver.
type StringArray []string

// Scan implements sql.Scanner for reading from DB (json column).
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported type for StringArray")
	}
}

// Value implements driver.Valuer for writing to DB.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	bs, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

// Int64Array stores an int64 slice as JSON text (see StringArray).
type Int64Array []int64

func (a *Int64Array) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported type for Int64Array")
	}
}

func (a Int64Array) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	bs, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

// Listing is a scraped listing. The listing_id is assigned by the scraper
// upstream, not by this service. DatasetEntityIDs holds the authoritative,
// ordered list of linked dataset entities and is fully recomputed on every
// upsert of the listing.
type Listing struct {
	ListingID        string      `gorm:"column:listing_id;primaryKey" json:"listing_id"`
	ScanDate         *time.Time  `gorm:"column:scan_date" json:"scan_date"`
	IsActive         bool        `gorm:"column:is_active;not null" json:"is_active"`
	ImageHashes      StringArray `gorm:"column:image_hashes;type:json" json:"image_hashes"`
	DatasetEntityIDs Int64Array  `gorm:"column:dataset_entity_ids;type:json" json:"dataset_entity_ids"`
}

func (Listing) TableName() string {
	return "listings"
}
