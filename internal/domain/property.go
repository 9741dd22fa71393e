package domain

import (
	"fmt"
	"strings"
)

// PropertyKind is the value type of a property. Fixed at creation; a property
// never changes kind once created.
type PropertyKind string

const (
	KindString  PropertyKind = "string"
	KindBoolean PropertyKind = "boolean"
)

// ParseKind accepts the kind spellings used on the wire ("str"/"string",
// "bool"/"boolean", any case) and returns the canonical kind.
func ParseKind(s string) (PropertyKind, error) {
	switch strings.ToLower(s) {
	case "str", "string":
		return KindString, nil
	case "bool", "boolean":
		return KindBoolean, nil
	default:
		return "", fmt.Errorf("unknown property kind %q", s)
	}
}

// Tag returns the short kind tag used in query responses.
func (k PropertyKind) Tag() string {
	if k == KindBoolean {
		return "bool"
	}
	return "str"
}

// Property is a named, typed field attachable to any listing. Name is unique
// and case-sensitive.
type Property struct {
	PropertyID int64        `gorm:"column:property_id;primaryKey;autoIncrement" json:"property_id"`
	Name       string       `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Type       PropertyKind `gorm:"column:type;type:varchar(16);not null" json:"type"`
}

func (Property) TableName() string {
	return "properties"
}

// StringPropertyValue holds one string value per (listing, property) pair.
// The composite primary key enforces at most one value per pair.
type StringPropertyValue struct {
	ListingID  string `gorm:"column:listing_id;primaryKey" json:"listing_id"`
	PropertyID int64  `gorm:"column:property_id;primaryKey" json:"property_id"`
	Value      string `gorm:"column:value;not null" json:"value"`
}

func (StringPropertyValue) TableName() string {
	return "string_property_values"
}

// BooleanPropertyValue holds one normalized boolean value per (listing,
// property) pair.
type BooleanPropertyValue struct {
	ListingID  string `gorm:"column:listing_id;primaryKey" json:"listing_id"`
	PropertyID int64  `gorm:"column:property_id;primaryKey" json:"property_id"`
	Value      bool   `gorm:"column:value;not null" json:"value"`
}

func (BooleanPropertyValue) TableName() string {
	return "boolean_property_values"
}
