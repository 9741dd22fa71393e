package domain

import "gorm.io/datatypes"

// DatasetEntity is a deduplicated named record holding an arbitrary JSON
// payload. Entities are shared across listings; re-upserting a name replaces
// Data in place and keeps EntityID stable.
type DatasetEntity struct {
	EntityID int64          `gorm:"column:entity_id;primaryKey;autoIncrement" json:"entity_id"`
	Name     string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Data     datatypes.JSON `gorm:"column:data" json:"data"`
}

func (DatasetEntity) TableName() string {
	return "dataset_entities"
}
