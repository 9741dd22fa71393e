package entities

import (
	"errors"

	"catalog-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntityInput is one dataset entity as supplied in an upsert batch.
type EntityInput struct {
	Name string         `json:"name"`
	Data datatypes.JSON `json:"data"`
}

// UpsertEntity finds a dataset entity by name and replaces its data in place,
// or inserts it. The entity id is stable across data updates and usable
// immediately after insert.
func UpsertEntity(tx *gorm.DB, name string, data datatypes.JSON) (int64, error) {
	var entity domain.DatasetEntity
	err := tx.Where("name = ?", name).First(&entity).Error
	if err == nil {
		if err := tx.Model(&entity).Update("data", data).Error; err != nil {
			return 0, err
		}
		return entity.EntityID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	entity = domain.DatasetEntity{Name: name, Data: data}
	if err := tx.Create(&entity).Error; err != nil {
		return 0, err
	}
	return entity.EntityID, nil
}

// LinkAll upserts every entity in input order and returns the resulting id
// list. The caller stores this list as the listing's new linked-entity set,
// replacing any prior list.
func LinkAll(tx *gorm.DB, inputs []EntityInput) ([]int64, error) {
	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		id, err := UpsertEntity(tx, in.Name, in.Data)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
