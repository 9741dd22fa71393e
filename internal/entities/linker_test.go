package entities

import (
	"testing"

	"catalog-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupEntitiesTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DatasetEntity{}))
	return db
}

func TestUpsertEntity_DedupesByName(t *testing.T) {
	db := setupEntitiesTest(t)

	id1, err := UpsertEntity(db, "airbnb", datatypes.JSON(`{"region":"eu"}`))
	require.NoError(t, err)
	id2, err := UpsertEntity(db, "airbnb", datatypes.JSON(`{"region":"us"}`))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var count int64
	require.NoError(t, db.Model(&domain.DatasetEntity{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertEntity_ReplacesDataInPlace(t *testing.T) {
	db := setupEntitiesTest(t)

	id, err := UpsertEntity(db, "airbnb", datatypes.JSON(`{"region":"eu","tier":1}`))
	require.NoError(t, err)
	_, err = UpsertEntity(db, "airbnb", datatypes.JSON(`{"region":"us"}`))
	require.NoError(t, err)

	var entity domain.DatasetEntity
	require.NoError(t, db.First(&entity, "entity_id = ?", id).Error)
	// Full replacement, not a merge: the old "tier" key is gone.
	assert.JSONEq(t, `{"region":"us"}`, string(entity.Data))
}

func TestLinkAll_ReturnsIDsInInputOrder(t *testing.T) {
	db := setupEntitiesTest(t)

	first, err := LinkAll(db, []EntityInput{
		{Name: "airbnb", Data: datatypes.JSON(`{"region":"eu"}`)},
		{Name: "booking", Data: datatypes.JSON(`{"region":"eu"}`)},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.NotEqual(t, first[0], first[1])

	// Re-linking in reverse order reuses the same ids, reversed.
	second, err := LinkAll(db, []EntityInput{
		{Name: "booking", Data: datatypes.JSON(`{"region":"eu"}`)},
		{Name: "airbnb", Data: datatypes.JSON(`{"region":"eu"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{first[1], first[0]}, second)
}

func TestLinkAll_Empty(t *testing.T) {
	db := setupEntitiesTest(t)
	ids, err := LinkAll(db, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
