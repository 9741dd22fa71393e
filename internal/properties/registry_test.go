package properties

import (
	"context"
	"testing"

	"catalog-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPropertiesTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Property{},
		&domain.StringPropertyValue{},
		&domain.BooleanPropertyValue{},
	))
	return db
}

func TestGetOrCreate_CreatesWithUsableID(t *testing.T) {
	db := setupPropertiesTest(t)
	r := &Registry{}

	prop, created, err := r.GetOrCreate(context.Background(), db, "color", domain.KindString)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, prop.PropertyID)
	assert.Equal(t, domain.KindString, prop.Type)
}

func TestGetOrCreate_ExistingReturnsStoredKind(t *testing.T) {
	db := setupPropertiesTest(t)
	r := &Registry{}

	first, created, err := r.GetOrCreate(context.Background(), db, "furnished", domain.KindBoolean)
	require.NoError(t, err)
	require.True(t, created)

	// A later write declaring a different kind gets the stored property back;
	// the original kind always wins.
	second, created, err := r.GetOrCreate(context.Background(), db, "furnished", domain.KindString)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.PropertyID, second.PropertyID)
	assert.Equal(t, domain.KindBoolean, second.Type)
}

func TestResolveKind_NotFound(t *testing.T) {
	db := setupPropertiesTest(t)
	r := &Registry{}

	_, err := r.ResolveKind(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestKindByID(t *testing.T) {
	db := setupPropertiesTest(t)
	r := &Registry{}

	prop, _, err := r.GetOrCreate(context.Background(), db, "color", domain.KindString)
	require.NoError(t, err)

	kind, err := r.KindByID(context.Background(), db, prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)

	_, err = r.KindByID(context.Background(), db, prop.PropertyID+1000)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestKindCache_ServesRepeatLookups(t *testing.T) {
	db := setupPropertiesTest(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := &Registry{Kinds: &KindCache{Rdb: rdb}}

	prop, _, err := r.GetOrCreate(context.Background(), db, "color", domain.KindString)
	require.NoError(t, err)

	// First lookups populate the cache from the DB.
	kind, err := r.ResolveKind(context.Background(), db, "color")
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)
	kind, err = r.KindByID(context.Background(), db, prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)

	// Kinds are immutable, so cached entries stay valid even without the DB row.
	require.NoError(t, db.Delete(&domain.Property{}, "property_id = ?", prop.PropertyID).Error)
	kind, err = r.ResolveKind(context.Background(), db, "color")
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)
	kind, err = r.KindByID(context.Background(), db, prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)
}

func TestKindCache_NilClientFallsThrough(t *testing.T) {
	db := setupPropertiesTest(t)
	r := &Registry{Kinds: &KindCache{}}

	_, _, err := r.GetOrCreate(context.Background(), db, "color", domain.KindString)
	require.NoError(t, err)
	kind, err := r.ResolveKind(context.Background(), db, "color")
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, kind)
}
