package properties

import (
	"context"
	"errors"
	"fmt"

	"catalog-backend/internal/domain"

	"gorm.io/gorm"
)

// Registry resolves property names and ids to their declared kind and creates
// property definitions on first write. Methods take the DB handle explicitly
// so callers can pass a transaction.
type Registry struct {
	Kinds *KindCache
}

// ResolveKind looks up an existing property by name. Returns
// ErrPropertyNotFound if absent; it never creates.
func (r *Registry) ResolveKind(ctx context.Context, db *gorm.DB, name string) (domain.PropertyKind, error) {
	if kind, ok := r.Kinds.get(ctx, nameKey(name)); ok {
		return kind, nil
	}
	var prop domain.Property
	if err := db.WithContext(ctx).Where("name = ?", name).First(&prop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("property %q: %w", name, ErrPropertyNotFound)
		}
		return "", err
	}
	r.Kinds.set(ctx, nameKey(name), prop.Type)
	return prop.Type, nil
}

// KindByID resolves a property id to its kind. Used by the query engine to
// partition attribute filters; a missing id is fatal to the enclosing request.
func (r *Registry) KindByID(ctx context.Context, db *gorm.DB, propertyID int64) (domain.PropertyKind, error) {
	if kind, ok := r.Kinds.get(ctx, idKey(propertyID)); ok {
		return kind, nil
	}
	var prop domain.Property
	if err := db.WithContext(ctx).Where("property_id = ?", propertyID).First(&prop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("property %d: %w", propertyID, ErrPropertyNotFound)
		}
		return "", err
	}
	r.Kinds.set(ctx, idKey(propertyID), prop.Type)
	return prop.Type, nil
}

// GetOrCreate returns the property named name, creating it with requestedKind
// if absent. The generated id is usable immediately after create. When the
// property already exists it is returned as stored — the caller is responsible
// for rejecting a kind disagreement (see ErrKindMismatch).
func (r *Registry) GetOrCreate(ctx context.Context, tx *gorm.DB, name string, requestedKind domain.PropertyKind) (*domain.Property, bool, error) {
	var prop domain.Property
	err := tx.Where("name = ?", name).First(&prop).Error
	if err == nil {
		return &prop, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	prop = domain.Property{Name: name, Type: requestedKind}
	// Concurrent batches introducing the same name race here; the unique
	// index on name is the guard, surfacing as a storage error.
	// The cache is not written on this path: the insert may still roll back
	// with the enclosing batch, and only committed kinds may be cached.
	if err := tx.Create(&prop).Error; err != nil {
		return nil, false, err
	}
	return &prop, true, nil
}
