package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-checkout-demo/internal/model"
)

type kvRepoImpl struct {
	db *gorm.DB
}

// NewKVRepository stores entries in the kv_entries table (sqlite or mysql).
func NewKVRepository(db *gorm.DB) KVRepository {
	return &kvRepoImpl{
		db: db,
	}
}

func (r *kvRepoImpl) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := checkKey(namespace, key); err != nil {
		return nil, err
	}

	var entry model.KVEntry
	err := r.db.WithContext(ctx).
		Where(&model.KVEntry{Namespace: namespace, Key: key}).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select kv entry: %w", err)
	}

	return []byte(entry.Value), nil
}

func (r *kvRepoImpl) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.KVEntry{
		Namespace: namespace,
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (r *kvRepoImpl) Delete(ctx context.Context, namespace, key string) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).
		Where(&model.KVEntry{Namespace: namespace, Key: key}).
		Delete(&model.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}
