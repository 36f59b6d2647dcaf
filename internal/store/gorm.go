package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormStore persists draft transitions to postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate draft records: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Append(ctx context.Context, rec Record) error {
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append draft record: %w", err)
	}
	return nil
}

func (g *GormStore) Latest(ctx context.Context, sessionID string) (Record, error) {
	var rec Record
	err := g.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load latest draft record: %w", err)
	}
	return rec, nil
}
