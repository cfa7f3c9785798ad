package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore persists match records through gorm.
type GormStore struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the match-record table.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing gorm connection and runs migrations.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&MatchRecord{}); err != nil {
		return nil, fmt.Errorf("migrate match records: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Record implements Recorder.
func (s *GormStore) Record(ctx context.Context, rec MatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert match record: %w", err)
	}
	return nil
}

// ListByUser implements Store.
func (s *GormStore) ListByUser(ctx context.Context, userID string) ([]MatchRecord, error) {
	var out []MatchRecord
	err := s.db.WithContext(ctx).
		Where("user_id1 = ? OR user_id2 = ?", userID, userID).
		Order("\"when\" DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list match records: %w", err)
	}
	return out, nil
}
