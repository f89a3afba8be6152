package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"devlink/internal/domain"
)

// kvRecord is one key/value row.
type kvRecord struct {
	Key       string    `gorm:"column:kv_key;type:varchar(128);primaryKey"`
	Value     []byte    `gorm:"column:kv_value;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (kvRecord) TableName() string { return "device_kv" }

// GormStore persists keys in a single SQL table through gorm.
type GormStore struct{ db *gorm.DB }

// OpenSQL opens a gorm connection for driver "sqlite" or "postgres".
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported sql driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

// NewGormStore migrates the key/value table and returns a store on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec kvRecord
	err := s.db.WithContext(ctx).First(&rec, "kv_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&kvRecord{}, "kv_key = ?", key).Error
}

// Compile-time assertion that GormStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*GormStore)(nil)
