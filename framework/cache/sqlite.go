package cache

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/km-arc/go-autowire/framework/errors"
)

// sqliteEntry is one cached value.
type sqliteEntry struct {
	Key       string `gorm:"column:cache_key;primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (sqliteEntry) TableName() string { return "autowire_cache" }

// SQLite keeps entries in a SQLite table.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, &errors.ConfigurationError{Reason: "sqlite cache needs a DSN"}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database")
	}
	if err := db.WithContext(ctx).AutoMigrate(&sqliteEntry{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate cache table")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e sqliteEntry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "read cache entry %s", key)
	}
	return e.Value, true, nil
}

func (s *SQLite) Store(ctx context.Context, key string, value []byte) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&sqliteEntry{Key: key, Value: value}).Error
	return errors.Wrapf(err, "store cache entry %s", key)
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&sqliteEntry{}).Error
	return errors.Wrapf(err, "delete cache entry %s", key)
}

func (s *SQLite) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
