// Package sqlite stores keys as rows of a single SQLite table.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/introspection"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/aretw0/quicknote/pkg/core"
)

// entry is one stored key.
type entry struct {
	Key       string `gorm:"column:name;primaryKey;size:128"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "quicknote_entries"
}

// Config holds the configuration for the SQLite store.
type Config struct {
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Store implements core.Storage on SQLite via gorm.
type Store struct {
	config Config
	db     *gorm.DB
}

// Open establishes the SQLite connection. Call Initialize to migrate the schema.
func Open(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return &Store{config: config, db: db}, nil
}

// Initialize migrates the schema.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.ReadOnly {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.config.Logger.Debug("database initialized", "path", s.config.Path)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		// A read-only store over a fresh file has no table yet.
		if s.config.ReadOnly && !s.db.Migrator().HasTable(&entry{}) {
			return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	e := entry{Key: key, Value: data, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path     string `json:"path"`
	ReadOnly bool   `json:"read_only"`
	Keys     int64  `json:"keys"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	var count int64
	_ = s.db.Model(&entry{}).Count(&count).Error
	return StoreState{Path: s.config.Path, ReadOnly: s.config.ReadOnly, Keys: count}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite"
}

var _ core.Storage = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
