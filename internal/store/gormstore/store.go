package gormstore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/ai-widget/internal/storage"
)

type Entry struct {
	Scope     string    `gorm:"type:varchar(128);primaryKey"`
	Name      string    `gorm:"type:varchar(128);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "widget_storage" }

// Store keeps one storage scope as rows of the widget_storage table.
type Store struct {
	db    *gorm.DB
	scope string
}

func New(db *gorm.DB, scope string) *Store {
	if scope == "" {
		scope = "default"
	}
	return &Store{db: db, scope: scope}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return pkgerrors.Wrapf(storage.ErrUnavailable, "automigrate: %v", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", s.scope, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", pkgerrors.Wrapf(storage.ErrUnavailable, "select %s: %v", key, err)
	}
	return e.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	e := Entry{Scope: s.scope, Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
	if err != nil {
		return pkgerrors.Wrapf(storage.ErrUnavailable, "upsert %s: %v", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", s.scope, key).
		Delete(&Entry{}).Error
	if err != nil {
		return pkgerrors.Wrapf(storage.ErrUnavailable, "delete %s: %v", key, err)
	}
	return nil
}
