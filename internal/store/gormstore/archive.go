package gormstore

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/events"
)

// ArchivedTurn is one turn event received from the widget's event stream.
type ArchivedTurn struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	SessionID string    `gorm:"type:varchar(64);index:idx_session_ts;not null"`
	Role      chat.Role `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp int64     `gorm:"index:idx_session_ts;not null"`
	Fallback  bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
}

func (ArchivedTurn) TableName() string { return "widget_turn_archive" }

// Archive records turn events for later review. It does not deduplicate:
// a redelivered event is stored twice.
type Archive struct {
	db *gorm.DB
}

func NewArchive(db *gorm.DB) *Archive {
	return &Archive{db: db}
}

func (a *Archive) Migrate(ctx context.Context) error {
	return pkgerrors.Wrap(a.db.WithContext(ctx).AutoMigrate(&ArchivedTurn{}), "automigrate archive")
}

func (a *Archive) Record(ctx context.Context, ev events.TurnEvent) error {
	row := ArchivedTurn{
		SessionID: ev.SessionID,
		Role:      ev.Role,
		Content:   ev.Content,
		Timestamp: ev.Timestamp,
		Fallback:  ev.Fallback,
	}
	return pkgerrors.Wrap(a.db.WithContext(ctx).Create(&row).Error, "archive turn")
}

// Session returns the most recent turns of a session, oldest first.
func (a *Archive) Session(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []ArchivedTurn
	if err := a.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list archived turns")
	}

	turns := make([]chat.Turn, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		turns = append(turns, chat.Turn{Role: rows[i].Role, Content: rows[i].Content, Timestamp: rows[i].Timestamp})
	}
	return turns, nil
}
