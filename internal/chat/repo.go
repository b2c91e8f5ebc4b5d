package chat

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchivedConversation mirrors a ledger record server-side. Unlike the ledger it is not
// capped, so records evicted from the history stay retrievable here.
type ArchivedConversation struct {
	ID           string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	SessionID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	AgentID      int       `gorm:"index;not null" json:"agent_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	LastMessage  string    `gorm:"type:text" json:"last_message"`
	Messages     []Message `gorm:"serializer:json;type:text" json:"messages"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ArchivedConversation) TableName() string { return "conversation_archive" }

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&ArchivedConversation{})
}

// Notify applies ev inline, for deployments that archive without a broker.
func (r *Repo) Notify(ctx context.Context, ev HistoryEvent) error {
	return r.Apply(ctx, ev)
}

// Apply mirrors one history event into the archive.
func (r *Repo) Apply(ctx context.Context, ev HistoryEvent) error {
	switch ev.Type {
	case EventUpserted:
		if ev.Record == nil {
			return fmt.Errorf("upsert event %s without record", ev.RecordID)
		}
		return r.UpsertArchived(ctx, *ev.Record)
	case EventRemoved:
		return r.DeleteArchived(ctx, ev.RecordID)
	case EventCleared:
		return r.DeleteAllArchived(ctx)
	default:
		return fmt.Errorf("unknown history event type %q", ev.Type)
	}
}

func (r *Repo) UpsertArchived(ctx context.Context, rec ConversationRecord) error {
	row := &ArchivedConversation{
		ID:           rec.ID,
		SessionID:    rec.SessionID,
		AgentID:      rec.AgentID,
		Title:        rec.Title,
		LastMessage:  rec.LastMessage,
		Messages:     rec.Messages,
		LastActivity: rec.Timestamp,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "last_message", "messages", "last_activity", "updated_at"}),
	}).Create(row).Error
}

func (r *Repo) DeleteArchived(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ArchivedConversation{}).Error
}

func (r *Repo) DeleteAllArchived(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&ArchivedConversation{}).Error
}

func (r *Repo) GetArchived(ctx context.Context, id string) (*ArchivedConversation, error) {
	var a ArchivedConversation
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArchived returns archived conversations newest first. agentID <= 0 means all agents;
// a non-zero before pages past that activity time.
func (r *Repo) ListArchived(ctx context.Context, agentID int, limit int, before time.Time) ([]ArchivedConversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("last_activity DESC").Limit(limit)
	if agentID > 0 {
		q = q.Where("agent_id = ?", agentID)
	}
	if !before.IsZero() {
		q = q.Where("last_activity < ?", before)
	}

	var out []ArchivedConversation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
