package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid"`
	Provider  string    `json:"provider" gorm:"column:gpt_target"`
	Title     string    `json:"title" gorm:"column:title"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

type Message struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID `json:"session_id" gorm:"column:session_id;type:uuid"`
	Role        string    `json:"role" gorm:"column:role"`
	Content     string    `json:"content" gorm:"column:content"`
	Provider    string    `json:"provider" gorm:"column:gpt_target"`
	WasBlocked  bool      `json:"was_blocked" gorm:"column:was_blocked"`
	BlockReason string    `json:"block_reason,omitempty" gorm:"column:block_reason"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func NewSession(userID uuid.UUID, provider string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewMessage(sessionID uuid.UUID, role, content, provider string) *Message {
	return &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Provider:  provider,
		CreatedAt: time.Now(),
	}
}

func NewBlockedMessage(sessionID uuid.UUID, content, provider, reason string) *Message {
	m := NewMessage(sessionID, RoleUser, content, provider)
	m.WasBlocked = true
	m.BlockReason = reason
	return m
}

// AnalyticsEvent is one post-turn analytics record, written by the
// enrichment worker.
type AnalyticsEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventType string    `json:"event_type" gorm:"column:event_type"`
	UserID    uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid"`
	SessionID uuid.UUID `json:"session_id" gorm:"column:session_id;type:uuid"`
	Metadata  string    `json:"metadata" gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
