package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptgate/promptgate/pkg/domain/chat"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
)

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) chat.Repository {
	return &chatRepository{db: db}
}

func (r *chatRepository) SaveSession(ctx context.Context, schema string, session *chat.Session) error {
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Session{}.TableName())).
		Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *chatRepository) GetSession(
	ctx context.Context,
	schema string,
	sessionID, userID uuid.UUID,
) (*chat.Session, error) {
	var session chat.Session
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Session{}.TableName())).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("session", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

func (r *chatRepository) ListSessions(
	ctx context.Context,
	schema string,
	userID uuid.UUID,
) ([]chat.Session, error) {
	var sessions []chat.Session
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Session{}.TableName())).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *chatRepository) TouchSession(ctx context.Context, schema string, sessionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Session{}.TableName())).
		Where("id = ?", sessionID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *chatRepository) SetSessionTitle(
	ctx context.Context,
	schema string,
	sessionID uuid.UUID,
	title string,
) error {
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Session{}.TableName())).
		Where("id = ?", sessionID).
		Update("title", title).Error
	if err != nil {
		return fmt.Errorf("failed to set session title: %w", err)
	}
	return nil
}

func (r *chatRepository) SaveMessage(ctx context.Context, schema string, message *chat.Message) error {
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Message{}.TableName())).
		Create(message).Error
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *chatRepository) History(
	ctx context.Context,
	schema string,
	sessionID uuid.UUID,
) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Message{}.TableName())).
		Where("session_id = ? AND was_blocked = ?", sessionID, false).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

func (r *chatRepository) ListMessages(
	ctx context.Context,
	schema string,
	sessionID uuid.UUID,
) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Message{}.TableName())).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (r *chatRepository) RecentMessages(
	ctx context.Context,
	schema string,
	sessionID uuid.UUID,
	limit int,
) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.Message{}.TableName())).
		Where("session_id = ? AND was_blocked = ?", sessionID, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepository) SaveEvent(ctx context.Context, schema string, event *chat.AnalyticsEvent) error {
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, chat.AnalyticsEvent{}.TableName())).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to save analytics event: %w", err)
	}
	return nil
}
