package chat

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=repository_mock.go --case=underscore --with-expecter

type Repository interface {
	SaveSession(ctx context.Context, schema string, session *Session) error
	GetSession(ctx context.Context, schema string, sessionID, userID uuid.UUID) (*Session, error)
	ListSessions(ctx context.Context, schema string, userID uuid.UUID) ([]Session, error)
	TouchSession(ctx context.Context, schema string, sessionID uuid.UUID) error
	SetSessionTitle(ctx context.Context, schema string, sessionID uuid.UUID, title string) error

	SaveMessage(ctx context.Context, schema string, message *Message) error
	// History returns the session's messages in chronological order,
	// excluding blocked ones.
	History(ctx context.Context, schema string, sessionID uuid.UUID) ([]Message, error)
	ListMessages(ctx context.Context, schema string, sessionID uuid.UUID) ([]Message, error)
	RecentMessages(ctx context.Context, schema string, sessionID uuid.UUID, limit int) ([]Message, error)

	SaveEvent(ctx context.Context, schema string, event *AnalyticsEvent) error
}
