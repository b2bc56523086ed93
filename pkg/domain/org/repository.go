package org

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=repository_mock.go --case=underscore --with-expecter

type Repository interface {
	// Vertical returns the tenant's industry vertical, or "" when the
	// organization record carries none.
	Vertical(ctx context.Context, schema string) (string, error)
	// Documents returns the tenant's oldest reference documents, capped at
	// limit.
	Documents(ctx context.Context, schema string, limit int) ([]Document, error)
	// AgentForUser returns the active agent assigned to the user, or nil
	// when no assignment exists.
	AgentForUser(ctx context.Context, schema string, userID uuid.UUID) (*Agent, error)
}
