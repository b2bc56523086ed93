package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/promptgate/promptgate/pkg/domain/connection"
	domain "github.com/promptgate/promptgate/pkg/domain/errors"
)

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) connection.Repository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) ActiveByProvider(
	ctx context.Context,
	schema, provider string,
) (*connection.Connection, error) {
	var conn connection.Connection
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, connection.Connection{}.TableName())).
		Where("provider = ? AND is_active = ?", provider, true).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNoActiveCredentialError(provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	return &conn, nil
}
