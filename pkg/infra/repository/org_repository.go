package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptgate/promptgate/pkg/domain/org"
)

type orgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) org.Repository {
	return &orgRepository{db: db}
}

func (r *orgRepository) Vertical(ctx context.Context, schema string) (string, error) {
	var record org.Organization
	err := r.db.WithContext(ctx).
		Table("public." + org.Organization{}.TableName()).
		Select("vertical").
		Where("schema_name = ?", schema).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load organization: %w", err)
	}
	return record.Vertical, nil
}

func (r *orgRepository) AgentForUser(ctx context.Context, schema string, userID uuid.UUID) (*org.Agent, error) {
	var agent org.Agent
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, org.Agent{}.TableName())+" AS a").
		Select("a.*").
		Joins(fmt.Sprintf("JOIN %s uaa ON uaa.agent_id = a.id", tenantTable(schema, "user_agent_assignments"))).
		Where("uaa.user_id = ? AND a.is_active = ?", userID, true).
		First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent assignment: %w", err)
	}
	return &agent, nil
}

func (r *orgRepository) Documents(ctx context.Context, schema string, limit int) ([]org.Document, error) {
	var docs []org.Document
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, org.Document{}.TableName())).
		Order("created_at ASC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return docs, nil
}
