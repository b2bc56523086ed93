package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/promptgate/promptgate/pkg/domain/rule"
)

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) rule.Repository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Active(ctx context.Context, schema string) ([]rule.Rule, error) {
	var rules []rule.Rule
	err := r.db.WithContext(ctx).
		Table(tenantTable(schema, rule.Rule{}.TableName())).
		Where("is_active = ?", true).
		Order("priority DESC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load filtering rules: %w", err)
	}
	return rules, nil
}

// tenantTable qualifies a table name with the tenant's schema. Schema names
// are assigned by the control plane, never taken from request input.
func tenantTable(schema, table string) string {
	return fmt.Sprintf("%q.%s", schema, table)
}
