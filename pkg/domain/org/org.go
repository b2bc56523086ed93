package org

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the control-plane record for one tenant. It lives in the
// shared public schema, keyed by the tenant's dedicated schema name.
type Organization struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name" gorm:"column:name"`
	SchemaName string    `json:"schema_name" gorm:"column:schema_name"`
	Vertical   string    `json:"vertical" gorm:"column:vertical"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Document is one uploaded reference document whose text is folded into the
// tenant's system prompt.
type Document struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Filename    string    `json:"filename" gorm:"column:filename"`
	ContentText string    `json:"content_text" gorm:"column:content_text"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Document) TableName() string {
	return "org_documents"
}

// Agent is a tenant-defined assistant persona. When a user has an active
// agent assigned, its system prompt leads the composed turn context.
type Agent struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"column:name"`
	SystemPrompt string    `json:"system_prompt" gorm:"column:system_prompt"`
	Provider     string    `json:"provider" gorm:"column:provider"`
	Model        string    `json:"model" gorm:"column:model"`
	Active       bool      `json:"is_active" gorm:"column:is_active"`
}

func (Agent) TableName() string {
	return "agents"
}
