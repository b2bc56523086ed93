package connection

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Connection holds one tenant's credentials for a model provider. The API
// key is stored encrypted and only decrypted for the lifetime of a call.
type Connection struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Provider        string    `json:"provider" gorm:"column:provider"`
	EncryptedAPIKey string    `json:"-" gorm:"column:encrypted_api_key"`
	Model           string    `json:"model" gorm:"column:model"`
	Active          bool      `json:"is_active" gorm:"column:is_active"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Connection) TableName() string {
	return "gpt_connections"
}

// IsSupported reports whether the provider name maps to a known adapter.
func IsSupported(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}
