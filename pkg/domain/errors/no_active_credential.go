package domain

import "fmt"

// NoActiveCredentialError is a configuration failure: the tenant has no
// active connection for the requested provider. It is raised before any
// network call and is distinct from an upstream model failure.
type NoActiveCredentialError struct {
	Provider string
}

func (e *NoActiveCredentialError) Error() string {
	return fmt.Sprintf("no active API key configured for provider: %s", e.Provider)
}

func NewNoActiveCredentialError(provider string) error {
	return &NoActiveCredentialError{Provider: provider}
}
