package domain

import "fmt"

type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Provider)
}

func NewUnsupportedProviderError(provider string) error {
	return &UnsupportedProviderError{Provider: provider}
}
