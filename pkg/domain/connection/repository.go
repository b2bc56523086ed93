package connection

import "context"

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=repository_mock.go --case=underscore --with-expecter

type Repository interface {
	// ActiveByProvider returns the tenant's active connection for the given
	// provider, or a NoActiveCredentialError when none is configured.
	ActiveByProvider(ctx context.Context, schema, provider string) (*Connection, error)
}
