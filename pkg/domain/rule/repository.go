package rule

import "context"

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=repository_mock.go --case=underscore --with-expecter

type Repository interface {
	// Active returns the tenant's active rules ordered by descending priority.
	Active(ctx context.Context, schema string) ([]Rule, error)
}
