package exclusion

import "context"

// Repository persists excluded keywords.
type Repository interface {
	Add(ctx context.Context, keyword string) (bool, error)
	List(ctx context.Context) ([]string, error)
}
