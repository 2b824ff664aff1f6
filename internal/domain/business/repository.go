package business

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

// BusinessRepository reads return active businesses only.
type BusinessRepository interface {
	// Create inserts a business. Returns ErrSlugExists on a duplicate slug.
	Create(ctx context.Context, b Business) (Business, error)

	// GetByID returns ErrBusinessNotFound for unknown or inactive ids.
	GetByID(ctx context.Context, id string) (Business, error)

	// List returns the businesses visible in scope, ordered by name.
	List(ctx context.Context, scope access.Scope) ([]Business, error)
}
