package business

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

type BusinessService interface {
	Create(ctx context.Context, p access.Principal, req CreateBusinessRequest) (BusinessResponse, error)
	Get(ctx context.Context, p access.Principal, id string) (BusinessResponse, error)
	List(ctx context.Context, p access.Principal) ([]BusinessResponse, error)
	GrantAdmin(ctx context.Context, p access.Principal, businessID string, req GrantAdminRequest) error
	RevokeAdmin(ctx context.Context, p access.Principal, businessID, adminID string) error
}
