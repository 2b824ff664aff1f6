package staff

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

type StaffService interface {
	Create(ctx context.Context, p access.Principal, businessID string, req CreateStaffRequest) (StaffResponse, error)
	Get(ctx context.Context, p access.Principal, id string) (StaffResponse, error)
	ListByBusiness(ctx context.Context, p access.Principal, businessID string, filter StaffFilter) (ListStaffResponse, error)
	Update(ctx context.Context, p access.Principal, id string, req UpdateStaffRequest) (StaffResponse, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}
