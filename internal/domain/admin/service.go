package admin

import (
	"context"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

type AdminService interface {
	Create(ctx context.Context, p access.Principal, req CreateAdminRequest) (AdminResponse, error)
}
