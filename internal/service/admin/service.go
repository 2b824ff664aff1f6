package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/utils"
)

type AdminServiceImpl struct {
	adminRepo admin.AdminRepository
}

func NewAdminService(adminRepo admin.AdminRepository) admin.AdminService {
	return &AdminServiceImpl{adminRepo: adminRepo}
}

// Create implements admin.AdminService.
func (s *AdminServiceImpl) Create(ctx context.Context, p access.Principal, req admin.CreateAdminRequest) (admin.AdminResponse, error) {
	if err := access.RequireSuperAdmin(p); err != nil {
		return admin.AdminResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return admin.AdminResponse{}, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return admin.AdminResponse{}, err
	}

	created, err := s.adminRepo.Create(ctx, admin.Admin{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		IsSuperAdmin: req.IsSuperAdmin,
	})
	if err != nil {
		if errors.Is(err, admin.ErrEmailExists) {
			return admin.AdminResponse{}, err
		}
		return admin.AdminResponse{}, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin.AdminResponse{
		ID:           created.ID,
		Email:        created.Email,
		Name:         created.Name,
		IsSuperAdmin: created.IsSuperAdmin,
		CreatedAt:    created.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
