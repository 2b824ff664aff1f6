package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
)

type BusinessServiceImpl struct {
	businessRepo business.BusinessRepository
	adminRepo    admin.AdminRepository
}

func NewBusinessService(businessRepo business.BusinessRepository, adminRepo admin.AdminRepository) business.BusinessService {
	return &BusinessServiceImpl{
		businessRepo: businessRepo,
		adminRepo:    adminRepo,
	}
}

// Create implements business.BusinessService.
func (s *BusinessServiceImpl) Create(ctx context.Context, p access.Principal, req business.CreateBusinessRequest) (business.BusinessResponse, error) {
	if err := access.RequireSuperAdmin(p); err != nil {
		return business.BusinessResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return business.BusinessResponse{}, err
	}

	created, err := s.businessRepo.Create(ctx, business.Business{
		Name:         req.Name,
		Slug:         req.Slug,
		Email:        req.Email,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		if errors.Is(err, business.ErrSlugExists) {
			return business.BusinessResponse{}, err
		}
		return business.BusinessResponse{}, fmt.Errorf("failed to create business: %w", err)
	}

	return mapBusinessToResponse(created), nil
}

// Get implements business.BusinessService.
func (s *BusinessServiceImpl) Get(ctx context.Context, p access.Principal, id string) (business.BusinessResponse, error) {
	// Membership is checked before the lookup so non-members cannot discover which ids exist.
	if err := access.AuthorizeBusinessMember(p, id); err != nil {
		return business.BusinessResponse{}, err
	}

	b, err := s.businessRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			return business.BusinessResponse{}, err
		}
		return business.BusinessResponse{}, fmt.Errorf("failed to get business: %w", err)
	}

	return mapBusinessToResponse(b), nil
}

// List implements business.BusinessService.
func (s *BusinessServiceImpl) List(ctx context.Context, p access.Principal) ([]business.BusinessResponse, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}

	items, err := s.businessRepo.List(ctx, access.ScopeOf(p))
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	responses := make([]business.BusinessResponse, 0, len(items))
	for _, b := range items {
		responses = append(responses, mapBusinessToResponse(b))
	}
	return responses, nil
}

// GrantAdmin implements business.BusinessService.
func (s *BusinessServiceImpl) GrantAdmin(ctx context.Context, p access.Principal, businessID string, req business.GrantAdminRequest) error {
	if err := access.RequireSuperAdmin(p); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	target, err := s.adminRepo.GetByID(ctx, req.AdminID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return err
		}
		return fmt.Errorf("failed to get admin: %w", err)
	}
	if target.IsSuperAdmin {
		return admin.ErrAlreadySuperUser
	}

	if err := s.adminRepo.GrantBusiness(ctx, target.ID, businessID); err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) || errors.Is(err, admin.ErrAdminNotFound) {
			return err
		}
		return fmt.Errorf("failed to grant business access: %w", err)
	}
	return nil
}

// RevokeAdmin implements business.BusinessService.
func (s *BusinessServiceImpl) RevokeAdmin(ctx context.Context, p access.Principal, businessID, adminID string) error {
	if err := access.RequireSuperAdmin(p); err != nil {
		return err
	}
	if err := s.adminRepo.RevokeBusiness(ctx, adminID, businessID); err != nil {
		return fmt.Errorf("failed to revoke business access: %w", err)
	}
	return nil
}

func mapBusinessToResponse(b business.Business) business.BusinessResponse {
	return business.BusinessResponse{
		ID:           b.ID,
		Name:         b.Name,
		Slug:         b.Slug,
		Email:        b.Email,
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		RadiusMeters: b.RadiusMeters,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
