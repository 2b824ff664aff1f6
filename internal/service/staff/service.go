package staff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/utils"
)

type StaffServiceImpl struct {
	staffRepo    staff.StaffRepository
	businessRepo business.BusinessRepository
}

func NewStaffService(staffRepo staff.StaffRepository, businessRepo business.BusinessRepository) staff.StaffService {
	return &StaffServiceImpl{
		staffRepo:    staffRepo,
		businessRepo: businessRepo,
	}
}

// Create implements staff.StaffService.
func (s *StaffServiceImpl) Create(ctx context.Context, p access.Principal, businessID string, req staff.CreateStaffRequest) (staff.StaffResponse, error) {
	if err := access.AuthorizeBusiness(p, businessID); err != nil {
		return staff.StaffResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return staff.StaffResponse{}, err
	}
	if _, err := s.businessRepo.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			return staff.StaffResponse{}, err
		}
		return staff.StaffResponse{}, fmt.Errorf("failed to get business: %w", err)
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return staff.StaffResponse{}, err
		}
		passwordHash = &hash
	}

	created, err := s.staffRepo.Create(ctx, staff.Staff{
		BusinessID:   businessID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Position:     strings.TrimSpace(req.Position),
		Salary:       req.ParsedSalary(),
		SalaryType:   staff.SalaryType(req.SalaryType),
		Status:       staff.StatusActive,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, staff.ErrEmailExists) || errors.Is(err, business.ErrBusinessNotFound) {
			return staff.StaffResponse{}, err
		}
		return staff.StaffResponse{}, fmt.Errorf("failed to create staff: %w", err)
	}

	return mapStaffToResponse(created), nil
}

// Get implements staff.StaffService. Staff may read their own profile.
func (s *StaffServiceImpl) Get(ctx context.Context, p access.Principal, id string) (staff.StaffResponse, error) {
	member, err := s.authorizedStaff(ctx, p, id, access.AuthorizeStaffRecord)
	if err != nil {
		return staff.StaffResponse{}, err
	}
	return mapStaffToResponse(member), nil
}

// ListByBusiness implements staff.StaffService.
func (s *StaffServiceImpl) ListByBusiness(ctx context.Context, p access.Principal, businessID string, filter staff.StaffFilter) (staff.ListStaffResponse, error) {
	if err := access.AuthorizeBusiness(p, businessID); err != nil {
		return staff.ListStaffResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return staff.ListStaffResponse{}, err
	}

	lf := staff.ListFilter{
		IncludeInactive: filter.IncludeInactive,
		Page:            filter.Page,
		Limit:           filter.Limit,
	}
	if filter.Status != nil {
		status := staff.Status(*filter.Status)
		lf.Status = &status
	}

	members, total, err := s.staffRepo.ListByBusiness(ctx, businessID, lf)
	if err != nil {
		return staff.ListStaffResponse{}, fmt.Errorf("failed to list staff: %w", err)
	}

	responses := make([]staff.StaffResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, mapStaffToResponse(m))
	}

	return staff.ListStaffResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Staff:      responses,
	}, nil
}

// Update implements staff.StaffService. Salary changes never touch payrolls
// already generated.
func (s *StaffServiceImpl) Update(ctx context.Context, p access.Principal, id string, req staff.UpdateStaffRequest) (staff.StaffResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return staff.StaffResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return staff.StaffResponse{}, err
	}

	member, err := s.authorizedStaff(ctx, p, id, adminOf)
	if err != nil {
		return staff.StaffResponse{}, err
	}

	if req.FirstName != nil {
		member.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		member.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Position != nil {
		member.Position = strings.TrimSpace(*req.Position)
	}
	if salary := req.ParsedSalary(); salary != nil {
		member.Salary = salary
	}
	if req.SalaryType != nil {
		member.SalaryType = staff.SalaryType(*req.SalaryType)
	}
	if req.Status != nil {
		member.Status = staff.Status(*req.Status)
	}

	updated, err := s.staffRepo.Update(ctx, member)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return staff.StaffResponse{}, err
		}
		return staff.StaffResponse{}, fmt.Errorf("failed to update staff: %w", err)
	}

	return mapStaffToResponse(updated), nil
}

// Delete implements staff.StaffService.
func (s *StaffServiceImpl) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.authorizedStaff(ctx, p, id, adminOf); err != nil {
		return err
	}

	if err := s.staffRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	return nil
}

func adminOf(p access.Principal, _ string, businessID string) error {
	return access.AuthorizeBusiness(p, businessID)
}

func (s *StaffServiceImpl) authorizedStaff(ctx context.Context, p access.Principal, id string, authorize func(access.Principal, string, string) error) (staff.Staff, error) {
	if p == nil {
		return staff.Staff{}, access.ErrUnauthenticated
	}

	member, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return staff.Staff{}, err
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff: %w", err)
	}
	if err := authorize(p, member.ID, member.BusinessID); err != nil {
		return staff.Staff{}, err
	}
	return member, nil
}

func mapStaffToResponse(s staff.Staff) staff.StaffResponse {
	var salary *string
	if s.Salary != nil {
		v := s.Salary.StringFixed(2)
		salary = &v
	}

	return staff.StaffResponse{
		ID:         s.ID,
		BusinessID: s.BusinessID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Email:      s.Email,
		Position:   s.Position,
		Salary:     salary,
		SalaryType: string(s.SalaryType),
		Status:     string(s.Status),
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
