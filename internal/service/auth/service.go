package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/utils"
)

type AuthServiceImpl struct {
	adminRepo  admin.AdminRepository
	staffRepo  staff.StaffRepository
	jwtService jwt.Service
}

func NewAuthService(adminRepo admin.AdminRepository, staffRepo staff.StaffRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		adminRepo:  adminRepo,
		staffRepo:  staffRepo,
		jwtService: jwtService,
	}
}

// AdminLogin implements auth.AuthService.
func (a *AuthServiceImpl) AdminLogin(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	account, err := a.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get admin: %w", err)
	}
	if !utils.CheckPassword(account.PasswordHash, req.Password) {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(jwt.AccessClaims{
		Subject:    account.ID,
		Kind:       jwt.KindAdmin,
		SuperAdmin: account.IsSuperAdmin,
	})
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Kind:        jwt.KindAdmin,
		SubjectID:   account.ID,
		SuperAdmin:  account.IsSuperAdmin,
	}, nil
}

// StaffLogin implements auth.AuthService. Staff without a password on record
// cannot sign in; terminated staff are refused.
func (a *AuthServiceImpl) StaffLogin(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	member, err := a.staffRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get staff: %w", err)
	}
	if member.PasswordHash == nil || !utils.CheckPassword(*member.PasswordHash, req.Password) {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if !member.Employed() {
		return auth.TokenResponse{}, auth.ErrAccountDisabled
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(jwt.AccessClaims{
		Subject:    member.ID,
		Kind:       jwt.KindStaff,
		BusinessID: member.BusinessID,
	})
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	businessID := member.BusinessID
	return auth.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Kind:        jwt.KindStaff,
		SubjectID:   member.ID,
		BusinessID:  &businessID,
	}, nil
}
