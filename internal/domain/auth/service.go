package auth

import "context"

type AuthService interface {
	AdminLogin(ctx context.Context, req LoginRequest) (TokenResponse, error)
	StaffLogin(ctx context.Context, req LoginRequest) (TokenResponse, error)
}
