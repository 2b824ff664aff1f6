package auth

import (
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	}

	return errs.Err()
}

type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresAt   int64   `json:"expires_at"`
	Kind        string  `json:"kind"`
	SubjectID   string  `json:"subject_id"`
	BusinessID  *string `json:"business_id,omitempty"`
	SuperAdmin  bool    `json:"super_admin,omitempty"`
}
