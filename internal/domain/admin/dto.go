package admin

import (
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
)

type CreateAdminRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

func (r *CreateAdminRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}

	return errs.Err()
}

type AdminResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	CreatedAt    string `json:"created_at"`
}
