package staff

import (
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateStaffRequest struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Position   string  `json:"position"`
	Salary     *string `json:"salary,omitempty"`
	SalaryType string  `json:"salary_type"`
	Password   *string `json:"password,omitempty"`

	salary *decimal.Decimal
}

func (r *CreateStaffRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if validator.IsEmpty(r.FirstName) {
		errs.Add("first_name", "first_name is required")
	}
	if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if !SalaryType(r.SalaryType).Valid() {
		errs.Add("salary_type", "salary_type must be one of hourly, daily, monthly, annual")
	}
	if r.Salary != nil {
		amount, ok := validator.IsPositiveAmount(*r.Salary)
		if !ok {
			errs.Add("salary", "salary must be a positive amount with at most 2 decimals")
		} else {
			r.salary = &amount
		}
	}
	if r.Password != nil && len(*r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}

	return errs.Err()
}

// ParsedSalary is set by Validate.
func (r *CreateStaffRequest) ParsedSalary() *decimal.Decimal {
	return r.salary
}

type UpdateStaffRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Position   *string `json:"position,omitempty"`
	Salary     *string `json:"salary,omitempty"`
	SalaryType *string `json:"salary_type,omitempty"`
	Status     *string `json:"status,omitempty"`

	salary *decimal.Decimal
}

func (r *UpdateStaffRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FirstName != nil && validator.IsEmpty(*r.FirstName) {
		errs.Add("first_name", "first_name must not be empty")
	}
	if r.SalaryType != nil && !SalaryType(*r.SalaryType).Valid() {
		errs.Add("salary_type", "salary_type must be one of hourly, daily, monthly, annual")
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		errs.Add("status", "status must be one of active, on_leave, terminated")
	}
	if r.Salary != nil {
		amount, ok := validator.IsPositiveAmount(*r.Salary)
		if !ok {
			errs.Add("salary", "salary must be a positive amount with at most 2 decimals")
		} else {
			r.salary = &amount
		}
	}

	return errs.Err()
}

// ParsedSalary is set by Validate.
func (r *UpdateStaffRequest) ParsedSalary() *decimal.Decimal {
	return r.salary
}

type StaffFilter struct {
	Status          *string
	IncludeInactive bool
	Page            int
	Limit           int
}

func (f *StaffFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !Status(*f.Status).Valid() {
		errs.Add("status", "status must be one of active, on_leave, terminated")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	return errs.Err()
}

type StaffResponse struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"business_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Position   string  `json:"position"`
	Salary     *string `json:"salary"`
	SalaryType string  `json:"salary_type"`
	Status     string  `json:"status"`
	IsActive   bool    `json:"is_active"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type ListStaffResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Staff      []StaffResponse `json:"staff"`
}
