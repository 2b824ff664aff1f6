package payroll

import (
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ========================================
// GENERATION DTOs
// ========================================

type GeneratePayrollRequest struct {
	StaffID     string `json:"staff_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	start, end time.Time
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.StaffID) {
		errs.Add("staff_id", "staff_id must be a valid UUID")
	}
	r.start, r.end = validatePeriod(&errs, r.PeriodStart, r.PeriodEnd)

	return errs.Err()
}

// Period returns the dates parsed by Validate.
func (r *GeneratePayrollRequest) Period() (time.Time, time.Time) {
	return r.start, r.end
}

type GenerateBusinessPayrollRequest struct {
	BusinessID  string `json:"-"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	start, end time.Time
}

func (r *GenerateBusinessPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.BusinessID) {
		errs.Add("business_id", "business_id must be a valid UUID")
	}
	r.start, r.end = validatePeriod(&errs, r.PeriodStart, r.PeriodEnd)

	return errs.Err()
}

// Period returns the dates parsed by Validate.
func (r *GenerateBusinessPayrollRequest) Period() (time.Time, time.Time) {
	return r.start, r.end
}

// ========================================
// LIFECYCLE DTOs
// ========================================

type ApprovePayrollRequest struct {
	ID    string  `json:"-"`
	Notes *string `json:"notes,omitempty"`
}

func (r *ApprovePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid payroll id")
	}
	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

type AddAdjustmentRequest struct {
	ID             string  `json:"-"`
	Kind           string  `json:"type"`            // deduction | addition
	AdjustmentType string  `json:"adjustment_type"` // free-form label
	Amount         string  `json:"amount"`
	Description    *string `json:"description,omitempty"`

	amount decimal.Decimal
}

func (r *AddAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid payroll id")
	}
	if r.Kind != string(AdjustmentDeduction) && r.Kind != string(AdjustmentAddition) {
		errs.Add("type", "type must be deduction or addition")
	}
	if validator.IsEmpty(r.AdjustmentType) {
		errs.Add("adjustment_type", "adjustment_type is required")
	} else if len(r.AdjustmentType) > 100 {
		errs.Add("adjustment_type", "adjustment_type must not exceed 100 characters")
	}
	amount, ok := validator.IsPositiveAmount(r.Amount)
	if !ok {
		errs.Add("amount", "amount must be a positive number with at most 2 decimals")
	}
	r.amount = amount
	if r.Description != nil && len(*r.Description) > 500 {
		errs.Add("description", "description must not exceed 500 characters")
	}

	return errs.Err()
}

// ParsedAmount is set by Validate.
func (r *AddAdjustmentRequest) ParsedAmount() decimal.Decimal {
	return r.amount
}

// ========================================
// QUERY DTOs
// ========================================

type PayrollFilter struct {
	Status          *string
	PeriodStart     *string // YYYY-MM-DD
	PeriodEnd       *string // YYYY-MM-DD
	IncludeInactive bool
	Page            int
	Limit           int

	from, to *time.Time
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !PayrollStatus(*f.Status).Valid() {
		errs.Add("status", "status must be one of draft, calculated, approved, paid")
	}
	f.from, f.to = validateOptionalPeriod(&errs, f.PeriodStart, f.PeriodEnd)

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

// Range returns the optional bounds parsed by Validate.
func (f *PayrollFilter) Range() (*time.Time, *time.Time) {
	return f.from, f.to
}

type SummaryFilter struct {
	PeriodStart *string
	PeriodEnd   *string

	from, to *time.Time
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors
	f.from, f.to = validateOptionalPeriod(&errs, f.PeriodStart, f.PeriodEnd)
	return errs.Err()
}

// Range returns the optional bounds parsed by Validate.
func (f *SummaryFilter) Range() (*time.Time, *time.Time) {
	return f.from, f.to
}

// ========================================
// RESPONSE DTOs
// ========================================

type AdjustmentResponse struct {
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	Amount      string  `json:"amount"`
}

type StaffSummaryResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
}

type PayrollResponse struct {
	ID               string                `json:"id"`
	StaffID          string                `json:"staff_id"`
	BusinessID       string                `json:"business_id"`
	Staff            *StaffSummaryResponse `json:"staff,omitempty"`
	PeriodStart      string                `json:"period_start"`
	PeriodEnd        string                `json:"period_end"`
	TotalHoursWorked string                `json:"total_hours_worked"`
	TotalDaysWorked  int                   `json:"total_days_worked"`
	SalaryType       string                `json:"salary_type"`
	BaseSalary       string                `json:"base_salary"`
	CalculatedPay    string                `json:"calculated_pay"`
	Deductions       []AdjustmentResponse  `json:"deductions"`
	Additions        []AdjustmentResponse  `json:"additions"`
	NetPay           string                `json:"net_pay"`
	AttendanceIDs    []string              `json:"attendance_ids"`
	AttendanceCount  int                   `json:"attendance_count"`
	Status           string                `json:"status"`
	ApprovedBy       *string               `json:"approved_by"`
	ApprovedAt       *string               `json:"approved_at"`
	PaidBy           *string               `json:"paid_by"`
	PaidAt           *string               `json:"paid_at"`
	Notes            *string               `json:"notes"`
	IsActive         bool                  `json:"is_active"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
}

type ListPayrollResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Payrolls   []PayrollResponse `json:"payrolls"`
}

type BatchSummary struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type SkippedStaff struct {
	StaffID           string `json:"staff_id"`
	ExistingPayrollID string `json:"existing_payroll_id"`
	Reason            string `json:"reason"`
}

type FailedStaff struct {
	StaffID string `json:"staff_id"`
	Reason  string `json:"reason"`
}

type BatchGenerateResponse struct {
	Summary   BatchSummary      `json:"summary"`
	Generated []PayrollResponse `json:"generated"`
	Skipped   []SkippedStaff    `json:"skipped"`
	Errors    []FailedStaff     `json:"errors"`
}

type SummaryResponse struct {
	BusinessID         string           `json:"business_id"`
	PeriodStart        *string          `json:"period_start,omitempty"`
	PeriodEnd          *string          `json:"period_end,omitempty"`
	CountByStatus      map[string]int64 `json:"count_by_status"`
	TotalRecords       int64            `json:"total_records"`
	TotalCalculatedPay string           `json:"total_calculated_pay"`
	TotalNetPay        string           `json:"total_net_pay"`
	TotalHoursWorked   string           `json:"total_hours_worked"`
}

// ExportFile is a rendered spreadsheet ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

func validatePeriod(errs *validator.ValidationErrors, startStr, endStr string) (time.Time, time.Time) {
	start, okStart := validator.IsValidDate(startStr)
	if !okStart {
		errs.Add("period_start", "period_start must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(endStr)
	if !okEnd {
		errs.Add("period_end", "period_end must be in YYYY-MM-DD format")
	}
	if okStart && okEnd && start.After(end) {
		errs.Add("period_end", ErrInvalidPeriod.Error())
	}
	return start, end
}

func validateOptionalPeriod(errs *validator.ValidationErrors, startStr, endStr *string) (*time.Time, *time.Time) {
	var from, to *time.Time
	if startStr != nil {
		if t, ok := validator.IsValidDate(*startStr); ok {
			from = &t
		} else {
			errs.Add("period_start", "period_start must be in YYYY-MM-DD format")
		}
	}
	if endStr != nil {
		if t, ok := validator.IsValidDate(*endStr); ok {
			to = &t
		} else {
			errs.Add("period_end", "period_end must be in YYYY-MM-DD format")
		}
	}
	if from != nil && to != nil && from.After(*to) {
		errs.Add("period_end", ErrInvalidPeriod.Error())
	}
	return from, to
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
