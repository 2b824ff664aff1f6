package payroll

import (
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	StatusDraft      PayrollStatus = "draft"
	StatusCalculated PayrollStatus = "calculated"
	StatusApproved   PayrollStatus = "approved"
	StatusPaid       PayrollStatus = "paid"
)

func (s PayrollStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusCalculated, StatusApproved, StatusPaid:
		return true
	}
	return false
}

// AdjustmentKind selects the bucket an adjustment is appended to.
type AdjustmentKind string

const (
	AdjustmentDeduction AdjustmentKind = "deduction"
	AdjustmentAddition  AdjustmentKind = "addition"
)

// Adjustment is a labelled amount stored inside a payroll record. Amount is
// always positive; the bucket implies the sign.
type Adjustment struct {
	Type        string          `json:"type"`
	Description *string         `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// PayrollRecord - Generated payroll for one staff member and period
type PayrollRecord struct {
	ID               string
	StaffID          string
	BusinessID       string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalHoursWorked decimal.Decimal
	TotalDaysWorked  int
	SalaryType       staff.SalaryType // snapshot at generation time
	BaseSalary       decimal.Decimal  // snapshot at generation time
	CalculatedPay    decimal.Decimal
	Deductions       []Adjustment
	Additions        []Adjustment
	NetPay           decimal.Decimal
	AttendanceIDs    []string
	AttendanceCount  int
	Status           PayrollStatus
	GeneratedBy      *string
	ApprovedBy       *string
	ApprovedAt       *time.Time
	PaidBy           *string
	PaidAt           *time.Time
	Notes            *string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined fields
	Staff *StaffSummary
}

// StaffSummary is the display projection joined on reads.
type StaffSummary struct {
	FirstName string
	LastName  string
	Position  string
	Email     string
}

// Totals aggregates amounts over a set of payroll records.
type Totals struct {
	Records       int64
	CalculatedPay decimal.Decimal
	NetPay        decimal.Decimal
	TotalHours    decimal.Decimal
}
