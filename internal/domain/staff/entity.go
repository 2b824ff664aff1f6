package staff

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SalaryType is the pay model used by the payroll calculator.
type SalaryType string

const (
	SalaryHourly  SalaryType = "hourly"
	SalaryDaily   SalaryType = "daily"
	SalaryMonthly SalaryType = "monthly"
	SalaryAnnual  SalaryType = "annual"
)

// Valid reports whether t is one of the known pay models.
func (t SalaryType) Valid() bool {
	switch t {
	case SalaryHourly, SalaryDaily, SalaryMonthly, SalaryAnnual:
		return true
	}
	return false
}

type Status string

const (
	StatusActive     Status = "active"
	StatusOnLeave    Status = "on_leave"
	StatusTerminated Status = "terminated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnLeave, StatusTerminated:
		return true
	}
	return false
}

type Staff struct {
	ID           string
	BusinessID   string
	FirstName    string
	LastName     string
	Email        string
	Position     string
	Salary       *decimal.Decimal
	SalaryType   SalaryType
	Status       Status
	PasswordHash *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s Staff) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Employed reports whether the staff member may record attendance and be
// paid: not soft-deleted and not terminated.
func (s Staff) Employed() bool {
	return s.IsActive && s.Status != StatusTerminated
}
