package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Attendance is one clock-in/clock-out shift.
type Attendance struct {
	ID               string
	StaffID          string
	BusinessID       string
	ClockIn          time.Time
	ClockOut         *time.Time
	HoursWorked      *decimal.Decimal
	ClockInLatitude  *float64
	ClockInLongitude *float64
	ClockInProofURL  *string
	Status           Status
	Notes            *string
	AdminNotes       *string
	ApprovedBy       *string
	ApprovedAt       *time.Time
	EditedBy         *string
	EditedAt         *time.Time
	PayrollID        *string // set while claimed by an active payroll
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined fields
	StaffFirstName *string
	StaffLastName  *string
	StaffPosition  *string
}

// IsOpen reports whether the shift has not been clocked out yet.
func (a Attendance) IsOpen() bool {
	return a.ClockOut == nil
}

// HoursPrecision is the number of decimal places kept for hoursWorked.
const HoursPrecision = 2

// ComputeHoursWorked returns (clockOut - clockIn) in hours rounded to
// HoursPrecision places, half away from zero.
func ComputeHoursWorked(clockIn, clockOut time.Time) (decimal.Decimal, error) {
	if clockOut.Before(clockIn) {
		return decimal.Decimal{}, ErrClockOutBeforeClockIn
	}
	seconds := decimal.NewFromInt(int64(clockOut.Sub(clockIn) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(HoursPrecision), nil
}
