package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPayrollNotFound         = errors.New("payroll record not found")
	ErrInvalidStatusTransition = errors.New("payroll status does not allow this operation")
	ErrPeriodExists            = errors.New("payroll already exists for this staff and period")
	ErrPeriodOverlap           = errors.New("payroll period overlaps an existing payroll for this staff")
	ErrPeriodPaid              = errors.New("payroll period overlaps a paid payroll for this staff")
	ErrAttendanceClaimed       = errors.New("attendance is already included in another payroll")
	ErrNegativeNetPay          = errors.New("net pay is negative")
	ErrInvalidPeriod           = errors.New("period_start must not be after period_end")
)

// PeriodConflictError is returned when an active payroll already covers the
// requested period. Err is ErrPeriodExists for an identical period,
// ErrPeriodOverlap for an intersecting one and ErrPeriodPaid when the existing
// record was paid, deleted or not.
type PeriodConflictError struct {
	ExistingID string
	Err        error
}

func (e *PeriodConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.ExistingID)
}

func (e *PeriodConflictError) Unwrap() error {
	return e.Err
}

// ConflictingID exposes the existing record id to the HTTP layer.
func (e *PeriodConflictError) ConflictingID() string {
	return e.ExistingID
}

// TransitionError reports an operation refused by the status machine.
type TransitionError struct {
	Action Action
	From   PayrollStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s payroll in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}
