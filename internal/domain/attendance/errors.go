package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Clock errors
	ErrOpenShiftExists       = errors.New("an open shift already exists for this staff member")
	ErrNoOpenShift           = errors.New("no open shift found")
	ErrClockOutBeforeClockIn = errors.New("clock out must not be before clock in")
	ErrOutsideAllowedRadius  = errors.New("you are outside the allowed radius")
	ErrLocationRequired      = errors.New("location is required to clock in for this business")

	// Review errors
	ErrAttendanceNotFound         = errors.New("attendance record not found")
	ErrAttendanceAlreadyProcessed = errors.New("attendance has already been approved or rejected")
	ErrShiftStillOpen             = errors.New("attendance shift is still open")
	ErrAttendanceLocked           = errors.New("attendance is included in a payroll and cannot be changed")
)

// OpenShiftError is returned by ClockIn when the staff member already has an
// open shift. ExistingID identifies that shift.
type OpenShiftError struct {
	ExistingID string
}

func (e *OpenShiftError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOpenShiftExists.Error(), e.ExistingID)
}

func (e *OpenShiftError) Unwrap() error {
	return ErrOpenShiftExists
}

// ConflictingID exposes the existing record id to the HTTP layer.
func (e *OpenShiftError) ConflictingID() string {
	return e.ExistingID
}
