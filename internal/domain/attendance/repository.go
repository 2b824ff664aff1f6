package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

// ListFilter is the storage-level query. Zero values mean "no filter" except
// Scope, which always bounds the result. Inactive rows are excluded unless
// IncludeInactive is set.
type ListFilter struct {
	Scope           access.Scope
	BusinessID      string
	StaffID         string
	Status          Status
	From            *time.Time // clock_in >= From
	To              *time.Time // clock_in < To
	IncludeInactive bool
	Page            int
	Limit           int
}

// AttendanceRepository defines data access methods for attendance records.
// Reads return active records only unless a filter opts in.
type AttendanceRepository interface {
	// CreateOpen inserts a new open shift. The check for an existing open
	// shift is enforced by storage; a collision returns *OpenShiftError.
	CreateOpen(ctx context.Context, a Attendance) (Attendance, error)

	// GetByID retrieves an active record with the staff projection joined.
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetOpenShift returns ErrNoOpenShift when the staff member has none.
	GetOpenShift(ctx context.Context, staffID string) (Attendance, error)

	// List returns matching records newest clock-in first plus the total count.
	List(ctx context.Context, filter ListFilter) ([]Attendance, int64, error)

	// ListPayable returns approved, active, unclaimed records of staffID in
	// businessID with clock_in in [from, to), oldest first.
	ListPayable(ctx context.Context, staffID, businessID string, from, to time.Time) ([]Attendance, error)

	// ListStaleOpen returns active open shifts with clock_in before
	// openedBefore, oldest first.
	ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]Attendance, error)

	// Mutate locks the active record, applies fn and persists the result in
	// one transaction. An error from fn aborts without writing.
	Mutate(ctx context.Context, id string, fn func(*Attendance) error) (Attendance, error)
}
