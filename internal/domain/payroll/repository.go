package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
)

// ListFilter is the storage-level query. Period bounds select records whose
// period intersects [PeriodFrom, PeriodTo]. Inactive rows are excluded
// unless IncludeInactive is set.
type ListFilter struct {
	Scope           access.Scope
	BusinessID      string
	StaffID         string
	Status          PayrollStatus
	PeriodFrom      *time.Time
	PeriodTo        *time.Time
	IncludeInactive bool
	Page            int
	Limit           int // 0 returns every match
}

// PayrollRepository defines data access methods for payroll records.
// Reads return active records only unless a filter opts in.
type PayrollRepository interface {
	// Create inserts the record and claims every attendance id in
	// AttendanceIDs within one transaction. An active payroll covering an
	// intersecting period returns *PeriodConflictError; an attendance row
	// claimed in the meantime returns ErrAttendanceClaimed. Nothing is
	// written in either case.
	Create(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	// GetByID retrieves an active record with the staff projection joined.
	GetByID(ctx context.Context, id string) (PayrollRecord, error)

	// FindOverlapping returns the active record of staffID whose period
	// intersects [start, end], or ErrPayrollNotFound.
	FindOverlapping(ctx context.Context, staffID string, start, end time.Time) (PayrollRecord, error)

	// FindPaidOverlapping is FindOverlapping over paid records, including
	// deleted ones.
	FindPaidOverlapping(ctx context.Context, staffID string, start, end time.Time) (PayrollRecord, error)

	// List returns matching records, newest period first, plus the total count.
	List(ctx context.Context, filter ListFilter) ([]PayrollRecord, int64, error)

	// Mutate locks the active record, applies fn and persists the result in
	// one transaction. An error from fn aborts without writing.
	Mutate(ctx context.Context, id string, fn func(*PayrollRecord) error) (PayrollRecord, error)

	// SoftDelete deactivates the record. Attendance claims are released unless
	// the record was paid.
	SoftDelete(ctx context.Context, id string) error

	// CountByStatus counts active records of businessID per status.
	CountByStatus(ctx context.Context, businessID string, from, to *time.Time) (map[PayrollStatus]int64, error)

	// SumTotals aggregates amounts of active records of businessID.
	SumTotals(ctx context.Context, businessID string, from, to *time.Time) (Totals, error)
}
