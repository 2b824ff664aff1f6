package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const openShiftConstraint = "uq_attendance_open_shift"

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.staff_id, a.business_id, a.clock_in, a.clock_out, a.hours_worked,
	a.clock_in_latitude, a.clock_in_longitude, a.clock_in_proof_url,
	a.status, a.notes, a.admin_notes, a.approved_by, a.approved_at,
	a.edited_by, a.edited_at, a.payroll_id, a.is_active, a.created_at, a.updated_at`

const attendanceJoinedColumns = attendanceColumns + `,
	s.first_name, s.last_name, s.position`

const attendanceJoin = `
	FROM attendance_records a
	LEFT JOIN staff s ON s.id = a.staff_id`

func attendanceScanTargets(att *attendance.Attendance, hours *decimal.NullDecimal) []interface{} {
	return []interface{}{
		&att.ID, &att.StaffID, &att.BusinessID, &att.ClockIn, &att.ClockOut, hours,
		&att.ClockInLatitude, &att.ClockInLongitude, &att.ClockInProofURL,
		&att.Status, &att.Notes, &att.AdminNotes, &att.ApprovedBy, &att.ApprovedAt,
		&att.EditedBy, &att.EditedAt, &att.PayrollID, &att.IsActive, &att.CreatedAt, &att.UpdatedAt,
	}
}

func scanAttendance(row pgx.Row, joined bool) (attendance.Attendance, error) {
	var att attendance.Attendance
	var hours decimal.NullDecimal
	targets := attendanceScanTargets(&att, &hours)
	if joined {
		targets = append(targets, &att.StaffFirstName, &att.StaffLastName, &att.StaffPosition)
	}
	if err := row.Scan(targets...); err != nil {
		return attendance.Attendance{}, err
	}
	if hours.Valid {
		att.HoursWorked = &hours.Decimal
	}
	return att, nil
}

// CreateOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateOpen(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := r.db.Pool

	id, err := newID()
	if err != nil {
		return attendance.Attendance{}, err
	}

	query := `
		INSERT INTO attendance_records AS a (
			id, staff_id, business_id, clock_in,
			clock_in_latitude, clock_in_longitude, clock_in_proof_url,
			status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		id,
		newAttendance.StaffID,
		newAttendance.BusinessID,
		newAttendance.ClockIn,
		newAttendance.ClockInLatitude,
		newAttendance.ClockInLongitude,
		newAttendance.ClockInProofURL,
		attendance.StatusPending,
		newAttendance.Notes,
	), false)
	if err != nil {
		if constraint, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok && constraint == openShiftConstraint {
			open, getErr := r.GetOpenShift(ctx, newAttendance.StaffID)
			if getErr != nil {
				// The open shift was closed between the insert and this read.
				return attendance.Attendance{}, &attendance.OpenShiftError{}
			}
			return attendance.Attendance{}, &attendance.OpenShiftError{ExistingID: open.ID}
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := r.db.Pool

	query := `SELECT ` + attendanceJoinedColumns + attendanceJoin + ` WHERE a.id = $1 AND a.is_active = TRUE`

	att, err := scanAttendance(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// GetOpenShift implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetOpenShift(ctx context.Context, staffID string) (attendance.Attendance, error) {
	q := r.db.Pool

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		WHERE a.staff_id = $1 AND a.clock_out IS NULL AND a.is_active = TRUE
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, staffID), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrNoOpenShift
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open shift: %w", err)
	}

	return att, nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Attendance, int64, error) {
	if filter.Scope.Empty() {
		return []attendance.Attendance{}, 0, nil
	}

	q := r.db.Pool

	var w whereBuilder
	activeOnly(&w, "a", filter.IncludeInactive)
	if !filter.Scope.Unrestricted {
		w.add("a.business_id = ANY(?)", filter.Scope.BusinessIDs)
	}
	if filter.Scope.StaffID != "" {
		w.add("a.staff_id = ?", filter.Scope.StaffID)
	}
	if filter.BusinessID != "" {
		w.add("a.business_id = ?", filter.BusinessID)
	}
	if filter.StaffID != "" {
		w.add("a.staff_id = ?", filter.StaffID)
	}
	if filter.Status != "" {
		w.add("a.status = ?", string(filter.Status))
	}
	if filter.From != nil {
		w.add("a.clock_in >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("a.clock_in < ?", *filter.To)
	}

	// Count total
	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_records a WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	where := w.sql()
	limitArg := w.next(limit)
	offsetArg := w.next(pageOffset(filter.Page, limit))

	selectQuery := fmt.Sprintf(`
		SELECT %s %s
		WHERE %s
		ORDER BY a.clock_in DESC, a.id DESC
		LIMIT %s OFFSET %s
	`, attendanceJoinedColumns, attendanceJoin, where, limitArg, offsetArg)

	records, err := r.collect(ctx, q, selectQuery, true, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListPayable implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListPayable(ctx context.Context, staffID, businessID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := r.db.Pool

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		WHERE a.staff_id = $1
		  AND a.business_id = $2
		  AND a.status = 'approved'
		  AND a.is_active = TRUE
		  AND a.payroll_id IS NULL
		  AND a.clock_out IS NOT NULL
		  AND a.clock_in >= $3
		  AND a.clock_in < $4
		ORDER BY a.clock_in ASC, a.id ASC
	`

	return r.collect(ctx, q, query, false, staffID, businessID, from, to)
}

// ListStaleOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]attendance.Attendance, error) {
	q := r.db.Pool

	query := `SELECT ` + attendanceJoinedColumns + attendanceJoin + `
		WHERE a.clock_out IS NULL
		  AND a.is_active = TRUE
		  AND a.clock_in < $1
		ORDER BY a.clock_in ASC, a.id ASC
	`

	return r.collect(ctx, q, query, true, openedBefore)
}

// Mutate implements attendance.AttendanceRepository.
func (r *attendanceRepository) Mutate(ctx context.Context, id string, fn func(*attendance.Attendance) error) (attendance.Attendance, error) {
	var updated attendance.Attendance

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		lockQuery := `
			SELECT ` + attendanceColumns + `
			FROM attendance_records a
			WHERE a.id = $1 AND a.is_active = TRUE
			FOR UPDATE
		`
		current, err := scanAttendance(tx.QueryRow(ctx, lockQuery, id), false)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to lock attendance: %w", err)
		}

		if err := fn(&current); err != nil {
			return err
		}

		updateQuery := `
			UPDATE attendance_records AS a SET
				clock_in = $2, clock_out = $3, hours_worked = $4,
				status = $5, notes = $6, admin_notes = $7,
				approved_by = $8, approved_at = $9,
				edited_by = $10, edited_at = $11,
				is_active = $12, updated_at = NOW()
			WHERE a.id = $1
			RETURNING ` + attendanceColumns

		updated, err = scanAttendance(tx.QueryRow(ctx, updateQuery,
			current.ID, current.ClockIn, current.ClockOut, nullDecimal(current.HoursWorked),
			current.Status, current.Notes, current.AdminNotes,
			current.ApprovedBy, current.ApprovedAt,
			current.EditedBy, current.EditedAt,
			current.IsActive,
		), false)
		if err != nil {
			if _, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
				return &attendance.OpenShiftError{}
			}
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}

	return updated, nil
}

func (r *attendanceRepository) collect(ctx context.Context, q database.Querier, query string, joined bool, args ...interface{}) ([]attendance.Attendance, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	records := []attendance.Attendance{}
	for rows.Next() {
		att, err := scanAttendance(rows, joined)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return records, nil
}
