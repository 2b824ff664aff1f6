package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const payrollPeriodConstraint = "ex_payroll_staff_period"

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	p.id, p.staff_id, p.business_id, p.period_start, p.period_end,
	p.total_hours_worked, p.total_days_worked, p.salary_type, p.base_salary,
	p.calculated_pay, p.deductions, p.additions, p.net_pay,
	p.attendance_ids, p.attendance_count, p.status,
	p.generated_by, p.approved_by, p.approved_at, p.paid_by, p.paid_at,
	p.notes, p.is_active, p.created_at, p.updated_at`

const payrollJoinedColumns = payrollColumns + `,
	s.first_name, s.last_name, s.position, s.email`

const payrollJoin = `
	FROM payroll_records p
	LEFT JOIN staff s ON s.id = p.staff_id`

func scanPayroll(row pgx.Row, joined bool) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var deductions, additions []byte
	var firstName, lastName, position, email *string

	targets := []interface{}{
		&rec.ID, &rec.StaffID, &rec.BusinessID, &rec.PeriodStart, &rec.PeriodEnd,
		&rec.TotalHoursWorked, &rec.TotalDaysWorked, &rec.SalaryType, &rec.BaseSalary,
		&rec.CalculatedPay, &deductions, &additions, &rec.NetPay,
		&rec.AttendanceIDs, &rec.AttendanceCount, &rec.Status,
		&rec.GeneratedBy, &rec.ApprovedBy, &rec.ApprovedAt, &rec.PaidBy, &rec.PaidAt,
		&rec.Notes, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if joined {
		targets = append(targets, &firstName, &lastName, &position, &email)
	}
	if err := row.Scan(targets...); err != nil {
		return payroll.PayrollRecord{}, err
	}

	if err := json.Unmarshal(deductions, &rec.Deductions); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	if err := json.Unmarshal(additions, &rec.Additions); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode additions: %w", err)
	}
	if rec.AttendanceIDs == nil {
		rec.AttendanceIDs = []string{}
	}
	if firstName != nil {
		rec.Staff = &payroll.StaffSummary{FirstName: *firstName}
		if lastName != nil {
			rec.Staff.LastName = *lastName
		}
		if position != nil {
			rec.Staff.Position = *position
		}
		if email != nil {
			rec.Staff.Email = *email
		}
	}
	return rec, nil
}

func encodeAdjustments(items []payroll.Adjustment) ([]byte, error) {
	if items == nil {
		items = []payroll.Adjustment{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode adjustments: %w", err)
	}
	return b, nil
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	id, err := newID()
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	deductions, err := encodeAdjustments(record.Deductions)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	additions, err := encodeAdjustments(record.Additions)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	attendanceIDs := record.AttendanceIDs
	if attendanceIDs == nil {
		attendanceIDs = []string{}
	}

	var created payroll.PayrollRecord
	err = WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO payroll_records AS p (
				id, staff_id, business_id, period_start, period_end,
				total_hours_worked, total_days_worked, salary_type, base_salary,
				calculated_pay, deductions, additions, net_pay,
				attendance_ids, attendance_count, status, generated_by, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING ` + payrollColumns

		var err error
		created, err = scanPayroll(tx.QueryRow(ctx, insertQuery,
			id, record.StaffID, record.BusinessID, record.PeriodStart, record.PeriodEnd,
			record.TotalHoursWorked, record.TotalDaysWorked, record.SalaryType, record.BaseSalary,
			record.CalculatedPay, deductions, additions, record.NetPay,
			attendanceIDs, len(attendanceIDs), record.Status, record.GeneratedBy, record.Notes,
		), false)
		if err != nil {
			return err
		}

		if len(attendanceIDs) == 0 {
			return nil
		}

		claimQuery := `
			UPDATE attendance_records
			SET payroll_id = $1, updated_at = NOW()
			WHERE id = ANY($2)
			  AND payroll_id IS NULL
			  AND status = 'approved'
			  AND is_active = TRUE
		`
		tag, err := tx.Exec(ctx, claimQuery, id, attendanceIDs)
		if err != nil {
			return fmt.Errorf("failed to claim attendance: %w", err)
		}
		if tag.RowsAffected() != int64(len(attendanceIDs)) {
			return payroll.ErrAttendanceClaimed
		}
		return nil
	})
	if err != nil {
		if constraint, ok := database.ConstraintViolation(err, database.CodeExclusionViolation); ok && constraint == payrollPeriodConstraint {
			return payroll.PayrollRecord{}, r.periodConflict(ctx, record)
		}
		if errors.Is(err, payroll.ErrAttendanceClaimed) {
			return payroll.PayrollRecord{}, err
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll: %w", err)
	}

	return created, nil
}

// periodConflict resolves the record that blocked an insert.
func (r *payrollRepository) periodConflict(ctx context.Context, record payroll.PayrollRecord) error {
	existing, err := r.FindOverlapping(ctx, record.StaffID, record.PeriodStart, record.PeriodEnd)
	if err != nil {
		// The blocking record was removed after the insert failed.
		return &payroll.PeriodConflictError{Err: payroll.ErrPeriodOverlap}
	}
	conflict := &payroll.PeriodConflictError{ExistingID: existing.ID, Err: payroll.ErrPeriodOverlap}
	if existing.PeriodStart.Equal(record.PeriodStart) && existing.PeriodEnd.Equal(record.PeriodEnd) {
		conflict.Err = payroll.ErrPeriodExists
	}
	return conflict
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := r.db.Pool

	query := `SELECT ` + payrollJoinedColumns + payrollJoin + ` WHERE p.id = $1 AND p.is_active = TRUE`

	rec, err := scanPayroll(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll by ID: %w", err)
	}

	return rec, nil
}

// FindOverlapping implements payroll.PayrollRepository.
func (r *payrollRepository) FindOverlapping(ctx context.Context, staffID string, start, end time.Time) (payroll.PayrollRecord, error) {
	q := r.db.Pool

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_records p
		WHERE p.staff_id = $1
		  AND p.is_active = TRUE
		  AND p.period_start <= $3
		  AND p.period_end >= $2
		ORDER BY p.period_start ASC
		LIMIT 1
	`

	rec, err := scanPayroll(q.QueryRow(ctx, query, staffID, start, end), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to find overlapping payroll: %w", err)
	}

	return rec, nil
}

// FindPaidOverlapping implements payroll.PayrollRepository.
func (r *payrollRepository) FindPaidOverlapping(ctx context.Context, staffID string, start, end time.Time) (payroll.PayrollRecord, error) {
	q := r.db.Pool

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_records p
		WHERE p.staff_id = $1
		  AND p.status = 'paid'
		  AND p.period_start <= $3
		  AND p.period_end >= $2
		ORDER BY p.period_start ASC
		LIMIT 1
	`

	rec, err := scanPayroll(q.QueryRow(ctx, query, staffID, start, end), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to find paid payroll: %w", err)
	}

	return rec, nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.ListFilter) ([]payroll.PayrollRecord, int64, error) {
	if filter.Scope.Empty() {
		return []payroll.PayrollRecord{}, 0, nil
	}

	q := r.db.Pool

	var w whereBuilder
	activeOnly(&w, "p", filter.IncludeInactive)
	if !filter.Scope.Unrestricted {
		w.add("p.business_id = ANY(?)", filter.Scope.BusinessIDs)
	}
	if filter.Scope.StaffID != "" {
		w.add("p.staff_id = ?", filter.Scope.StaffID)
	}
	if filter.BusinessID != "" {
		w.add("p.business_id = ?", filter.BusinessID)
	}
	if filter.StaffID != "" {
		w.add("p.staff_id = ?", filter.StaffID)
	}
	if filter.Status != "" {
		w.add("p.status = ?", string(filter.Status))
	}
	if filter.PeriodFrom != nil {
		w.add("p.period_end >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		w.add("p.period_start <= ?", *filter.PeriodTo)
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_records p WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", err)
	}

	where := w.sql()
	pagination := ""
	if filter.Limit > 0 {
		pagination = fmt.Sprintf("LIMIT %s OFFSET %s", w.next(filter.Limit), w.next(pageOffset(filter.Page, filter.Limit)))
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s %s
		WHERE %s
		ORDER BY p.period_start DESC, p.id DESC
		%s
	`, payrollJoinedColumns, payrollJoin, where, pagination)

	rows, err := q.Query(ctx, selectQuery, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	records := []payroll.PayrollRecord{}
	for rows.Next() {
		rec, err := scanPayroll(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payrolls: %w", err)
	}

	return records, total, nil
}

// Mutate implements payroll.PayrollRepository.
func (r *payrollRepository) Mutate(ctx context.Context, id string, fn func(*payroll.PayrollRecord) error) (payroll.PayrollRecord, error) {
	var updated payroll.PayrollRecord

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		lockQuery := `
			SELECT ` + payrollColumns + `
			FROM payroll_records p
			WHERE p.id = $1 AND p.is_active = TRUE
			FOR UPDATE
		`
		current, err := scanPayroll(tx.QueryRow(ctx, lockQuery, id), false)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payroll.ErrPayrollNotFound
			}
			return fmt.Errorf("failed to lock payroll: %w", err)
		}

		if err := fn(&current); err != nil {
			return err
		}

		deductions, err := encodeAdjustments(current.Deductions)
		if err != nil {
			return err
		}
		additions, err := encodeAdjustments(current.Additions)
		if err != nil {
			return err
		}

		updateQuery := `
			UPDATE payroll_records AS p SET
				deductions = $2, additions = $3, net_pay = $4, status = $5,
				approved_by = $6, approved_at = $7, paid_by = $8, paid_at = $9,
				notes = $10, updated_at = NOW()
			WHERE p.id = $1
			RETURNING ` + payrollColumns

		updated, err = scanPayroll(tx.QueryRow(ctx, updateQuery,
			current.ID, deductions, additions, current.NetPay, current.Status,
			current.ApprovedBy, current.ApprovedAt, current.PaidBy, current.PaidAt,
			current.Notes,
		), false)
		if err != nil {
			return fmt.Errorf("failed to update payroll: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	return updated, nil
}

// SoftDelete implements payroll.PayrollRepository.
func (r *payrollRepository) SoftDelete(ctx context.Context, id string) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var status payroll.PayrollStatus
		err := tx.QueryRow(ctx, `
			UPDATE payroll_records
			SET is_active = FALSE, updated_at = NOW()
			WHERE id = $1 AND is_active = TRUE
			RETURNING status
		`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payroll.ErrPayrollNotFound
			}
			return fmt.Errorf("failed to delete payroll: %w", err)
		}

		// Paid shifts stay claimed so they cannot be paid again.
		if status == payroll.StatusPaid {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE attendance_records
			SET payroll_id = NULL, updated_at = NOW()
			WHERE payroll_id = $1
		`, id); err != nil {
			return fmt.Errorf("failed to release attendance claims: %w", err)
		}
		return nil
	})
}

func businessPeriodWhere(businessID string, from, to *time.Time) whereBuilder {
	var w whereBuilder
	activeOnly(&w, "p", false)
	w.add("p.business_id = ?", businessID)
	if from != nil {
		w.add("p.period_end >= ?", *from)
	}
	if to != nil {
		w.add("p.period_start <= ?", *to)
	}
	return w
}

// CountByStatus implements payroll.PayrollRepository.
func (r *payrollRepository) CountByStatus(ctx context.Context, businessID string, from, to *time.Time) (map[payroll.PayrollStatus]int64, error) {
	q := r.db.Pool
	w := businessPeriodWhere(businessID, from, to)

	rows, err := q.Query(ctx, "SELECT p.status, COUNT(*) FROM payroll_records p WHERE "+w.sql()+" GROUP BY p.status", w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count payrolls by status: %w", err)
	}
	defer rows.Close()

	counts := map[payroll.PayrollStatus]int64{}
	for rows.Next() {
		var status payroll.PayrollStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan payroll count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll counts: %w", err)
	}

	return counts, nil
}

// SumTotals implements payroll.PayrollRepository.
func (r *payrollRepository) SumTotals(ctx context.Context, businessID string, from, to *time.Time) (payroll.Totals, error) {
	q := r.db.Pool
	w := businessPeriodWhere(businessID, from, to)

	query := `
		SELECT COUNT(*),
			COALESCE(SUM(p.calculated_pay), 0),
			COALESCE(SUM(p.net_pay), 0),
			COALESCE(SUM(p.total_hours_worked), 0)
		FROM payroll_records p
		WHERE ` + w.sql()

	var totals payroll.Totals
	if err := q.QueryRow(ctx, query, w.args...).Scan(
		&totals.Records, &totals.CalculatedPay, &totals.NetPay, &totals.TotalHours,
	); err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to sum payrolls: %w", err)
	}

	return totals, nil
}
