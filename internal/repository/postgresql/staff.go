package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type staffRepository struct {
	db *database.DB
}

func NewStaffRepository(db *database.DB) staff.StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `
	s.id, s.business_id, s.first_name, s.last_name, s.email, s.position,
	s.salary, s.salary_type, s.status, s.password_hash, s.is_active,
	s.created_at, s.updated_at`

func scanStaff(row pgx.Row) (staff.Staff, error) {
	var s staff.Staff
	var salary decimal.NullDecimal
	err := row.Scan(
		&s.ID, &s.BusinessID, &s.FirstName, &s.LastName, &s.Email, &s.Position,
		&salary, &s.SalaryType, &s.Status, &s.PasswordHash, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if salary.Valid {
		s.Salary = &salary.Decimal
	}
	return s, err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// Create implements staff.StaffRepository.
func (r *staffRepository) Create(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := r.db.Pool

	id, err := newID()
	if err != nil {
		return staff.Staff{}, err
	}

	query := `
		INSERT INTO staff AS s (
			id, business_id, first_name, last_name, email, position,
			salary, salary_type, status, password_hash
		) VALUES ($1, $2, $3, $4, LOWER($5), $6, $7, $8, $9, $10)
		RETURNING ` + staffColumns

	created, err := scanStaff(q.QueryRow(ctx, query,
		id, s.BusinessID, s.FirstName, s.LastName, s.Email, s.Position,
		nullDecimal(s.Salary), s.SalaryType, s.Status, s.PasswordHash,
	))
	if err != nil {
		if _, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
			return staff.Staff{}, staff.ErrEmailExists
		}
		if _, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
			return staff.Staff{}, business.ErrBusinessNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to create staff: %w", err)
	}

	return created, nil
}

// GetByID implements staff.StaffRepository.
func (r *staffRepository) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	q := r.db.Pool

	query := `SELECT ` + staffColumns + ` FROM staff s WHERE s.id = $1 AND s.is_active = TRUE`

	s, err := scanStaff(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff by ID: %w", err)
	}
	return s, nil
}

// GetByIDIncludeInactive implements staff.StaffRepository.
func (r *staffRepository) GetByIDIncludeInactive(ctx context.Context, id string) (staff.Staff, error) {
	q := r.db.Pool

	query := `SELECT ` + staffColumns + ` FROM staff s WHERE s.id = $1`

	s, err := scanStaff(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff by ID: %w", err)
	}
	return s, nil
}

// GetByEmail implements staff.StaffRepository.
func (r *staffRepository) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	q := r.db.Pool

	query := `SELECT ` + staffColumns + ` FROM staff s WHERE LOWER(s.email) = LOWER($1) AND s.is_active = TRUE`

	s, err := scanStaff(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff by email: %w", err)
	}
	return s, nil
}

// ListByBusiness implements staff.StaffRepository.
func (r *staffRepository) ListByBusiness(ctx context.Context, businessID string, filter staff.ListFilter) ([]staff.Staff, int64, error) {
	q := r.db.Pool

	var w whereBuilder
	activeOnly(&w, "s", filter.IncludeInactive)
	w.add("s.business_id = ?", businessID)
	if filter.Status != nil {
		w.add("s.status = ?", string(*filter.Status))
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM staff s WHERE `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count staff: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	where := w.sql()
	limitArg := w.next(limit)
	offsetArg := w.next(pageOffset(filter.Page, limit))

	query := fmt.Sprintf(`
		SELECT %s
		FROM staff s
		WHERE %s
		ORDER BY s.last_name ASC, s.first_name ASC, s.id ASC
		LIMIT %s OFFSET %s
	`, staffColumns, where, limitArg, offsetArg)

	members, err := r.collect(ctx, q, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// ListEmployedByBusiness implements staff.StaffRepository.
func (r *staffRepository) ListEmployedByBusiness(ctx context.Context, businessID string) ([]staff.Staff, error) {
	q := r.db.Pool

	query := `
		SELECT ` + staffColumns + `
		FROM staff s
		WHERE s.business_id = $1 AND s.is_active = TRUE AND s.status <> 'terminated'
		ORDER BY s.last_name ASC, s.first_name ASC, s.id ASC
	`

	return r.collect(ctx, q, query, businessID)
}

// Update implements staff.StaffRepository.
func (r *staffRepository) Update(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := r.db.Pool

	query := `
		UPDATE staff AS s SET
			first_name = $2, last_name = $3, position = $4,
			salary = $5, salary_type = $6, status = $7, updated_at = NOW()
		WHERE s.id = $1 AND s.is_active = TRUE
		RETURNING ` + staffColumns

	updated, err := scanStaff(q.QueryRow(ctx, query,
		s.ID, s.FirstName, s.LastName, s.Position, nullDecimal(s.Salary), s.SalaryType, s.Status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to update staff: %w", err)
	}
	return updated, nil
}

// SoftDelete implements staff.StaffRepository.
func (r *staffRepository) SoftDelete(ctx context.Context, id string) error {
	q := r.db.Pool

	tag, err := q.Exec(ctx, `UPDATE staff SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return staff.ErrStaffNotFound
	}
	return nil
}

func (r *staffRepository) collect(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]staff.Staff, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	members := []staff.Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		members = append(members, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff: %w", err)
	}
	return members, nil
}
