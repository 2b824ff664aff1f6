package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type adminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) admin.AdminRepository {
	return &adminRepository{db: db}
}

const adminColumns = `id, email, name, password_hash, is_super_admin, is_active, created_at, updated_at`

func scanAdmin(row pgx.Row) (admin.Admin, error) {
	var a admin.Admin
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.IsSuperAdmin, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create implements admin.AdminRepository.
func (r *adminRepository) Create(ctx context.Context, a admin.Admin) (admin.Admin, error) {
	q := r.db.Pool

	id, err := newID()
	if err != nil {
		return admin.Admin{}, err
	}

	query := `
		INSERT INTO admins (id, email, name, password_hash, is_super_admin)
		VALUES ($1, LOWER($2), $3, $4, $5)
		RETURNING ` + adminColumns

	created, err := scanAdmin(q.QueryRow(ctx, query, id, a.Email, a.Name, a.PasswordHash, a.IsSuperAdmin))
	if err != nil {
		if _, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
			return admin.Admin{}, admin.ErrEmailExists
		}
		return admin.Admin{}, fmt.Errorf("failed to create admin: %w", err)
	}
	return created, nil
}

// GetByID implements admin.AdminRepository.
func (r *adminRepository) GetByID(ctx context.Context, id string) (admin.Admin, error) {
	q := r.db.Pool

	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1 AND is_active = TRUE`

	a, err := scanAdmin(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return admin.Admin{}, admin.ErrAdminNotFound
		}
		return admin.Admin{}, fmt.Errorf("failed to get admin by ID: %w", err)
	}
	return a, nil
}

// GetByEmail implements admin.AdminRepository.
func (r *adminRepository) GetByEmail(ctx context.Context, email string) (admin.Admin, error) {
	q := r.db.Pool

	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = LOWER($1) AND is_active = TRUE`

	a, err := scanAdmin(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return admin.Admin{}, admin.ErrAdminNotFound
		}
		return admin.Admin{}, fmt.Errorf("failed to get admin by email: %w", err)
	}
	return a, nil
}

// ListBusinessIDs implements admin.AdminRepository.
func (r *adminRepository) ListBusinessIDs(ctx context.Context, adminID string) ([]string, error) {
	q := r.db.Pool

	query := `
		SELECT ab.business_id
		FROM admin_businesses ab
		JOIN businesses b ON b.id = ab.business_id AND b.is_active = TRUE
		WHERE ab.admin_id = $1
		ORDER BY ab.business_id
	`

	rows, err := q.Query(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin businesses: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan admin businesses: %w", err)
	}
	return ids, nil
}

// GrantBusiness implements admin.AdminRepository.
func (r *adminRepository) GrantBusiness(ctx context.Context, adminID, businessID string) error {
	q := r.db.Pool

	query := `
		INSERT INTO admin_businesses (admin_id, business_id)
		VALUES ($1, $2)
		ON CONFLICT (admin_id, business_id) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, adminID, businessID); err != nil {
		if constraint, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
			if constraint == "admin_businesses_business_id_fkey" {
				return business.ErrBusinessNotFound
			}
			return admin.ErrAdminNotFound
		}
		return fmt.Errorf("failed to grant business membership: %w", err)
	}
	return nil
}

// RevokeBusiness implements admin.AdminRepository.
func (r *adminRepository) RevokeBusiness(ctx context.Context, adminID, businessID string) error {
	q := r.db.Pool

	if _, err := q.Exec(ctx, `DELETE FROM admin_businesses WHERE admin_id = $1 AND business_id = $2`, adminID, businessID); err != nil {
		return fmt.Errorf("failed to revoke business membership: %w", err)
	}
	return nil
}
