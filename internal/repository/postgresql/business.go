package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type businessRepository struct {
	db *database.DB
}

func NewBusinessRepository(db *database.DB) business.BusinessRepository {
	return &businessRepository{db: db}
}

const businessColumns = `
	b.id, b.name, b.slug, b.email, b.latitude, b.longitude, b.radius_meters,
	b.is_active, b.created_at, b.updated_at`

func scanBusiness(row pgx.Row) (business.Business, error) {
	var b business.Business
	err := row.Scan(
		&b.ID, &b.Name, &b.Slug, &b.Email, &b.Latitude, &b.Longitude, &b.RadiusMeters,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create implements business.BusinessRepository.
func (r *businessRepository) Create(ctx context.Context, b business.Business) (business.Business, error) {
	q := r.db.Pool

	id, err := newID()
	if err != nil {
		return business.Business{}, err
	}

	query := `
		INSERT INTO businesses AS b (id, name, slug, email, latitude, longitude, radius_meters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + businessColumns

	created, err := scanBusiness(q.QueryRow(ctx, query,
		id, b.Name, b.Slug, b.Email, b.Latitude, b.Longitude, b.RadiusMeters,
	))
	if err != nil {
		if _, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
			return business.Business{}, business.ErrSlugExists
		}
		return business.Business{}, fmt.Errorf("failed to create business: %w", err)
	}

	return created, nil
}

// GetByID implements business.BusinessRepository.
func (r *businessRepository) GetByID(ctx context.Context, id string) (business.Business, error) {
	q := r.db.Pool

	query := `SELECT ` + businessColumns + ` FROM businesses b WHERE b.id = $1 AND b.is_active = TRUE`

	b, err := scanBusiness(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return business.Business{}, business.ErrBusinessNotFound
		}
		return business.Business{}, fmt.Errorf("failed to get business by ID: %w", err)
	}

	return b, nil
}

// List implements business.BusinessRepository.
func (r *businessRepository) List(ctx context.Context, scope access.Scope) ([]business.Business, error) {
	if scope.Empty() {
		return []business.Business{}, nil
	}

	q := r.db.Pool

	var w whereBuilder
	activeOnly(&w, "b", false)
	if !scope.Unrestricted {
		w.add("b.id = ANY(?)", scope.BusinessIDs)
	}

	query := `SELECT ` + businessColumns + ` FROM businesses b WHERE ` + w.sql() + ` ORDER BY b.name ASC`

	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	businesses := []business.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}

	return businesses, nil
}
