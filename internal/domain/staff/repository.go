package staff

import "context"

// ListFilter narrows ListByBusiness. Inactive rows are excluded unless
// IncludeInactive is set.
type ListFilter struct {
	Status          *Status
	IncludeInactive bool
	Page            int
	Limit           int
}

// StaffRepository reads return active staff only unless a filter opts in.
type StaffRepository interface {
	// Create inserts a staff member. Returns ErrEmailExists when another
	// active staff member uses the same email.
	Create(ctx context.Context, s Staff) (Staff, error)

	GetByID(ctx context.Context, id string) (Staff, error)

	// GetByIDIncludeInactive also finds soft-deleted staff. Used by history
	// reads such as payrolls of former staff.
	GetByIDIncludeInactive(ctx context.Context, id string) (Staff, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (Staff, error)

	ListByBusiness(ctx context.Context, businessID string, filter ListFilter) ([]Staff, int64, error)

	// ListEmployedByBusiness returns every active, non-terminated staff member
	// ordered by name. Used by batch payroll generation.
	ListEmployedByBusiness(ctx context.Context, businessID string) ([]Staff, error)

	Update(ctx context.Context, s Staff) (Staff, error)

	SoftDelete(ctx context.Context, id string) error
}
