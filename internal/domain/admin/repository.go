package admin

import "context"

// AdminRepository reads return active admins only.
type AdminRepository interface {
	// Create inserts an admin. Returns ErrEmailExists on a duplicate email.
	Create(ctx context.Context, a Admin) (Admin, error)

	GetByID(ctx context.Context, id string) (Admin, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (Admin, error)

	// ListBusinessIDs returns the active businesses the admin is a member of.
	ListBusinessIDs(ctx context.Context, adminID string) ([]string, error)

	// GrantBusiness adds a membership. Granting twice is a no-op.
	GrantBusiness(ctx context.Context, adminID, businessID string) error

	// RevokeBusiness removes a membership. Revoking a missing one is a no-op.
	RevokeBusiness(ctx context.Context, adminID, businessID string) error
}
