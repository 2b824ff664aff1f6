package access

// Principal is the authenticated caller. The set of implementations is
// closed: SuperAdmin, Admin and Staff.
type Principal interface {
	PrincipalID() string
	isPrincipal()
}

// SuperAdmin may act on every business.
type SuperAdmin struct {
	ID string
}

// Admin may act on the businesses in its membership list.
type Admin struct {
	ID          string
	BusinessIDs []string
}

// Staff may act on its own records inside its own business.
type Staff struct {
	ID         string
	BusinessID string
}

func (p SuperAdmin) PrincipalID() string { return p.ID }
func (p Admin) PrincipalID() string      { return p.ID }
func (p Staff) PrincipalID() string      { return p.ID }

func (SuperAdmin) isPrincipal() {}
func (Admin) isPrincipal()      {}
func (Staff) isPrincipal()      {}

// IsAdmin reports whether p is an Admin or SuperAdmin.
func IsAdmin(p Principal) bool {
	switch p.(type) {
	case SuperAdmin, Admin:
		return true
	default:
		return false
	}
}
