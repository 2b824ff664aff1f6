package access

import "slices"

// Scope is the set of records a principal may list. Unrestricted means no
// business filter; otherwise BusinessIDs bounds the query and StaffID, when
// set, narrows it to one staff member.
type Scope struct {
	Unrestricted bool
	BusinessIDs  []string
	StaffID      string
}

// Empty reports whether the scope can match nothing.
func (s Scope) Empty() bool {
	return !s.Unrestricted && len(s.BusinessIDs) == 0
}

// ScopeOf resolves the listing scope for p.
func ScopeOf(p Principal) Scope {
	switch p := p.(type) {
	case SuperAdmin:
		return Scope{Unrestricted: true}
	case Admin:
		return Scope{BusinessIDs: slices.Clone(p.BusinessIDs)}
	case Staff:
		return Scope{BusinessIDs: []string{p.BusinessID}, StaffID: p.ID}
	default:
		return Scope{}
	}
}

// AuthorizeBusiness allows administrative operations on businessID.
// Staff principals are always denied.
func AuthorizeBusiness(p Principal, businessID string) error {
	switch p := p.(type) {
	case SuperAdmin:
		return nil
	case Admin:
		if slices.Contains(p.BusinessIDs, businessID) {
			return nil
		}
		return ErrForbidden
	case Staff:
		return ErrForbidden
	case nil:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// AuthorizeBusinessMember allows read access to businessID for its admins
// and for staff employed there.
func AuthorizeBusinessMember(p Principal, businessID string) error {
	if s, ok := p.(Staff); ok {
		if s.BusinessID == businessID {
			return nil
		}
		return ErrForbidden
	}
	return AuthorizeBusiness(p, businessID)
}

// AuthorizeStaffRecord allows access to a record owned by staffID in
// businessID: staff only for themselves, admins for their businesses.
func AuthorizeStaffRecord(p Principal, staffID, businessID string) error {
	if s, ok := p.(Staff); ok {
		if s.ID == staffID && s.BusinessID == businessID {
			return nil
		}
		return ErrForbidden
	}
	return AuthorizeBusiness(p, businessID)
}

// RequireAdmin denies staff and anonymous principals.
func RequireAdmin(p Principal) error {
	switch p.(type) {
	case SuperAdmin, Admin:
		return nil
	case nil:
		return ErrUnauthenticated
	default:
		return ErrAdminRequired
	}
}

// RequireSuperAdmin denies everything but SuperAdmin.
func RequireSuperAdmin(p Principal) error {
	switch p.(type) {
	case SuperAdmin:
		return nil
	case nil:
		return ErrUnauthenticated
	default:
		return ErrSuperAdminRequired
	}
}

// RequireStaff returns the staff principal behind p.
func RequireStaff(p Principal) (Staff, error) {
	switch p := p.(type) {
	case Staff:
		return p, nil
	case nil:
		return Staff{}, ErrUnauthenticated
	default:
		return Staff{}, ErrStaffRequired
	}
}
