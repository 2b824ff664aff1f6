package access

import "errors"

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("you do not have access to this resource")
	ErrAdminRequired      = errors.New("admin access required")
	ErrSuperAdminRequired = errors.New("super admin access required")
	ErrStaffRequired      = errors.New("staff access required")
)
