package admin

import "errors"

var (
	ErrAdminNotFound    = errors.New("admin not found")
	ErrEmailExists      = errors.New("admin email already registered")
	ErrAlreadySuperUser = errors.New("super admins do not need business memberships")
)
