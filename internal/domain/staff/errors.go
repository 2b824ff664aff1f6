package staff

import "errors"

var (
	ErrStaffNotFound     = errors.New("staff not found")
	ErrStaffNotActive    = errors.New("staff member is not active")
	ErrEmailExists       = errors.New("email already registered")
	ErrSalaryMissing     = errors.New("staff member has no salary on record")
	ErrInvalidSalaryType = errors.New("staff member has an unknown salary type")
)
