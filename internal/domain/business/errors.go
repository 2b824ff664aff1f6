package business

import "errors"

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrSlugExists       = errors.New("business slug already exists")
)
