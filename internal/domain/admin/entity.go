package admin

import "time"

type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsSuperAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
