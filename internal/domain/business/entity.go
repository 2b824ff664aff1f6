package business

import "time"

// Business is the tenant boundary. Every staff, attendance and payroll
// record belongs to exactly one business.
type Business struct {
	ID           string
	Name         string
	Slug         string
	Email        *string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasGeofence reports whether clock-ins must be within RadiusMeters of the
// business location.
func (b Business) HasGeofence() bool {
	return b.Latitude != nil && b.Longitude != nil && b.RadiusMeters != nil && *b.RadiusMeters > 0
}
