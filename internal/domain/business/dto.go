package business

import (
	"strings"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
)

type CreateBusinessRequest struct {
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Email        *string  `json:"email,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters *int     `json:"radius_meters,omitempty"`
}

func (r *CreateBusinessRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	}

	if !validator.IsValidSlug(r.Slug) {
		errs.Add("slug", "slug must be 3-100 lowercase letters, digits or single dashes")
	}

	if r.Email != nil && !validator.IsValidEmail(*r.Email) {
		errs.Add("email", "invalid email format")
	}

	hasLat, hasLon, hasRadius := r.Latitude != nil, r.Longitude != nil, r.RadiusMeters != nil
	if hasLat != hasLon || hasLat != hasRadius {
		errs.Add("latitude", "latitude, longitude and radius_meters must be provided together")
	} else if hasLat {
		if !validator.IsValidCoordinate(*r.Latitude, *r.Longitude) {
			errs.Add("latitude", "latitude must be between -90 and 90 and longitude between -180 and 180")
		}
		if *r.RadiusMeters <= 0 {
			errs.Add("radius_meters", "radius_meters must be positive")
		}
	}

	return errs.Err()
}

type GrantAdminRequest struct {
	AdminID string `json:"admin_id"`
}

func (r *GrantAdminRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidUUID(r.AdminID) {
		errs.Add("admin_id", "admin_id must be a valid UUID")
	}
	return errs.Err()
}

type BusinessResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Email        *string  `json:"email,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters *int     `json:"radius_meters,omitempty"`
	CreatedAt    string   `json:"created_at"`
}
