package attendance

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
)

const (
	maxNotesLength = 1000
	maxProofSize   = 10 << 20 // 10MB
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockInRequest struct {
	Notes      *string               `json:"notes,omitempty"`
	Latitude   *float64              `json:"latitude,omitempty"`
	Longitude  *float64              `json:"longitude,omitempty"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	validateNotes(&errs, "notes", r.Notes)

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("latitude", "latitude and longitude must be provided together")
	} else if r.Latitude != nil && !validator.IsValidCoordinate(*r.Latitude, *r.Longitude) {
		errs.Add("latitude", "latitude must be between -90 and 90 and longitude between -180 and 180")
	}

	if r.FileHeader != nil {
		ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs.Add("photo", "invalid file type: only jpg, jpeg, png allowed")
		} else if r.FileHeader.Size > maxProofSize {
			errs.Add("photo", "attendance proof photo size must not exceed 10MB")
		}
	}

	return errs.Err()
}

type ClockOutRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors
	validateNotes(&errs, "notes", r.Notes)
	return errs.Err()
}

type ReviewRequest struct {
	ID         string  `json:"-"`
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid attendance id")
	}
	if r.Status != string(StatusApproved) && r.Status != string(StatusRejected) {
		errs.Add("status", "status must be approved or rejected")
	}
	validateNotes(&errs, "admin_notes", r.AdminNotes)

	return errs.Err()
}

type EditRequest struct {
	ID         string  `json:"-"`
	ClockIn    *string `json:"clock_in,omitempty"`
	ClockOut   *string `json:"clock_out,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	AdminNotes *string `json:"admin_notes,omitempty"`
	Status     *string `json:"status,omitempty"`

	clockIn  *time.Time
	clockOut *time.Time
}

func (r *EditRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid attendance id")
	}
	if r.ClockIn == nil && r.ClockOut == nil && r.Notes == nil && r.AdminNotes == nil && r.Status == nil {
		errs.Add("body", "at least one field must be provided")
	}
	if r.ClockIn != nil {
		t, ok := validator.IsValidDateTime(*r.ClockIn)
		if !ok {
			errs.Add("clock_in", "clock_in must be an RFC3339 timestamp")
		} else {
			t = t.UTC()
			r.clockIn = &t
		}
	}
	if r.ClockOut != nil {
		t, ok := validator.IsValidDateTime(*r.ClockOut)
		if !ok {
			errs.Add("clock_out", "clock_out must be an RFC3339 timestamp")
		} else {
			t = t.UTC()
			r.clockOut = &t
		}
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		errs.Add("status", "status must be one of pending, approved, rejected")
	}
	validateNotes(&errs, "notes", r.Notes)
	validateNotes(&errs, "admin_notes", r.AdminNotes)

	return errs.Err()
}

// ParsedClockIn and ParsedClockOut are set by Validate.
func (r *EditRequest) ParsedClockIn() *time.Time  { return r.clockIn }
func (r *EditRequest) ParsedClockOut() *time.Time { return r.clockOut }

// AttendanceFilter is the query-string filter for attendance listings.
type AttendanceFilter struct {
	BusinessID      *string
	StaffID         *string
	Status          *string
	StartDate       *string // YYYY-MM-DD, inclusive
	EndDate         *string // YYYY-MM-DD, inclusive
	IncludeInactive bool
	Page            int
	Limit           int
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.BusinessID != nil && !validator.IsValidUUID(*f.BusinessID) {
		errs.Add("business_id", "business_id must be a valid UUID")
	}
	if f.StaffID != nil && !validator.IsValidUUID(*f.StaffID) {
		errs.Add("staff_id", "staff_id must be a valid UUID")
	}
	if f.Status != nil && !Status(*f.Status).Valid() {
		errs.Add("status", "status must be one of pending, approved, rejected")
	}

	var start, end time.Time
	var okStart, okEnd bool
	if f.StartDate != nil {
		if start, okStart = validator.IsValidDate(*f.StartDate); !okStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil {
		if end, okEnd = validator.IsValidDate(*f.EndDate); !okEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	return errs.Err()
}

type AttendanceResponse struct {
	ID              string  `json:"id"`
	StaffID         string  `json:"staff_id"`
	BusinessID      string  `json:"business_id"`
	StaffName       *string `json:"staff_name,omitempty"`
	StaffPosition   *string `json:"staff_position,omitempty"`
	ClockIn         string  `json:"clock_in"`
	ClockOut        *string `json:"clock_out"`
	HoursWorked     *string `json:"hours_worked"`
	ClockInProofURL *string `json:"clock_in_proof_url,omitempty"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes"`
	AdminNotes      *string `json:"admin_notes"`
	ApprovedBy      *string `json:"approved_by"`
	ApprovedAt      *string `json:"approved_at"`
	EditedBy        *string `json:"edited_by,omitempty"`
	EditedAt        *string `json:"edited_at,omitempty"`
	PayrollID       *string `json:"payroll_id"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

func validateNotes(errs *validator.ValidationErrors, field string, notes *string) {
	if notes != nil && len(*notes) > maxNotesLength {
		errs.Add(field, field+" must not exceed 1000 characters")
	}
}
