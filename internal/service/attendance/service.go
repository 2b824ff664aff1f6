package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/utils"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/service/file"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	staffRepo      staff.StaffRepository
	businessRepo   business.BusinessRepository
	fileService    file.FileService
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	staffRepo staff.StaffRepository,
	businessRepo business.BusinessRepository,
	fileService file.FileService,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		staffRepo:      staffRepo,
		businessRepo:   businessRepo,
		fileService:    fileService,
		now:            time.Now,
	}
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, p access.Principal, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	self, err := access.RequireStaff(p)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	member, err := s.staffRepo.GetByID(ctx, self.ID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get staff: %w", err)
	}
	if member.BusinessID != self.BusinessID {
		return attendance.AttendanceResponse{}, access.ErrForbidden
	}
	if !member.Employed() {
		return attendance.AttendanceResponse{}, staff.ErrStaffNotActive
	}

	biz, err := s.businessRepo.GetByID(ctx, member.BusinessID)
	if err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get business: %w", err)
	}
	if biz.HasGeofence() {
		if req.Latitude == nil || req.Longitude == nil {
			return attendance.AttendanceResponse{}, attendance.ErrLocationRequired
		}
		distanceMeters := utils.CalculateHaversineDistance(*req.Latitude, *req.Longitude, *biz.Latitude, *biz.Longitude)
		if distanceMeters > float64(*biz.RadiusMeters) {
			return attendance.AttendanceResponse{}, attendance.ErrOutsideAllowedRadius
		}
	}

	// Avoid storing a proof photo for a clock-in that is bound to fail.
	// CreateOpen still enforces the guard atomically.
	open, err := s.attendanceRepo.GetOpenShift(ctx, member.ID)
	if err == nil {
		return attendance.AttendanceResponse{}, &attendance.OpenShiftError{ExistingID: open.ID}
	}
	if !errors.Is(err, attendance.ErrNoOpenShift) {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check open shift: %w", err)
	}

	nowUTC := s.now().UTC()

	var proofURL *string
	if req.File != nil && req.FileHeader != nil {
		url, err := s.fileService.UploadAttendanceProof(ctx, member.ID, nowUTC, req.File, req.FileHeader.Filename)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to upload attendance proof: %w", err)
		}
		proofURL = &url
	}

	created, err := s.attendanceRepo.CreateOpen(ctx, attendance.Attendance{
		StaffID:          member.ID,
		BusinessID:       member.BusinessID,
		ClockIn:          nowUTC,
		ClockInLatitude:  req.Latitude,
		ClockInLongitude: req.Longitude,
		ClockInProofURL:  proofURL,
		Status:           attendance.StatusPending,
		Notes:            req.Notes,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrOpenShiftExists) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	created.StaffFirstName = &member.FirstName
	created.StaffLastName = &member.LastName
	created.StaffPosition = &member.Position
	return mapAttendanceToResponse(created), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, p access.Principal, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	self, err := access.RequireStaff(p)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	open, err := s.attendanceRepo.GetOpenShift(ctx, self.ID)
	if err != nil {
		if errors.Is(err, attendance.ErrNoOpenShift) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get open shift: %w", err)
	}

	updated, err := s.attendanceRepo.Mutate(ctx, open.ID, func(a *attendance.Attendance) error {
		if !a.IsOpen() {
			return attendance.ErrNoOpenShift
		}
		nowUTC := s.now().UTC()
		hours, err := attendance.ComputeHoursWorked(a.ClockIn, nowUTC)
		if err != nil {
			return err
		}
		a.ClockOut = &nowUTC
		a.HoursWorked = &hours
		if req.Notes != nil {
			a.Notes = req.Notes
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, mutationError("clock out", err)
	}

	return mapAttendanceToResponse(updated), nil
}

// Review implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Review(ctx context.Context, p access.Principal, req attendance.ReviewRequest) (attendance.AttendanceResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if _, err := s.authorizedRecord(ctx, p, req.ID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	reviewerID := p.PrincipalID()
	updated, err := s.attendanceRepo.Mutate(ctx, req.ID, func(a *attendance.Attendance) error {
		if a.Status != attendance.StatusPending {
			return attendance.ErrAttendanceAlreadyProcessed
		}
		if a.IsOpen() {
			return attendance.ErrShiftStillOpen
		}
		now := s.now().UTC()
		a.Status = attendance.Status(req.Status)
		a.ApprovedBy = &reviewerID
		a.ApprovedAt = &now
		if req.AdminNotes != nil {
			a.AdminNotes = req.AdminNotes
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, mutationError("review attendance", err)
	}

	return s.reload(ctx, updated)
}

// Edit implements attendance.AttendanceService.
// Admin corrections of clock times, notes or status. hoursWorked is
// recomputed whenever both timestamps are present afterwards.
func (s *AttendanceServiceImpl) Edit(ctx context.Context, p access.Principal, req attendance.EditRequest) (attendance.AttendanceResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if _, err := s.authorizedRecord(ctx, p, req.ID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	editorID := p.PrincipalID()
	updated, err := s.attendanceRepo.Mutate(ctx, req.ID, func(a *attendance.Attendance) error {
		if a.PayrollID != nil {
			return attendance.ErrAttendanceLocked
		}
		now := s.now().UTC()

		if in := req.ParsedClockIn(); in != nil {
			a.ClockIn = *in
		}
		if out := req.ParsedClockOut(); out != nil {
			a.ClockOut = out
		}
		if a.ClockOut != nil {
			hours, err := attendance.ComputeHoursWorked(a.ClockIn, *a.ClockOut)
			if err != nil {
				return err
			}
			a.HoursWorked = &hours
		}

		if req.Notes != nil {
			a.Notes = req.Notes
		}
		if req.AdminNotes != nil {
			a.AdminNotes = req.AdminNotes
		}

		if req.Status != nil {
			status := attendance.Status(*req.Status)
			if status != attendance.StatusPending && a.IsOpen() {
				return attendance.ErrShiftStillOpen
			}
			if status != a.Status {
				a.Status = status
				if status == attendance.StatusPending {
					a.ApprovedBy = nil
					a.ApprovedAt = nil
				} else {
					a.ApprovedBy = &editorID
					a.ApprovedAt = &now
				}
			}
		}

		a.EditedBy = &editorID
		a.EditedAt = &now
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, mutationError("edit attendance", err)
	}

	return s.reload(ctx, updated)
}

// Delete implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.authorizedRecord(ctx, p, id); err != nil {
		return err
	}

	_, err := s.attendanceRepo.Mutate(ctx, id, func(a *attendance.Attendance) error {
		if a.PayrollID != nil {
			return attendance.ErrAttendanceLocked
		}
		a.IsActive = false
		return nil
	})
	if err != nil {
		return mutationError("delete attendance", err)
	}
	return nil
}

// Get implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Get(ctx context.Context, p access.Principal, id string) (attendance.AttendanceResponse, error) {
	if p == nil {
		return attendance.AttendanceResponse{}, access.ErrUnauthenticated
	}

	att, err := s.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if err := access.AuthorizeStaffRecord(p, att.StaffID, att.BusinessID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return mapAttendanceToResponse(att), nil
}

// Query implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Query(ctx context.Context, p access.Principal, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if p == nil {
		return attendance.ListAttendanceResponse{}, access.ErrUnauthenticated
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	lf := attendance.ListFilter{
		Scope:           access.ScopeOf(p),
		IncludeInactive: filter.IncludeInactive && access.IsAdmin(p),
		Page:            filter.Page,
		Limit:           filter.Limit,
	}

	if filter.BusinessID != nil {
		if err := access.AuthorizeBusinessMember(p, *filter.BusinessID); err != nil {
			return attendance.ListAttendanceResponse{}, err
		}
		lf.BusinessID = *filter.BusinessID
	}
	if filter.StaffID != nil {
		if err := s.authorizeStaffTarget(ctx, p, *filter.StaffID); err != nil {
			return attendance.ListAttendanceResponse{}, err
		}
		lf.StaffID = *filter.StaffID
	}
	if filter.Status != nil {
		lf.Status = attendance.Status(*filter.Status)
	}
	if filter.StartDate != nil {
		from, _ := time.Parse("2006-01-02", *filter.StartDate)
		lf.From = &from
	}
	if filter.EndDate != nil {
		end, _ := time.Parse("2006-01-02", *filter.EndDate)
		to := end.AddDate(0, 0, 1)
		lf.To = &to
	}

	attendances, total, err := s.attendanceRepo.List(ctx, lf)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(att))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 || len(responses) == 0 {
		showing = fmt.Sprintf("0 of %d", total)
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// authorizedRecord loads id and checks p may administer its business.
// Missing records are reported before access so the guard never sees them.
func (s *AttendanceServiceImpl) authorizedRecord(ctx context.Context, p access.Principal, id string) (attendance.Attendance, error) {
	att, err := s.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, err
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if err := access.AuthorizeBusiness(p, att.BusinessID); err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

func (s *AttendanceServiceImpl) authorizeStaffTarget(ctx context.Context, p access.Principal, staffID string) error {
	if self, ok := p.(access.Staff); ok {
		if self.ID != staffID {
			return access.ErrForbidden
		}
		return nil
	}

	member, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return err
		}
		return fmt.Errorf("failed to get staff: %w", err)
	}
	return access.AuthorizeBusiness(p, member.BusinessID)
}

// reload re-reads a mutated record so the response carries the staff join.
func (s *AttendanceServiceImpl) reload(ctx context.Context, att attendance.Attendance) (attendance.AttendanceResponse, error) {
	fresh, err := s.attendanceRepo.GetByID(ctx, att.ID)
	if err != nil {
		return mapAttendanceToResponse(att), nil
	}
	return mapAttendanceToResponse(fresh), nil
}

var domainErrors = []error{
	attendance.ErrAttendanceNotFound,
	attendance.ErrNoOpenShift,
	attendance.ErrOpenShiftExists,
	attendance.ErrClockOutBeforeClockIn,
	attendance.ErrAttendanceAlreadyProcessed,
	attendance.ErrShiftStillOpen,
	attendance.ErrAttendanceLocked,
}

func mutationError(op string, err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func mapAttendanceToResponse(att attendance.Attendance) attendance.AttendanceResponse {
	var staffName *string
	if att.StaffFirstName != nil {
		name := *att.StaffFirstName
		if att.StaffLastName != nil && *att.StaffLastName != "" {
			name += " " + *att.StaffLastName
		}
		staffName = &name
	}

	var hours *string
	if att.HoursWorked != nil {
		h := att.HoursWorked.StringFixed(attendance.HoursPrecision)
		hours = &h
	}

	return attendance.AttendanceResponse{
		ID:              att.ID,
		StaffID:         att.StaffID,
		BusinessID:      att.BusinessID,
		StaffName:       staffName,
		StaffPosition:   att.StaffPosition,
		ClockIn:         att.ClockIn.UTC().Format(time.RFC3339),
		ClockOut:        timePtrToString(att.ClockOut),
		HoursWorked:     hours,
		ClockInProofURL: att.ClockInProofURL,
		Status:          string(att.Status),
		Notes:           att.Notes,
		AdminNotes:      att.AdminNotes,
		ApprovedBy:      att.ApprovedBy,
		ApprovedAt:      timePtrToString(att.ApprovedAt),
		EditedBy:        att.EditedBy,
		EditedAt:        timePtrToString(att.EditedAt),
		PayrollID:       att.PayrollID,
		IsActive:        att.IsActive,
		CreatedAt:       att.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       att.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
