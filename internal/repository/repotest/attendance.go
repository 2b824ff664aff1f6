package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
)

type attendanceRepo struct{ s *Store }

func cloneAttendance(a attendance.Attendance) attendance.Attendance {
	if a.ClockOut != nil {
		out := *a.ClockOut
		a.ClockOut = &out
	}
	if a.HoursWorked != nil {
		hours := *a.HoursWorked
		a.HoursWorked = &hours
	}
	if a.PayrollID != nil {
		id := *a.PayrollID
		a.PayrollID = &id
	}
	return a
}

func (r attendanceRepo) joined(a attendance.Attendance) attendance.Attendance {
	a = cloneAttendance(a)
	if m, ok := r.s.staff[a.StaffID]; ok {
		a.StaffFirstName = &m.FirstName
		a.StaffLastName = &m.LastName
		a.StaffPosition = &m.Position
	}
	return a
}

func (r attendanceRepo) openShift(staffID string) (attendance.Attendance, bool) {
	for _, a := range r.s.attendance {
		if a.StaffID == staffID && a.IsActive && a.IsOpen() {
			return a, true
		}
	}
	return attendance.Attendance{}, false
}

func (r attendanceRepo) CreateOpen(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.openShift(a.StaffID); ok {
		return attendance.Attendance{}, &attendance.OpenShiftError{ExistingID: existing.ID}
	}
	a.ID = NewID()
	a.ClockOut = nil
	a.HoursWorked = nil
	if a.Status == "" {
		a.Status = attendance.StatusPending
	}
	a.IsActive = true
	stamp(&a.CreatedAt, &a.UpdatedAt)
	r.s.attendance[a.ID] = cloneAttendance(a)
	return cloneAttendance(a), nil
}

func (r attendanceRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attendance[id]
	if !ok || !a.IsActive {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.joined(a), nil
}

func (r attendanceRepo) GetOpenShift(ctx context.Context, staffID string) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.openShift(staffID)
	if !ok {
		return attendance.Attendance{}, attendance.ErrNoOpenShift
	}
	return cloneAttendance(a), nil
}

func (r attendanceRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Attendance, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []attendance.Attendance{}
	for _, a := range r.s.attendance {
		switch {
		case !inScope(filter.Scope, a.BusinessID, a.StaffID):
		case !filter.IncludeInactive && !a.IsActive:
		case filter.BusinessID != "" && a.BusinessID != filter.BusinessID:
		case filter.StaffID != "" && a.StaffID != filter.StaffID:
		case filter.Status != "" && a.Status != filter.Status:
		case filter.From != nil && a.ClockIn.Before(*filter.From):
		case filter.To != nil && !a.ClockIn.Before(*filter.To):
		default:
			out = append(out, r.joined(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.After(out[j].ClockIn) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r attendanceRepo) ListPayable(ctx context.Context, staffID, businessID string, from, to time.Time) ([]attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []attendance.Attendance{}
	for _, a := range r.s.attendance {
		if a.StaffID != staffID || a.BusinessID != businessID || !a.IsActive {
			continue
		}
		if a.Status != attendance.StatusApproved || a.PayrollID != nil || a.IsOpen() {
			continue
		}
		if a.ClockIn.Before(from) || !a.ClockIn.Before(to) {
			continue
		}
		out = append(out, cloneAttendance(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (r attendanceRepo) ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []attendance.Attendance{}
	for _, a := range r.s.attendance {
		if !a.IsActive || !a.IsOpen() || !a.ClockIn.Before(openedBefore) {
			continue
		}
		out = append(out, r.joined(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (r attendanceRepo) Mutate(ctx context.Context, id string, fn func(*attendance.Attendance) error) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.attendance[id]
	if !ok || !current.IsActive {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	next := r.joined(current)
	if err := fn(&next); err != nil {
		return attendance.Attendance{}, err
	}
	if next.IsOpen() && next.IsActive {
		if other, ok := r.openShift(next.StaffID); ok && other.ID != id {
			return attendance.Attendance{}, &attendance.OpenShiftError{ExistingID: other.ID}
		}
	}
	next.UpdatedAt = time.Now().UTC()
	r.s.attendance[id] = cloneAttendance(next)
	return next, nil
}

// claim marks every id as belonging to payrollID or none of them. The caller
// holds the store lock.
func (r attendanceRepo) claim(payrollID string, ids []string) bool {
	for _, id := range ids {
		a, ok := r.s.attendance[id]
		if !ok || !a.IsActive || a.PayrollID != nil || a.Status != attendance.StatusApproved {
			return false
		}
	}
	for _, id := range ids {
		a := r.s.attendance[id]
		claimed := payrollID
		a.PayrollID = &claimed
		r.s.attendance[id] = a
	}
	return true
}

func (r attendanceRepo) release(payrollID string) {
	for id, a := range r.s.attendance {
		if a.PayrollID != nil && *a.PayrollID == payrollID {
			a.PayrollID = nil
			r.s.attendance[id] = a
		}
	}
}

