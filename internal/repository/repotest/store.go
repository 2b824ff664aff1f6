// Package repotest provides in-memory repositories for service tests. They
// enforce the same atomic guards as the PostgreSQL schema: one open shift
// per staff member, no overlapping active payroll periods, and attendance
// claimed by at most one payroll.
package repotest

import (
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/google/uuid"
)

// Store holds every table behind one mutex.
type Store struct {
	mu          sync.Mutex
	businesses  map[string]business.Business
	admins      map[string]admin.Admin
	memberships map[string][]string // admin id -> business ids
	staff       map[string]staff.Staff
	attendance  map[string]attendance.Attendance
	payrolls    map[string]payroll.PayrollRecord

	// FailPayrollCreate, when set, is consulted before every payroll insert.
	FailPayrollCreate func(record payroll.PayrollRecord) error
}

func NewStore() *Store {
	return &Store{
		businesses:  map[string]business.Business{},
		admins:      map[string]admin.Admin{},
		memberships: map[string][]string{},
		staff:       map[string]staff.Staff{},
		attendance:  map[string]attendance.Attendance{},
		payrolls:    map[string]payroll.PayrollRecord{},
	}
}

func (s *Store) Businesses() business.BusinessRepository { return businessRepo{s} }
func (s *Store) Admins() admin.AdminRepository { return adminRepo{s} }
func (s *Store) Staff() staff.StaffRepository { return staffRepo{s} }
func (s *Store) Attendance() attendance.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Payrolls() payroll.PayrollRepository { return payrollRepo{s} }

// NewID returns a UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// AttendanceByID returns the stored row regardless of is_active.
func (s *Store) AttendanceByID(id string) (attendance.Attendance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendance[id]
	return cloneAttendance(a), ok
}

// PayrollByID returns the stored row regardless of is_active.
func (s *Store) PayrollByID(id string) (payroll.PayrollRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.payrolls[id]
	return clonePayroll(r), ok
}

// SeedAttendance inserts a row as is, assigning an id when missing.
func (s *Store) SeedAttendance(a attendance.Attendance) attendance.Attendance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = NewID()
	}
	a.IsActive = true
	s.attendance[a.ID] = cloneAttendance(a)
	return a
}

func inScope(scope access.Scope, businessID, staffID string) bool {
	if scope.Empty() {
		return false
	}
	if !scope.Unrestricted && !slices.Contains(scope.BusinessIDs, businessID) {
		return false
	}
	if scope.StaffID != "" && scope.StaffID != staffID {
		return false
	}
	return true
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
