package repotest

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type payrollRepo struct{ s *Store }

func clonePayroll(r payroll.PayrollRecord) payroll.PayrollRecord {
	r.Deductions = slices.Clone(r.Deductions)
	r.Additions = slices.Clone(r.Additions)
	r.AttendanceIDs = slices.Clone(r.AttendanceIDs)
	if r.Deductions == nil {
		r.Deductions = []payroll.Adjustment{}
	}
	if r.Additions == nil {
		r.Additions = []payroll.Adjustment{}
	}
	if r.AttendanceIDs == nil {
		r.AttendanceIDs = []string{}
	}
	return r
}

func (r payrollRepo) joined(rec payroll.PayrollRecord) payroll.PayrollRecord {
	rec = clonePayroll(rec)
	if m, ok := r.s.staff[rec.StaffID]; ok {
		rec.Staff = &payroll.StaffSummary{
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Position:  m.Position,
			Email:     m.Email,
		}
	}
	return rec
}

func (r payrollRepo) overlapping(staffID string, start, end time.Time) (payroll.PayrollRecord, bool) {
	var found payroll.PayrollRecord
	ok := false
	for _, rec := range r.s.payrolls {
		if rec.StaffID != staffID || !rec.IsActive {
			continue
		}
		if rec.PeriodStart.After(end) || rec.PeriodEnd.Before(start) {
			continue
		}
		if !ok || rec.PeriodStart.Before(found.PeriodStart) {
			found, ok = rec, true
		}
	}
	return found, ok
}

func (r payrollRepo) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailPayrollCreate != nil {
		if err := r.s.FailPayrollCreate(record); err != nil {
			return payroll.PayrollRecord{}, err
		}
	}
	if existing, ok := r.overlapping(record.StaffID, record.PeriodStart, record.PeriodEnd); ok {
		conflict := &payroll.PeriodConflictError{ExistingID: existing.ID, Err: payroll.ErrPeriodOverlap}
		if existing.PeriodStart.Equal(record.PeriodStart) && existing.PeriodEnd.Equal(record.PeriodEnd) {
			conflict.Err = payroll.ErrPeriodExists
		}
		return payroll.PayrollRecord{}, conflict
	}

	record = clonePayroll(record)
	record.ID = NewID()
	record.AttendanceCount = len(record.AttendanceIDs)
	record.IsActive = true
	stamp(&record.CreatedAt, &record.UpdatedAt)

	if !(attendanceRepo{r.s}).claim(record.ID, record.AttendanceIDs) {
		return payroll.PayrollRecord{}, payroll.ErrAttendanceClaimed
	}
	r.s.payrolls[record.ID] = record
	return clonePayroll(record), nil
}

func (r payrollRepo) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.payrolls[id]
	if !ok || !rec.IsActive {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	return r.joined(rec), nil
}

func (r payrollRepo) FindOverlapping(ctx context.Context, staffID string, start, end time.Time) (payroll.PayrollRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.overlapping(staffID, start, end)
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	return clonePayroll(rec), nil
}

func (r payrollRepo) FindPaidOverlapping(ctx context.Context, staffID string, start, end time.Time) (payroll.PayrollRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found payroll.PayrollRecord
	ok := false
	for _, rec := range r.s.payrolls {
		if rec.StaffID != staffID || rec.Status != payroll.StatusPaid {
			continue
		}
		if rec.PeriodStart.After(end) || rec.PeriodEnd.Before(start) {
			continue
		}
		if !ok || rec.PeriodStart.Before(found.PeriodStart) {
			found, ok = rec, true
		}
	}
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	return clonePayroll(found), nil
}

func (r payrollRepo) List(ctx context.Context, filter payroll.ListFilter) ([]payroll.PayrollRecord, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []payroll.PayrollRecord{}
	for _, rec := range r.s.payrolls {
		switch {
		case !inScope(filter.Scope, rec.BusinessID, rec.StaffID):
		case !filter.IncludeInactive && !rec.IsActive:
		case filter.BusinessID != "" && rec.BusinessID != filter.BusinessID:
		case filter.StaffID != "" && rec.StaffID != filter.StaffID:
		case filter.Status != "" && rec.Status != filter.Status:
		case filter.PeriodFrom != nil && rec.PeriodEnd.Before(*filter.PeriodFrom):
		case filter.PeriodTo != nil && rec.PeriodStart.After(*filter.PeriodTo):
		default:
			out = append(out, r.joined(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r payrollRepo) Mutate(ctx context.Context, id string, fn func(*payroll.PayrollRecord) error) (payroll.PayrollRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.payrolls[id]
	if !ok || !current.IsActive {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	next := r.joined(current)
	if err := fn(&next); err != nil {
		return payroll.PayrollRecord{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	r.s.payrolls[id] = clonePayroll(next)
	return next, nil
}

func (r payrollRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.payrolls[id]
	if !ok || !rec.IsActive {
		return payroll.ErrPayrollNotFound
	}
	rec.IsActive = false
	r.s.payrolls[id] = rec
	if rec.Status != payroll.StatusPaid {
		attendanceRepo{r.s}.release(id)
	}
	return nil
}

func (r payrollRepo) inPeriod(rec payroll.PayrollRecord, businessID string, from, to *time.Time) bool {
	if !rec.IsActive || rec.BusinessID != businessID {
		return false
	}
	if from != nil && rec.PeriodEnd.Before(*from) {
		return false
	}
	return to == nil || !rec.PeriodStart.After(*to)
}

func (r payrollRepo) CountByStatus(ctx context.Context, businessID string, from, to *time.Time) (map[payroll.PayrollStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[payroll.PayrollStatus]int64{}
	for _, rec := range r.s.payrolls {
		if r.inPeriod(rec, businessID, from, to) {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

func (r payrollRepo) SumTotals(ctx context.Context, businessID string, from, to *time.Time) (payroll.Totals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := payroll.Totals{CalculatedPay: decimal.Zero, NetPay: decimal.Zero, TotalHours: decimal.Zero}
	for _, rec := range r.s.payrolls {
		if !r.inPeriod(rec, businessID, from, to) {
			continue
		}
		totals.Records++
		totals.CalculatedPay = totals.CalculatedPay.Add(rec.CalculatedPay)
		totals.NetPay = totals.NetPay.Add(rec.NetPay)
		totals.TotalHours = totals.TotalHours.Add(rec.TotalHoursWorked)
	}
	return totals, nil
}
