package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/email"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/payroll"

// payslipTimeout bounds one background payslip delivery including retries.
const payslipTimeout = 2 * time.Minute

type PayrollServiceImpl struct {
	payrollRepo    payroll.PayrollRepository
	attendanceRepo attendance.AttendanceRepository
	staffRepo      staff.StaffRepository
	businessRepo   business.BusinessRepository
	emailService   email.EmailService
	tracer         trace.Tracer
	now            func() time.Time

	payslips sync.WaitGroup
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	attendanceRepo attendance.AttendanceRepository,
	staffRepo staff.StaffRepository,
	businessRepo business.BusinessRepository,
	emailService email.EmailService,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		payrollRepo:    payrollRepo,
		attendanceRepo: attendanceRepo,
		staffRepo:      staffRepo,
		businessRepo:   businessRepo,
		emailService:   emailService,
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
}

// ========== GENERATION ==========

// GenerateSingle implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateSingle(ctx context.Context, p access.Principal, req payroll.GeneratePayrollRequest) (payroll.PayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	member, err := s.staffRepo.GetByID(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return payroll.PayrollResponse{}, err
		}
		return payroll.PayrollResponse{}, fmt.Errorf("failed to get staff: %w", err)
	}
	if err := access.AuthorizeBusiness(p, member.BusinessID); err != nil {
		return payroll.PayrollResponse{}, err
	}

	start, end := req.Period()
	record, err := s.generate(ctx, p, member, start, end)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	return mapToPayrollResponse(record), nil
}

// GenerateForBusiness implements payroll.PayrollService. Each staff member is
// generated independently; a failure is recorded and the batch continues.
func (s *PayrollServiceImpl) GenerateForBusiness(ctx context.Context, p access.Principal, req payroll.GenerateBusinessPayrollRequest) (payroll.BatchGenerateResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.BatchGenerateResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.BatchGenerateResponse{}, err
	}
	if err := access.AuthorizeBusiness(p, req.BusinessID); err != nil {
		return payroll.BatchGenerateResponse{}, err
	}
	if _, err := s.businessRepo.GetByID(ctx, req.BusinessID); err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			return payroll.BatchGenerateResponse{}, err
		}
		return payroll.BatchGenerateResponse{}, fmt.Errorf("failed to get business: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "payroll.GenerateForBusiness",
		trace.WithAttributes(attribute.String("business.id", req.BusinessID)))
	defer span.End()

	members, err := s.staffRepo.ListEmployedByBusiness(ctx, req.BusinessID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list staff")
		return payroll.BatchGenerateResponse{}, fmt.Errorf("failed to list staff: %w", err)
	}

	start, end := req.Period()
	result := payroll.BatchGenerateResponse{
		Generated: []payroll.PayrollResponse{},
		Skipped:   []payroll.SkippedStaff{},
		Errors:    []payroll.FailedStaff{},
	}

	for _, member := range members {
		record, err := s.generate(ctx, p, member, start, end)
		if err == nil {
			result.Generated = append(result.Generated, mapToPayrollResponse(record))
			continue
		}

		var conflict *payroll.PeriodConflictError
		if errors.As(err, &conflict) && errors.Is(err, payroll.ErrPeriodExists) {
			result.Skipped = append(result.Skipped, payroll.SkippedStaff{
				StaffID:           member.ID,
				ExistingPayrollID: conflict.ExistingID,
				Reason:            payroll.ErrPeriodExists.Error(),
			})
			continue
		}

		slog.Warn("payroll generation failed for staff",
			"business_id", req.BusinessID,
			"staff_id", member.ID,
			"period_start", payroll.FormatDate(start),
			"period_end", payroll.FormatDate(end),
			"error", err,
		)
		result.Errors = append(result.Errors, payroll.FailedStaff{
			StaffID: member.ID,
			Reason:  batchReason(err),
		})
	}

	result.Summary = payroll.BatchSummary{
		Total:     len(members),
		Generated: len(result.Generated),
		Skipped:   len(result.Skipped),
		Errors:    len(result.Errors),
	}
	span.SetAttributes(
		attribute.Int("payroll.total", result.Summary.Total),
		attribute.Int("payroll.generated", result.Summary.Generated),
		attribute.Int("payroll.skipped", result.Summary.Skipped),
		attribute.Int("payroll.errors", result.Summary.Errors),
	)

	return result, nil
}

// generate builds and stores one payroll for member. Authorization has
// already been checked by the caller.
func (s *PayrollServiceImpl) generate(ctx context.Context, p access.Principal, member staff.Staff, start, end time.Time) (record payroll.PayrollRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "payroll.generate", trace.WithAttributes(
		attribute.String("staff.id", member.ID),
		attribute.String("payroll.period_start", payroll.FormatDate(start)),
		attribute.String("payroll.period_end", payroll.FormatDate(end)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generate payroll")
		}
		span.End()
	}()

	if !member.Employed() {
		return payroll.PayrollRecord{}, staff.ErrStaffNotActive
	}
	if member.Salary == nil {
		return payroll.PayrollRecord{}, staff.ErrSalaryMissing
	}
	if !member.SalaryType.Valid() {
		return payroll.PayrollRecord{}, staff.ErrInvalidSalaryType
	}

	existing, err := s.payrollRepo.FindOverlapping(ctx, member.ID, start, end)
	switch {
	case err == nil:
		return payroll.PayrollRecord{}, periodConflict(existing, start, end)
	case !errors.Is(err, payroll.ErrPayrollNotFound):
		return payroll.PayrollRecord{}, fmt.Errorf("failed to check existing payroll: %w", err)
	}

	paid, err := s.payrollRepo.FindPaidOverlapping(ctx, member.ID, start, end)
	switch {
	case err == nil:
		return payroll.PayrollRecord{}, &payroll.PeriodConflictError{ExistingID: paid.ID, Err: payroll.ErrPeriodPaid}
	case !errors.Is(err, payroll.ErrPayrollNotFound):
		return payroll.PayrollRecord{}, fmt.Errorf("failed to check paid payroll: %w", err)
	}

	// clock_in in [start, end] by calendar date
	shifts, err := s.attendanceRepo.ListPayable(ctx, member.ID, member.BusinessID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to list approved attendance: %w", err)
	}
	totals := aggregateAttendance(shifts)

	calculated := CalculatePay(member.SalaryType, *member.Salary, totals.Hours, totals.Days)
	generatedBy := p.PrincipalID()

	created, err := s.payrollRepo.Create(ctx, payroll.PayrollRecord{
		StaffID:          member.ID,
		BusinessID:       member.BusinessID,
		PeriodStart:      start,
		PeriodEnd:        end,
		TotalHoursWorked: totals.Hours,
		TotalDaysWorked:  totals.Days,
		SalaryType:       member.SalaryType,
		BaseSalary:       *member.Salary,
		CalculatedPay:    calculated,
		Deductions:       []payroll.Adjustment{},
		Additions:        []payroll.Adjustment{},
		NetPay:           ComputeNetPay(calculated, nil, nil),
		AttendanceIDs:    totals.IDs,
		AttendanceCount:  len(totals.IDs),
		Status:           payroll.StatusCalculated,
		GeneratedBy:      &generatedBy,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrPeriodExists) || errors.Is(err, payroll.ErrPeriodOverlap) || errors.Is(err, payroll.ErrAttendanceClaimed) {
			return payroll.PayrollRecord{}, err
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll: %w", err)
	}

	created.Staff = &payroll.StaffSummary{
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Position:  member.Position,
		Email:     member.Email,
	}
	return created, nil
}

func periodConflict(existing payroll.PayrollRecord, start, end time.Time) error {
	if existing.PeriodStart.Equal(start) && existing.PeriodEnd.Equal(end) {
		return &payroll.PeriodConflictError{ExistingID: existing.ID, Err: payroll.ErrPeriodExists}
	}
	return &payroll.PeriodConflictError{ExistingID: existing.ID, Err: payroll.ErrPeriodOverlap}
}

var reportableErrors = []error{
	staff.ErrStaffNotActive,
	staff.ErrSalaryMissing,
	staff.ErrInvalidSalaryType,
	payroll.ErrPeriodOverlap,
	payroll.ErrPeriodPaid,
	payroll.ErrAttendanceClaimed,
}

// batchReason returns the message shown for a failed staff member. Storage
// errors are logged, not echoed.
func batchReason(err error) string {
	for _, target := range reportableErrors {
		if errors.Is(err, target) {
			return err.Error()
		}
	}
	return "internal error while generating payroll"
}

// ========== LIFECYCLE ==========

// Approve implements payroll.PayrollService.
func (s *PayrollServiceImpl) Approve(ctx context.Context, p access.Principal, req payroll.ApprovePayrollRequest) (payroll.PayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if _, err := s.authorizedRecord(ctx, p, req.ID); err != nil {
		return payroll.PayrollResponse{}, err
	}

	approverID := p.PrincipalID()
	updated, err := s.payrollRepo.Mutate(ctx, req.ID, func(r *payroll.PayrollRecord) error {
		if !payroll.ValidTransition(payroll.ActionApprove, r.Status) {
			return &payroll.TransitionError{Action: payroll.ActionApprove, From: r.Status}
		}
		if r.NetPay.IsNegative() {
			return payroll.ErrNegativeNetPay
		}
		now := s.now().UTC()
		r.Status = payroll.StatusApproved
		r.ApprovedBy = &approverID
		r.ApprovedAt = &now
		r.Notes = appendNotes(r.Notes, req.Notes)
		return nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, mutationError("approve payroll", err)
	}

	return s.reload(ctx, updated), nil
}

// MarkPaid implements payroll.PayrollService. The payslip email is sent in the
// background after the status change is committed; delivery failures are only
// logged.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, p access.Principal, id string) (payroll.PayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if _, err := s.authorizedRecord(ctx, p, id); err != nil {
		return payroll.PayrollResponse{}, err
	}

	payerID := p.PrincipalID()
	updated, err := s.payrollRepo.Mutate(ctx, id, func(r *payroll.PayrollRecord) error {
		if !payroll.ValidTransition(payroll.ActionPay, r.Status) {
			return &payroll.TransitionError{Action: payroll.ActionPay, From: r.Status}
		}
		now := s.now().UTC()
		r.Status = payroll.StatusPaid
		r.PaidBy = &payerID
		r.PaidAt = &now
		return nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, mutationError("mark payroll paid", err)
	}

	fresh, err := s.payrollRepo.GetByID(ctx, updated.ID)
	if err != nil {
		slog.Warn("failed to reload paid payroll", "payroll_id", updated.ID, "error", err)
		return mapToPayrollResponse(updated), nil
	}

	s.dispatchPayslip(ctx, fresh)
	return mapToPayrollResponse(fresh), nil
}

// AddAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) AddAdjustment(ctx context.Context, p access.Principal, req payroll.AddAdjustmentRequest) (payroll.PayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}
	if _, err := s.authorizedRecord(ctx, p, req.ID); err != nil {
		return payroll.PayrollResponse{}, err
	}

	adjustment := payroll.Adjustment{
		Type:        req.AdjustmentType,
		Description: req.Description,
		Amount:      req.ParsedAmount(),
	}

	updated, err := s.payrollRepo.Mutate(ctx, req.ID, func(r *payroll.PayrollRecord) error {
		if !payroll.ValidTransition(payroll.ActionAdjust, r.Status) {
			return &payroll.TransitionError{Action: payroll.ActionAdjust, From: r.Status}
		}
		switch payroll.AdjustmentKind(req.Kind) {
		case payroll.AdjustmentAddition:
			r.Additions = append(r.Additions, adjustment)
		case payroll.AdjustmentDeduction:
			r.Deductions = append(r.Deductions, adjustment)
		}
		r.NetPay = ComputeNetPay(r.CalculatedPay, r.Additions, r.Deductions)
		return nil
	})
	if err != nil {
		return payroll.PayrollResponse{}, mutationError("add payroll adjustment", err)
	}

	return s.reload(ctx, updated), nil
}

// Delete implements payroll.PayrollService. Any status may be deleted. The
// attendance it claimed becomes payable again unless the record was paid.
func (s *PayrollServiceImpl) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.authorizedRecord(ctx, p, id); err != nil {
		return err
	}

	if err := s.payrollRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, payroll.ErrPayrollNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete payroll: %w", err)
	}
	return nil
}

// ========== READS ==========

// GetByID implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetByID(ctx context.Context, p access.Principal, id string) (payroll.PayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.PayrollResponse{}, err
	}
	record, err := s.authorizedRecord(ctx, p, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return mapToPayrollResponse(record), nil
}

// GetByStaff implements payroll.PayrollService. Former staff keep their
// payroll history.
func (s *PayrollServiceImpl) GetByStaff(ctx context.Context, p access.Principal, staffID string, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.ListPayrollResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	member, err := s.staffRepo.GetByIDIncludeInactive(ctx, staffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return payroll.ListPayrollResponse{}, err
		}
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to get staff: %w", err)
	}
	if err := access.AuthorizeBusiness(p, member.BusinessID); err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	lf := listFilter(p, filter)
	lf.StaffID = staffID
	return s.list(ctx, lf, filter)
}

// GetByBusiness implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetByBusiness(ctx context.Context, p access.Principal, businessID string, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.ListPayrollResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollResponse{}, err
	}
	if err := access.AuthorizeBusiness(p, businessID); err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	lf := listFilter(p, filter)
	lf.BusinessID = businessID
	return s.list(ctx, lf, filter)
}

// Summary implements payroll.PayrollService.
func (s *PayrollServiceImpl) Summary(ctx context.Context, p access.Principal, businessID string, filter payroll.SummaryFilter) (payroll.SummaryResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.SummaryResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.SummaryResponse{}, err
	}
	if err := access.AuthorizeBusiness(p, businessID); err != nil {
		return payroll.SummaryResponse{}, err
	}

	from, to := filter.Range()

	var counts map[payroll.PayrollStatus]int64
	var totals payroll.Totals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.payrollRepo.CountByStatus(gctx, businessID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.payrollRepo.SumTotals(gctx, businessID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return payroll.SummaryResponse{}, fmt.Errorf("failed to summarize payrolls: %w", err)
	}

	countByStatus := map[string]int64{
		string(payroll.StatusDraft):      0,
		string(payroll.StatusCalculated): 0,
		string(payroll.StatusApproved):   0,
		string(payroll.StatusPaid):       0,
	}
	for status, n := range counts {
		countByStatus[string(status)] = n
	}

	return payroll.SummaryResponse{
		BusinessID:         businessID,
		PeriodStart:        formatDatePtr(from),
		PeriodEnd:          formatDatePtr(to),
		CountByStatus:      countByStatus,
		TotalRecords:       totals.Records,
		TotalCalculatedPay: money(totals.CalculatedPay),
		TotalNetPay:        money(totals.NetPay),
		TotalHoursWorked:   money(totals.TotalHours),
	}, nil
}

// Export implements payroll.PayrollService.
func (s *PayrollServiceImpl) Export(ctx context.Context, p access.Principal, businessID string, filter payroll.PayrollFilter) (payroll.ExportFile, error) {
	if err := access.RequireAdmin(p); err != nil {
		return payroll.ExportFile{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.ExportFile{}, err
	}
	if err := access.AuthorizeBusiness(p, businessID); err != nil {
		return payroll.ExportFile{}, err
	}

	biz, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, business.ErrBusinessNotFound) {
			return payroll.ExportFile{}, err
		}
		return payroll.ExportFile{}, fmt.Errorf("failed to get business: %w", err)
	}

	lf := listFilter(p, filter)
	lf.BusinessID = businessID
	lf.Page, lf.Limit = 0, 0

	records, _, err := s.payrollRepo.List(ctx, lf)
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	content, err := buildWorkbook(biz, records)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	return payroll.ExportFile{
		Filename:    fmt.Sprintf("payroll-%s-%s.xlsx", biz.Slug, s.now().UTC().Format("20060102")),
		ContentType: xlsxContentType,
		Content:     content,
	}, nil
}

func listFilter(p access.Principal, filter payroll.PayrollFilter) payroll.ListFilter {
	from, to := filter.Range()
	lf := payroll.ListFilter{
		Scope:           access.ScopeOf(p),
		PeriodFrom:      from,
		PeriodTo:        to,
		IncludeInactive: filter.IncludeInactive,
		Page:            filter.Page,
		Limit:           filter.Limit,
	}
	if filter.Status != nil {
		lf.Status = payroll.PayrollStatus(*filter.Status)
	}
	return lf
}

func (s *PayrollServiceImpl) list(ctx context.Context, lf payroll.ListFilter, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	records, total, err := s.payrollRepo.List(ctx, lf)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	return payroll.ListPayrollResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Payrolls:   mapToPayrollResponses(records),
	}, nil
}

// authorizedRecord loads id and checks p may administer its business.
func (s *PayrollServiceImpl) authorizedRecord(ctx context.Context, p access.Principal, id string) (payroll.PayrollRecord, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollNotFound) {
			return payroll.PayrollRecord{}, err
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll: %w", err)
	}
	if err := access.AuthorizeBusiness(p, record.BusinessID); err != nil {
		return payroll.PayrollRecord{}, err
	}
	return record, nil
}

// reload re-reads a mutated record so the response carries the staff join.
func (s *PayrollServiceImpl) reload(ctx context.Context, record payroll.PayrollRecord) payroll.PayrollResponse {
	fresh, err := s.payrollRepo.GetByID(ctx, record.ID)
	if err != nil {
		return mapToPayrollResponse(record)
	}
	return mapToPayrollResponse(fresh)
}

// dispatchPayslip sends the payslip without holding up the request. The send
// outlives the request context but is bounded by payslipTimeout.
func (s *PayrollServiceImpl) dispatchPayslip(ctx context.Context, record payroll.PayrollRecord) {
	if s.emailService == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), payslipTimeout)
	s.payslips.Add(1)
	go func() {
		defer s.payslips.Done()
		defer cancel()
		s.sendPayslip(sendCtx, record)
	}()
}

func (s *PayrollServiceImpl) sendPayslip(ctx context.Context, record payroll.PayrollRecord) {
	if record.Staff == nil || record.Staff.Email == "" {
		slog.Warn("payslip not sent: staff email unknown", "payroll_id", record.ID)
		return
	}

	businessName := ""
	if biz, err := s.businessRepo.GetByID(ctx, record.BusinessID); err == nil {
		businessName = biz.Name
	}

	data := email.PayslipData{
		PayrollID:        record.ID,
		StaffName:        strings.TrimSpace(record.Staff.FirstName + " " + record.Staff.LastName),
		BusinessName:     businessName,
		PeriodStart:      payroll.FormatDate(record.PeriodStart),
		PeriodEnd:        payroll.FormatDate(record.PeriodEnd),
		SalaryType:       string(record.SalaryType),
		TotalHoursWorked: money(record.TotalHoursWorked),
		TotalDaysWorked:  record.TotalDaysWorked,
		CalculatedPay:    money(record.CalculatedPay),
		Additions:        payslipLines(record.Additions),
		Deductions:       payslipLines(record.Deductions),
		NetPay:           money(record.NetPay),
	}
	if record.PaidAt != nil {
		data.PaidAt = record.PaidAt.UTC().Format(time.RFC3339)
	}

	if err := s.emailService.SendPayslip(ctx, record.Staff.Email, data); err != nil {
		slog.Error("failed to send payslip", "payroll_id", record.ID, "staff_id", record.StaffID, "error", err)
	}
}

func payslipLines(items []payroll.Adjustment) []email.PayslipLine {
	lines := make([]email.PayslipLine, 0, len(items))
	for _, item := range items {
		label := item.Type
		if item.Description != nil && *item.Description != "" {
			label += " (" + *item.Description + ")"
		}
		lines = append(lines, email.PayslipLine{Label: label, Amount: money(item.Amount)})
	}
	return lines
}

func appendNotes(existing, extra *string) *string {
	if extra == nil || *extra == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return extra
	}
	joined := *existing + "\n" + *extra
	return &joined
}

var lifecycleErrors = []error{
	payroll.ErrPayrollNotFound,
	payroll.ErrInvalidStatusTransition,
	payroll.ErrNegativeNetPay,
}

func mutationError(op string, err error) error {
	for _, target := range lifecycleErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := payroll.FormatDate(*t)
	return &s
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapAdjustments(items []payroll.Adjustment) []payroll.AdjustmentResponse {
	out := make([]payroll.AdjustmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, payroll.AdjustmentResponse{
			Type:        item.Type,
			Description: item.Description,
			Amount:      money(item.Amount),
		})
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPrecision)
}

func mapToPayrollResponse(r payroll.PayrollRecord) payroll.PayrollResponse {
	resp := payroll.PayrollResponse{
		ID:               r.ID,
		StaffID:          r.StaffID,
		BusinessID:       r.BusinessID,
		PeriodStart:      payroll.FormatDate(r.PeriodStart),
		PeriodEnd:        payroll.FormatDate(r.PeriodEnd),
		TotalHoursWorked: money(r.TotalHoursWorked),
		TotalDaysWorked:  r.TotalDaysWorked,
		SalaryType:       string(r.SalaryType),
		BaseSalary:       money(r.BaseSalary),
		CalculatedPay:    money(r.CalculatedPay),
		Deductions:       mapAdjustments(r.Deductions),
		Additions:        mapAdjustments(r.Additions),
		NetPay:           money(r.NetPay),
		AttendanceIDs:    r.AttendanceIDs,
		AttendanceCount:  r.AttendanceCount,
		Status:           string(r.Status),
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       timePtrToString(r.ApprovedAt),
		PaidBy:           r.PaidBy,
		PaidAt:           timePtrToString(r.PaidAt),
		Notes:            r.Notes,
		IsActive:         r.IsActive,
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.AttendanceIDs == nil {
		resp.AttendanceIDs = []string{}
	}
	if r.Staff != nil {
		resp.Staff = &payroll.StaffSummaryResponse{
			FirstName: r.Staff.FirstName,
			LastName:  r.Staff.LastName,
			Position:  r.Staff.Position,
		}
	}
	return resp
}

func mapToPayrollResponses(records []payroll.PayrollRecord) []payroll.PayrollResponse {
	out := make([]payroll.PayrollResponse, 0, len(records))
	for _, r := range records {
		out = append(out, mapToPayrollResponse(r))
	}
	return out
}
