package payroll

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/repository/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.PayslipData
	to   []string
	err  error

	// release, when set, holds every send until it is closed or ctx ends.
	release chan struct{}
}

func (m *fakeMailer) SendPayslip(ctx context.Context, to string, data email.PayslipData) error {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.sent = append(m.sent, data)
	return m.err
}

type fixture struct {
	store *repotest.Store
	svc   *PayrollServiceImpl
	mail  *fakeMailer
	biz   business.Business
	admin access.Admin
}

var fixedNow = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := repotest.NewStore()
	biz, err := store.Businesses().Create(ctx, business.Business{Name: "Harbor Staffing", Slug: "harbor-staffing"})
	require.NoError(t, err)

	mail := &fakeMailer{}
	svc := NewPayrollService(store.Payrolls(), store.Attendance(), store.Staff(), store.Businesses(), mail).(*PayrollServiceImpl)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		store: store,
		svc:   svc,
		mail:  mail,
		biz:   biz,
		admin: access.Admin{ID: repotest.NewID(), BusinessIDs: []string{biz.ID}},
	}
}

func (f *fixture) addStaff(t *testing.T, salaryType staff.SalaryType, salary string) staff.Staff {
	t.Helper()
	m := staff.Staff{
		BusinessID: f.biz.ID,
		FirstName:  "Dana",
		LastName:   "Reyes",
		Email:      repotest.NewID() + "@example.com",
		Position:   "Picker",
		SalaryType: salaryType,
	}
	if salary != "" {
		amount := decimal.RequireFromString(salary)
		m.Salary = &amount
	}
	created, err := f.store.Staff().Create(context.Background(), m)
	require.NoError(t, err)
	return created
}

// addShift seeds a closed shift with the given status.
func (f *fixture) addShift(t *testing.T, member staff.Staff, clockIn time.Time, hours time.Duration, status attendance.Status) attendance.Attendance {
	t.Helper()
	out := clockIn.Add(hours)
	worked, err := attendance.ComputeHoursWorked(clockIn, out)
	require.NoError(t, err)
	return f.store.SeedAttendance(attendance.Attendance{
		StaffID:     member.ID,
		BusinessID:  member.BusinessID,
		ClockIn:     clockIn,
		ClockOut:    &out,
		HoursWorked: &worked,
		Status:      status,
	})
}

func (f *fixture) generate(t *testing.T, member staff.Staff, start, end string) (payroll.PayrollResponse, error) {
	t.Helper()
	return f.svc.GenerateSingle(context.Background(), f.admin, payroll.GeneratePayrollRequest{
		StaffID:     member.ID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
}

func march(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

// ===== GENERATION TESTS =====

func TestPayrollService_GenerateSingle_HourlyPay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	member := f.addStaff(t, staff.SalaryHourly, "15")
	shift := f.addShift(t, member, march(10, 9), 8*time.Hour, attendance.StatusApproved)

	// Act
	resp, err := f.generate(t, member, "2026-03-01", "2026-03-31")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "120.00", resp.CalculatedPay)
	assert.Equal(t, "120.00", resp.NetPay)
	assert.Equal(t, "8.00", resp.TotalHoursWorked)
	assert.Equal(t, 1, resp.TotalDaysWorked)
	assert.Equal(t, 1, resp.AttendanceCount)
	assert.Equal(t, []string{shift.ID}, resp.AttendanceIDs)
	assert.Equal(t, string(payroll.StatusCalculated), resp.Status)
	assert.Equal(t, "15.00", resp.BaseSalary)
	assert.Equal(t, "2026-03-01", resp.PeriodStart)
	assert.Empty(t, resp.Deductions)
	assert.Empty(t, resp.Additions)
	require.NotNil(t, resp.Staff)
	assert.Equal(t, "Dana", resp.Staff.FirstName)

	claimed, ok := f.store.AttendanceByID(shift.ID)
	require.True(t, ok)
	require.NotNil(t, claimed.PayrollID)
	assert.Equal(t, resp.ID, *claimed.PayrollID)
}

func TestPayrollService_GenerateSingle_OnlyApprovedClosedShiftsInPeriod(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	member := f.addStaff(t, staff.SalaryDaily, "100")

	f.addShift(t, member, march(2, 9), 8*time.Hour, attendance.StatusApproved)
	f.addShift(t, member, march(3, 9), 8*time.Hour, attendance.StatusPending)
	f.addShift(t, member, march(4, 9), 8*time.Hour, attendance.StatusRejected)
	f.addShift(t, member, march(31, 22), 4*time.Hour, attendance.StatusApproved) // last day of period
	f.addShift(t, member, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), time.Hour, attendance.StatusApproved)
	f.store.SeedAttendance(attendance.Attendance{
		StaffID:    member.ID,
		BusinessID: member.BusinessID,
		ClockIn:    march(5, 9),
		Status:     attendance.StatusApproved,
	})

	resp, err := f.generate(t, member, "2026-03-01", "2026-03-31")

	require.NoError(t, err)
	assert.Equal(t, 2, resp.AttendanceCount)
	assert.Equal(t, 2, resp.TotalDaysWorked)
	assert.Equal(t, "12.00", resp.TotalHoursWorked)
	assert.Equal(t, "200.00", resp.CalculatedPay)
}

func TestPayrollService_GenerateSingle_FixedSalaries(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	monthly := f.addStaff(t, staff.SalaryMonthly, "50000")
	resp, err := f.generate(t, monthly, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, "50000.00", resp.CalculatedPay)
	assert.Zero(t, resp.AttendanceCount)

	annual := f.addStaff(t, staff.SalaryAnnual, "120000")
	resp, err = f.generate(t, annual, "2026-03-01", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "10000.00", resp.CalculatedPay)
}

func TestPayrollService_GenerateSingle_DuplicatePeriod(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	member := f.addStaff(t, staff.SalaryMonthly, "3000")

	first, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	_, err = f.generate(t, member, "2026-03-01", "2026-03-31")
	require.ErrorIs(t, err, payroll.ErrPeriodExists)
	var conflict *payroll.PeriodConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ExistingID)

	_, err = f.generate(t, member, "2026-03-15", "2026-04-14")
	require.ErrorIs(t, err, payroll.ErrPeriodOverlap)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ExistingID)

	_, err = f.generate(t, member, "2026-04-01", "2026-04-30")
	assert.NoError(t, err, "adjacent periods do not overlap")
}

func TestPayrollService_GenerateSingle_ConcurrentRequestsCreateOne(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	member := f.addStaff(t, staff.SalaryHourly, "20")
	f.addShift(t, member, march(10, 9), 8*time.Hour, attendance.StatusApproved)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	ids := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.generate(t, member, "2026-03-01", "2026-03-31")
			results[i], ids[i] = err, resp.ID
		}(i)
	}
	wg.Wait()

	winner := ""
	for i, err := range results {
		if err == nil {
			assert.Empty(t, winner, "only one generation may succeed")
			winner = ids[i]
		}
	}
	require.NotEmpty(t, winner)

	for _, err := range results {
		if err == nil {
			continue
		}
		require.ErrorIs(t, err, payroll.ErrPeriodExists)
		var conflict *payroll.PeriodConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, winner, conflict.ExistingID)
	}
}

func TestPayrollService_GenerateSingle_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	noSalary := f.addStaff(t, staff.SalaryMonthly, "")
	_, err := f.generate(t, noSalary, "2026-03-01", "2026-03-31")
	assert.ErrorIs(t, err, staff.ErrSalaryMissing)

	terminated := f.addStaff(t, staff.SalaryMonthly, "1000")
	terminated.Status = staff.StatusTerminated
	_, err = f.store.Staff().Update(ctx, terminated)
	require.NoError(t, err)
	_, err = f.generate(t, terminated, "2026-03-01", "2026-03-31")
	assert.ErrorIs(t, err, staff.ErrStaffNotActive)

	member := f.addStaff(t, staff.SalaryMonthly, "1000")
	_, err = f.generate(t, member, "2026-03-31", "2026-03-01")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = f.svc.GenerateSingle(ctx, access.Staff{ID: member.ID, BusinessID: f.biz.ID}, payroll.GeneratePayrollRequest{
		StaffID: member.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})
	assert.ErrorIs(t, err, access.ErrAdminRequired)
}

func TestPayrollService_GenerateSingle_CrossBusinessForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	member := f.addStaff(t, staff.SalaryMonthly, "1000")

	other, err := f.store.Businesses().Create(context.Background(), business.Business{Name: "Other", Slug: "other-co"})
	require.NoError(t, err)
	outsider := access.Admin{ID: repotest.NewID(), BusinessIDs: []string{other.ID}}

	_, err = f.svc.GenerateSingle(context.Background(), outsider, payroll.GeneratePayrollRequest{
		StaffID: member.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, total, err := f.store.Payrolls().List(context.Background(), payroll.ListFilter{Scope: access.Scope{Unrestricted: true}})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPayrollService_GenerateForBusiness(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		f.addStaff(t, staff.SalaryMonthly, "2500")
	}
	missing := f.addStaff(t, staff.SalaryMonthly, "")

	req := payroll.GenerateBusinessPayrollRequest{BusinessID: f.biz.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31"}

	// Act
	first, err := f.svc.GenerateForBusiness(ctx, f.admin, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchSummary{Total: 5, Generated: 4, Skipped: 0, Errors: 1}, first.Summary)
	require.Len(t, first.Errors, 1)
	assert.Equal(t, missing.ID, first.Errors[0].StaffID)
	assert.Equal(t, staff.ErrSalaryMissing.Error(), first.Errors[0].Reason)

	second, err := f.svc.GenerateForBusiness(ctx, f.admin, req)
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchSummary{Total: 5, Generated: 0, Skipped: 4, Errors: 1}, second.Summary)

	generated := map[string]string{}
	for _, g := range first.Generated {
		generated[g.StaffID] = g.ID
	}
	for _, s := range second.Skipped {
		assert.Equal(t, generated[s.StaffID], s.ExistingPayrollID)
		assert.Equal(t, payroll.ErrPeriodExists.Error(), s.Reason)
	}
}

func TestPayrollService_GenerateForBusiness_StorageErrorsAreNotEchoed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	broken := f.addStaff(t, staff.SalaryMonthly, "2500")
	f.addStaff(t, staff.SalaryMonthly, "2500")

	f.store.FailPayrollCreate = func(record payroll.PayrollRecord) error {
		if record.StaffID == broken.ID {
			return errors.New("conn reset by peer 10.0.0.5:5432")
		}
		return nil
	}

	resp, err := f.svc.GenerateForBusiness(context.Background(), f.admin, payroll.GenerateBusinessPayrollRequest{
		BusinessID: f.biz.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Generated)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, broken.ID, resp.Errors[0].StaffID)
	assert.NotContains(t, resp.Errors[0].Reason, "10.0.0.5")
}

func TestPayrollService_GenerateForBusiness_UnknownBusiness(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.GenerateForBusiness(context.Background(), access.SuperAdmin{ID: "root"}, payroll.GenerateBusinessPayrollRequest{
		BusinessID: repotest.NewID(), PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})
	assert.ErrorIs(t, err, business.ErrBusinessNotFound)
}

// ===== LIFECYCLE TESTS =====

func TestPayrollService_Lifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryMonthly, "3000")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	// calculated -> paid is not allowed
	_, err = f.svc.MarkPaid(ctx, f.admin, created.ID)
	require.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	notes := "checked by finance"
	approved, err := f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.admin.ID, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, fixedNow.Format(time.RFC3339), *approved.ApprovedAt)
	require.NotNil(t, approved.Notes)
	assert.Equal(t, notes, *approved.Notes)

	_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
	require.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	paid, err := f.svc.MarkPaid(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusPaid), paid.Status)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, f.admin.ID, *paid.PaidBy)

	f.svc.payslips.Wait()
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, member.Email, f.mail.to[0])
	assert.Equal(t, "3000.00", f.mail.sent[0].NetPay)
	assert.Equal(t, "Harbor Staffing", f.mail.sent[0].BusinessName)

	// paid is terminal
	before, _ := f.store.PayrollByID(created.ID)
	_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
	_, err = f.svc.AddAdjustment(ctx, f.admin, payroll.AddAdjustmentRequest{
		ID: created.ID, Kind: "addition", AdjustmentType: "bonus", Amount: "10",
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
	_, err = f.svc.MarkPaid(ctx, f.admin, created.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	after, _ := f.store.PayrollByID(created.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.True(t, before.NetPay.Equal(after.NetPay))
	assert.Len(t, after.Additions, 0)
	f.svc.payslips.Wait()
	assert.Len(t, f.mail.sent, 1)
}

func TestPayrollService_MarkPaid_EmailFailureDoesNotFail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.mail.err = errors.New("smtp unavailable")

	member := f.addStaff(t, staff.SalaryMonthly, "3000")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusPaid), paid.Status)
	f.svc.payslips.Wait()
}

func TestPayrollService_MarkPaid_DoesNotWaitForMailer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.mail.release = make(chan struct{})

	member := f.addStaff(t, staff.SalaryMonthly, "3000")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
	require.NoError(t, err)

	// The request context ends with the response; the send must survive it.
	reqCtx, cancelReq := context.WithCancel(context.Background())
	done := make(chan payroll.PayrollResponse, 1)
	go func() {
		paid, err := f.svc.MarkPaid(reqCtx, f.admin, created.ID)
		assert.NoError(t, err)
		done <- paid
	}()

	select {
	case paid := <-done:
		assert.Equal(t, string(payroll.StatusPaid), paid.Status)
	case <-time.After(2 * time.Second):
		close(f.mail.release)
		t.Fatal("MarkPaid waited for the payslip email")
	}
	cancelReq()

	close(f.mail.release)
	f.svc.payslips.Wait()

	f.mail.mu.Lock()
	defer f.mail.mu.Unlock()
	require.Len(t, f.mail.sent, 1, "payslip is delivered after the response")
	assert.Equal(t, member.Email, f.mail.to[0])
}

func TestPayrollService_AddAdjustment_RecomputesNetPay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryMonthly, "1000")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	description := "March target"
	withBonus, err := f.svc.AddAdjustment(ctx, f.admin, payroll.AddAdjustmentRequest{
		ID: created.ID, Kind: "addition", AdjustmentType: "bonus", Amount: "150.50", Description: &description,
	})
	require.NoError(t, err)
	assert.Equal(t, "1150.50", withBonus.NetPay)
	require.Len(t, withBonus.Additions, 1)
	assert.Equal(t, "150.50", withBonus.Additions[0].Amount)

	withTax, err := f.svc.AddAdjustment(ctx, f.admin, payroll.AddAdjustmentRequest{
		ID: created.ID, Kind: "deduction", AdjustmentType: "tax", Amount: "200",
	})
	require.NoError(t, err)
	assert.Equal(t, "950.50", withTax.NetPay)
	assert.Equal(t, "1000.00", withTax.CalculatedPay)
	assert.Len(t, withTax.Deductions, 1)

	_, err = f.svc.AddAdjustment(ctx, f.admin, payroll.AddAdjustmentRequest{
		ID: created.ID, Kind: "deduction", AdjustmentType: "tax", Amount: "-5",
	})
	assert.Error(t, err)

	stored, _ := f.store.PayrollByID(created.ID)
	assert.Equal(t, "950.50", stored.NetPay.StringFixed(2))
}

func TestPayrollService_Approve_RejectsNegativeNetPay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryMonthly, "100")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	adjusted, err := f.svc.AddAdjustment(ctx, f.admin, payroll.AddAdjustmentRequest{
		ID: created.ID, Kind: "deduction", AdjustmentType: "advance", Amount: "250",
	})
	require.NoError(t, err)
	assert.Equal(t, "-150.00", adjusted.NetPay)

	_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
	assert.ErrorIs(t, err, payroll.ErrNegativeNetPay)

	stored, _ := f.store.PayrollByID(created.ID)
	assert.Equal(t, payroll.StatusCalculated, stored.Status)
}

func TestPayrollService_Delete_ReleasesAttendance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryHourly, "10")
	shift := f.addShift(t, member, march(10, 9), 6*time.Hour, attendance.StatusApproved)

	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))

	_, err = f.svc.GetByID(ctx, f.admin, created.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)

	released, _ := f.store.AttendanceByID(shift.ID)
	assert.Nil(t, released.PayrollID)

	again, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
	assert.Equal(t, []string{shift.ID}, again.AttendanceIDs)
	assert.Equal(t, "60.00", again.CalculatedPay)
}

func TestPayrollService_Delete_PaidKeepsClaimsAndBlocksRegeneration(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	hourly := f.addStaff(t, staff.SalaryHourly, "10")
	monthly := f.addStaff(t, staff.SalaryMonthly, "3000")
	shift := f.addShift(t, hourly, march(10, 9), 6*time.Hour, attendance.StatusApproved)

	paidIDs := map[string]string{}
	for _, m := range []staff.Staff{hourly, monthly} {
		created, err := f.generate(t, m, "2026-03-01", "2026-03-31")
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: created.ID})
		require.NoError(t, err)
		_, err = f.svc.MarkPaid(ctx, f.admin, created.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
		paidIDs[m.ID] = created.ID
	}
	f.svc.payslips.Wait()

	kept, _ := f.store.AttendanceByID(shift.ID)
	require.NotNil(t, kept.PayrollID, "paid shifts stay claimed")
	assert.Equal(t, paidIDs[hourly.ID], *kept.PayrollID)

	for _, m := range []staff.Staff{hourly, monthly} {
		_, err := f.generate(t, m, "2026-03-01", "2026-03-31")
		require.ErrorIs(t, err, payroll.ErrPeriodPaid)
		var conflict *payroll.PeriodConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, paidIDs[m.ID], conflict.ExistingID)

		_, err = f.generate(t, m, "2026-03-15", "2026-04-14")
		assert.ErrorIs(t, err, payroll.ErrPeriodPaid, "overlapping a paid period is refused too")
	}

	batch, err := f.svc.GenerateForBusiness(ctx, f.admin, payroll.GenerateBusinessPayrollRequest{
		BusinessID: f.biz.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})
	require.NoError(t, err)
	assert.Empty(t, batch.Generated)
	require.Len(t, batch.Errors, 2)
	for _, failed := range batch.Errors {
		assert.Contains(t, failed.Reason, payroll.ErrPeriodPaid.Error())
	}

	next, err := f.generate(t, monthly, "2026-04-01", "2026-04-30")
	require.NoError(t, err)
	assert.Equal(t, "3000.00", next.CalculatedPay)
}

func TestPayrollService_GetByStaff_FormerStaffKeepHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryMonthly, "1000")
	created, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	require.NoError(t, f.store.Staff().SoftDelete(ctx, member.ID))

	history, err := f.svc.GetByStaff(ctx, f.admin, member.ID, payroll.PayrollFilter{})
	require.NoError(t, err)
	require.Len(t, history.Payrolls, 1)
	assert.Equal(t, created.ID, history.Payrolls[0].ID)

	other := access.Admin{ID: repotest.NewID(), BusinessIDs: []string{repotest.NewID()}}
	_, err = f.svc.GetByStaff(ctx, other, member.ID, payroll.PayrollFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = f.svc.GetByStaff(ctx, f.admin, repotest.NewID(), payroll.PayrollFilter{})
	assert.ErrorIs(t, err, staff.ErrStaffNotFound)
}

// ===== READ TESTS =====

func TestPayrollService_Reads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.addStaff(t, staff.SalaryMonthly, "1000")
	b := f.addStaff(t, staff.SalaryMonthly, "2000")

	for _, m := range []staff.Staff{a, b} {
		_, err := f.generate(t, m, "2026-02-01", "2026-02-28")
		require.NoError(t, err)
		_, err = f.generate(t, m, "2026-03-01", "2026-03-31")
		require.NoError(t, err)
	}

	byStaff, err := f.svc.GetByStaff(ctx, f.admin, a.ID, payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byStaff.TotalCount)
	assert.Equal(t, "2026-03-01", byStaff.Payrolls[0].PeriodStart, "newest period first")

	start := "2026-03-01"
	byBusiness, err := f.svc.GetByBusiness(ctx, f.admin, f.biz.ID, payroll.PayrollFilter{PeriodStart: &start, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byBusiness.TotalCount)
	assert.Equal(t, 2, byBusiness.TotalPages)
	assert.Len(t, byBusiness.Payrolls, 1)

	_, err = f.svc.GetByStaff(ctx, access.Staff{ID: a.ID, BusinessID: f.biz.ID}, a.ID, payroll.PayrollFilter{})
	assert.ErrorIs(t, err, access.ErrAdminRequired)

	outsider := access.Admin{ID: repotest.NewID(), BusinessIDs: []string{repotest.NewID()}}
	_, err = f.svc.GetByBusiness(ctx, outsider, f.biz.ID, payroll.PayrollFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = f.svc.GetByID(ctx, outsider, byStaff.Payrolls[0].ID)
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestPayrollService_Summary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.addStaff(t, staff.SalaryMonthly, "1000")
	b := f.addStaff(t, staff.SalaryMonthly, "2000.50")

	first, err := f.generate(t, a, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	_, err = f.generate(t, b, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, payroll.ApprovePayrollRequest{ID: first.ID})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, f.admin, f.biz.ID, payroll.SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"draft": 0, "calculated": 1, "approved": 1, "paid": 0}, summary.CountByStatus)
	assert.EqualValues(t, 2, summary.TotalRecords)
	assert.Equal(t, "3000.50", summary.TotalCalculatedPay)
	assert.Equal(t, "3000.50", summary.TotalNetPay)

	april := "2026-04-01"
	empty, err := f.svc.Summary(ctx, f.admin, f.biz.ID, payroll.SummaryFilter{PeriodStart: &april})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRecords)
	assert.Equal(t, "0.00", empty.TotalNetPay)
	require.NotNil(t, empty.PeriodStart)
	assert.Equal(t, april, *empty.PeriodStart)
}

func TestPayrollService_Export(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	member := f.addStaff(t, staff.SalaryHourly, "15")
	f.addShift(t, member, march(10, 9), 8*time.Hour, attendance.StatusApproved)
	_, err := f.generate(t, member, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	file, err := f.svc.Export(ctx, f.admin, f.biz.ID, payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Equal(t, "payroll-harbor-staffing-20260402.xlsx", file.Filename)
	assert.Equal(t, xlsxContentType, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0][:len(exportHeaders)])
	assert.Contains(t, rows[1], "Dana")
	assert.Contains(t, rows[1], "Reyes")
	assert.Contains(t, rows[1], "2026-03-01")
}
