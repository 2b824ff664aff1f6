package attendance

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/repository/repotest"
	payrollservice "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fakeFiles struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeFiles) UploadAttendanceProof(ctx context.Context, staffID string, at time.Time, file io.Reader, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	url := "/uploads/attendance/" + at.Format(time.DateOnly) + "/" + staffID + ".jpg"
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, path string) error {
	return nil
}

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

type fixture struct {
	store  *repotest.Store
	svc    *AttendanceServiceImpl
	clock  *testClock
	files  *fakeFiles
	biz    business.Business
	admin  access.Admin
	member staff.Staff
	self   access.Staff
}

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, geofence bool) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repotest.NewStore()

	b := business.Business{Name: "Harbor Staffing", Slug: "harbor-staffing"}
	if geofence {
		lat, lon, radius := -6.2088, 106.8456, 100
		b.Latitude, b.Longitude, b.RadiusMeters = &lat, &lon, &radius
	}
	biz, err := store.Businesses().Create(ctx, b)
	require.NoError(t, err)

	rate := decimal.NewFromInt(15)
	member, err := store.Staff().Create(ctx, staff.Staff{
		BusinessID: biz.ID,
		FirstName:  "Sam",
		LastName:   "Okafor",
		Email:      "sam@example.com",
		Position:   "Driver",
		Salary:     &rate,
		SalaryType: staff.SalaryHourly,
	})
	require.NoError(t, err)

	clock := &testClock{t: t0}
	files := &fakeFiles{}
	svc := NewAttendanceService(store.Attendance(), store.Staff(), store.Businesses(), files).(*AttendanceServiceImpl)
	svc.now = clock.Now

	return &fixture{
		store:  store,
		svc:    svc,
		clock:  clock,
		files:  files,
		biz:    biz,
		admin:  access.Admin{ID: repotest.NewID(), BusinessIDs: []string{biz.ID}},
		member: member,
		self:   access.Staff{ID: member.ID, BusinessID: biz.ID},
	}
}

func (f *fixture) clockInOut(t *testing.T, in time.Time, worked time.Duration) attendance.AttendanceResponse {
	t.Helper()
	ctx := context.Background()
	f.clock.Set(in)
	_, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	require.NoError(t, err)
	f.clock.Set(in.Add(worked))
	out, err := f.svc.ClockOut(ctx, f.self, attendance.ClockOutRequest{})
	require.NoError(t, err)
	return out
}

func photo(name string) (multipart.File, *multipart.FileHeader) {
	data := []byte("not really a jpeg")
	return memFile{bytes.NewReader(data)}, &multipart.FileHeader{Filename: name, Size: int64(len(data))}
}

// ===== CLOCK IN / OUT TESTS =====

func TestAttendanceService_ClockIn_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	notes := "early start"

	resp, err := f.svc.ClockIn(context.Background(), f.self, attendance.ClockInRequest{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, f.member.ID, resp.StaffID)
	assert.Equal(t, f.biz.ID, resp.BusinessID)
	assert.Equal(t, t0.Format(time.RFC3339), resp.ClockIn)
	assert.Nil(t, resp.ClockOut)
	assert.Nil(t, resp.HoursWorked)
	assert.Equal(t, string(attendance.StatusPending), resp.Status)
	require.NotNil(t, resp.StaffName)
	assert.Equal(t, "Sam Okafor", *resp.StaffName)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, notes, *resp.Notes)
}

func TestAttendanceService_ClockIn_DoubleClockInConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	require.NoError(t, err)

	file, header := photo("proof.jpg")
	_, err = f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{File: file, FileHeader: header})

	require.ErrorIs(t, err, attendance.ErrOpenShiftExists)
	var conflict *attendance.OpenShiftError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ExistingID)
	assert.Empty(t, f.files.uploads, "no proof is stored for a rejected clock-in")
}

func TestAttendanceService_ClockIn_ConcurrentSingleOpenShift(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	const workers = 10
	var wg sync.WaitGroup
	responses := make([]attendance.AttendanceResponse, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = f.svc.ClockIn(context.Background(), f.self, attendance.ClockInRequest{})
		}(i)
	}
	wg.Wait()

	winner := ""
	for i, err := range errs {
		if err == nil {
			require.Empty(t, winner, "exactly one clock-in may succeed")
			winner = responses[i].ID
		}
	}
	require.NotEmpty(t, winner)
	for _, err := range errs {
		if err == nil {
			continue
		}
		var conflict *attendance.OpenShiftError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, winner, conflict.ExistingID)
	}
}

func TestAttendanceService_ClockIn_WithProof(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	file, header := photo("proof.png")
	resp, err := f.svc.ClockIn(context.Background(), f.self, attendance.ClockInRequest{File: file, FileHeader: header})

	require.NoError(t, err)
	require.NotNil(t, resp.ClockInProofURL)
	assert.Equal(t, []string{*resp.ClockInProofURL}, f.files.uploads)

	file, header = photo("proof.gif")
	_, err = f.svc.ClockIn(context.Background(), access.Staff{ID: f.member.ID, BusinessID: f.biz.ID}, attendance.ClockInRequest{File: file, FileHeader: header})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, attendance.ErrOpenShiftExists, "validation runs before the open shift check")
}

func TestAttendanceService_ClockIn_Geofence(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)

	farLat, farLon := -6.1751, 106.8650
	_, err = f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{Latitude: &farLat, Longitude: &farLon})
	assert.ErrorIs(t, err, attendance.ErrOutsideAllowedRadius)

	nearLat, nearLon := -6.2089, 106.8457
	resp, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{Latitude: &nearLat, Longitude: &nearLon})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestAttendanceService_ClockIn_RequiresEmployedStaff(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, f.admin, attendance.ClockInRequest{})
	assert.ErrorIs(t, err, access.ErrStaffRequired)

	_, err = f.svc.ClockIn(ctx, nil, attendance.ClockInRequest{})
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	terminated := f.member
	terminated.Status = staff.StatusTerminated
	_, err = f.store.Staff().Update(ctx, terminated)
	require.NoError(t, err)
	_, err = f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	assert.ErrorIs(t, err, staff.ErrStaffNotActive)
}

func TestAttendanceService_ClockOut_ComputesHours(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	in, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	require.NoError(t, err)

	f.clock.Set(t0.Add(7*time.Hour + 45*time.Minute))
	out, err := f.svc.ClockOut(ctx, f.self, attendance.ClockOutRequest{})

	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	require.NotNil(t, out.ClockOut)
	assert.Equal(t, t0.Add(7*time.Hour+45*time.Minute).Format(time.RFC3339), *out.ClockOut)
	require.NotNil(t, out.HoursWorked)
	assert.Equal(t, "7.75", *out.HoursWorked)
	assert.Equal(t, string(attendance.StatusPending), out.Status)

	_, err = f.svc.ClockOut(ctx, f.self, attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNoOpenShift)

	// a closed shift frees the staff member to clock in again
	_, err = f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	assert.NoError(t, err)
}

func TestAttendanceService_ClockOut_BeforeClockInRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	in, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	require.NoError(t, err)

	f.clock.Set(t0.Add(-time.Minute))
	_, err = f.svc.ClockOut(ctx, f.self, attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrClockOutBeforeClockIn)

	stored, ok := f.store.AttendanceByID(in.ID)
	require.True(t, ok)
	assert.True(t, stored.IsOpen(), "failed clock-out leaves the shift open")
}

func TestAttendanceService_ClockOut_WithoutOpenShift(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	_, err := f.svc.ClockOut(context.Background(), f.self, attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNoOpenShift)
}

// ===== REVIEW / EDIT / DELETE TESTS =====

func TestAttendanceService_Review(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	open, err := f.svc.ClockIn(ctx, f.self, attendance.ClockInRequest{})
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: open.ID, Status: "approved"})
	require.ErrorIs(t, err, attendance.ErrShiftStillOpen)

	f.clock.Set(t0.Add(8 * time.Hour))
	_, err = f.svc.ClockOut(ctx, f.self, attendance.ClockOutRequest{})
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, f.self, attendance.ReviewRequest{ID: open.ID, Status: "approved"})
	require.ErrorIs(t, err, access.ErrAdminRequired)

	outsider := access.Admin{ID: repotest.NewID(), BusinessIDs: []string{repotest.NewID()}}
	_, err = f.svc.Review(ctx, outsider, attendance.ReviewRequest{ID: open.ID, Status: "approved"})
	require.ErrorIs(t, err, access.ErrForbidden)

	_, err = f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: repotest.NewID(), Status: "approved"})
	require.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	notes := "ok"
	reviewed, err := f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: open.ID, Status: "approved", AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusApproved), reviewed.Status)
	require.NotNil(t, reviewed.ApprovedBy)
	assert.Equal(t, f.admin.ID, *reviewed.ApprovedBy)
	require.NotNil(t, reviewed.AdminNotes)
	assert.Equal(t, notes, *reviewed.AdminNotes)

	_, err = f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: open.ID, Status: "rejected"})
	assert.ErrorIs(t, err, attendance.ErrAttendanceAlreadyProcessed)

	_, err = f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: open.ID, Status: "pending"})
	var verrs interface{ ToMap() map[string]string }
	assert.ErrorAs(t, err, &verrs)
}

func TestAttendanceService_Edit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	rec := f.clockInOut(t, t0, 8*time.Hour)

	newOut := t0.Add(6 * time.Hour).Format(time.RFC3339)
	edited, err := f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: rec.ID, ClockOut: &newOut})
	require.NoError(t, err)
	require.NotNil(t, edited.HoursWorked)
	assert.Equal(t, "6.00", *edited.HoursWorked)
	require.NotNil(t, edited.EditedBy)
	assert.Equal(t, f.admin.ID, *edited.EditedBy)

	badOut := t0.Add(-time.Hour).Format(time.RFC3339)
	_, err = f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: rec.ID, ClockOut: &badOut})
	assert.ErrorIs(t, err, attendance.ErrClockOutBeforeClockIn)

	approved := "approved"
	edited, err = f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: rec.ID, Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, approved, edited.Status)
	require.NotNil(t, edited.ApprovedBy)

	pending := "pending"
	edited, err = f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: rec.ID, Status: &pending})
	require.NoError(t, err)
	assert.Nil(t, edited.ApprovedBy)
	assert.Nil(t, edited.ApprovedAt)

	_, err = f.svc.Edit(ctx, f.self, attendance.EditRequest{ID: rec.ID, Status: &approved})
	assert.ErrorIs(t, err, access.ErrAdminRequired)
}

func TestAttendanceService_ClaimedRecordsAreLocked(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	rec := f.clockInOut(t, t0, 8*time.Hour)

	stored, _ := f.store.AttendanceByID(rec.ID)
	payrollID := repotest.NewID()
	stored.PayrollID = &payrollID
	f.store.SeedAttendance(stored)

	notes := "fix"
	_, err := f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: rec.ID, Notes: &notes})
	assert.ErrorIs(t, err, attendance.ErrAttendanceLocked)

	err = f.svc.Delete(ctx, f.admin, rec.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceLocked)

	_, err = f.svc.Get(ctx, f.admin, rec.ID)
	assert.NoError(t, err)
}

func TestAttendanceService_Delete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	rec := f.clockInOut(t, t0, 8*time.Hour)

	require.NoError(t, f.svc.Delete(ctx, f.admin, rec.ID))

	_, err := f.svc.Get(ctx, f.admin, rec.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	list, err := f.svc.Query(ctx, f.admin, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	list, err = f.svc.Query(ctx, f.admin, attendance.AttendanceFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.TotalCount)

	list, err = f.svc.Query(ctx, f.self, attendance.AttendanceFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount, "staff never see deleted rows")
}

// ===== READ TESTS =====

func TestAttendanceService_Query_Scoping(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()

	colleague, err := f.store.Staff().Create(ctx, staff.Staff{
		BusinessID: f.biz.ID, FirstName: "Ana", Email: "ana@example.com", SalaryType: staff.SalaryDaily,
	})
	require.NoError(t, err)
	colleagueSelf := access.Staff{ID: colleague.ID, BusinessID: f.biz.ID}

	f.clockInOut(t, t0, 8*time.Hour)
	f.clockInOut(t, t0.AddDate(0, 0, 1), 8*time.Hour)
	f.clock.Set(t0)
	_, err = f.svc.ClockIn(ctx, colleagueSelf, attendance.ClockInRequest{})
	require.NoError(t, err)

	own, err := f.svc.Query(ctx, f.self, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, own.TotalCount)
	for _, a := range own.Attendances {
		assert.Equal(t, f.member.ID, a.StaffID)
	}
	assert.Equal(t, "1-2 of 2", own.Showing)

	_, err = f.svc.Query(ctx, f.self, attendance.AttendanceFilter{StaffID: &colleague.ID})
	assert.ErrorIs(t, err, access.ErrForbidden)

	otherBiz := repotest.NewID()
	_, err = f.svc.Query(ctx, f.self, attendance.AttendanceFilter{BusinessID: &otherBiz})
	assert.ErrorIs(t, err, access.ErrForbidden)

	all, err := f.svc.Query(ctx, f.admin, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.TotalCount)

	day := t0.Format(time.DateOnly)
	oneDay, err := f.svc.Query(ctx, f.admin, attendance.AttendanceFilter{StaffID: &f.member.ID, StartDate: &day, EndDate: &day})
	require.NoError(t, err)
	assert.EqualValues(t, 1, oneDay.TotalCount)

	outsider := access.Admin{ID: repotest.NewID(), BusinessIDs: []string{otherBiz}}
	none, err := f.svc.Query(ctx, outsider, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, none.TotalCount)
	assert.Equal(t, "0 of 0", none.Showing)

	_, err = f.svc.Query(ctx, outsider, attendance.AttendanceFilter{StaffID: &f.member.ID})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestAttendanceService_Get_OwnRecordsOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	rec := f.clockInOut(t, t0, 2*time.Hour)

	got, err := f.svc.Get(ctx, f.self, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = f.svc.Get(ctx, access.Staff{ID: repotest.NewID(), BusinessID: f.biz.ID}, rec.ID)
	assert.ErrorIs(t, err, access.ErrForbidden)
}

// ===== END TO END =====

func TestAttendanceToPayroll_EndToEnd(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	payrolls := payrollservice.NewPayrollService(f.store.Payrolls(), f.store.Attendance(), f.store.Staff(), f.store.Businesses(), nil)

	// Arrange: one approved 8h shift at 15/h
	shift := f.clockInOut(t, t0, 8*time.Hour)
	_, err := f.svc.Review(ctx, f.admin, attendance.ReviewRequest{ID: shift.ID, Status: "approved"})
	require.NoError(t, err)

	// Act
	generated, err := payrolls.GenerateSingle(ctx, f.admin, payroll.GeneratePayrollRequest{
		StaffID: f.member.ID, PeriodStart: "2026-03-01", PeriodEnd: "2026-03-31",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "120.00", generated.CalculatedPay)
	assert.Equal(t, 1, generated.AttendanceCount)

	claimed, err := f.svc.Get(ctx, f.admin, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.PayrollID)
	assert.Equal(t, generated.ID, *claimed.PayrollID)

	notes := "late fix"
	_, err = f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: shift.ID, Notes: &notes})
	assert.ErrorIs(t, err, attendance.ErrAttendanceLocked)

	require.NoError(t, payrolls.Delete(ctx, f.admin, generated.ID))
	_, err = f.svc.Edit(ctx, f.admin, attendance.EditRequest{ID: shift.ID, Notes: &notes})
	assert.NoError(t, err, "deleting the payroll unlocks its attendance")
}
