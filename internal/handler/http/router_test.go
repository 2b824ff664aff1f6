package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/config"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/admin"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/repository/repotest"
	adminService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/admin"
	attendanceService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/attendance"
	authService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/auth"
	businessService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/service/file"
	payrollService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/payroll"
	staffService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/staff"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router   *chi.Mux
	store    *repotest.Store
	business business.Business
	other    business.Business
	member   staff.Staff
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		App:     config.AppConfig{Name: "staffdesk-test", Version: "test", Env: "test", LogLevel: "error"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{BasePath: t.TempDir(), BaseURL: "http://localhost/uploads"},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tokens, err := jwt.NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	require.NoError(t, err)
	mailer, err := email.NewEmailService(config.SMTPConfig{})
	require.NoError(t, err)

	store := repotest.NewStore()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = store.Admins().Create(ctx, admin.Admin{Email: "root@example.com", Name: "Root", PasswordHash: string(hash), IsSuperAdmin: true})
	require.NoError(t, err)
	ops, err := store.Admins().Create(ctx, admin.Admin{Email: "ops@example.com", Name: "Ops", PasswordHash: string(hash)})
	require.NoError(t, err)

	biz, err := store.Businesses().Create(ctx, business.Business{Name: "Harbor Staffing", Slug: "harbor-staffing"})
	require.NoError(t, err)
	other, err := store.Businesses().Create(ctx, business.Business{Name: "Other Co", Slug: "other-co"})
	require.NoError(t, err)
	require.NoError(t, store.Admins().GrantBusiness(ctx, ops.ID, biz.ID))

	staffHash := string(hash)
	member, err := store.Staff().Create(ctx, staff.Staff{
		BusinessID:   biz.ID,
		FirstName:    "Dana",
		LastName:     "Reyes",
		Email:        "dana@example.com",
		Position:     "Picker",
		SalaryType:   staff.SalaryMonthly,
		Salary:       decimalPtr(t, "3000"),
		Status:       staff.StatusActive,
		PasswordHash: &staffHash,
	})
	require.NoError(t, err)

	adminRepo := store.Admins()
	router := NewRouter(
		cfg,
		logger,
		tokens,
		adminRepo,
		NewAuthHandler(authService.NewAuthService(adminRepo, store.Staff(), tokens)),
		NewBusinessHandler(
			businessService.NewBusinessService(store.Businesses(), adminRepo),
			adminService.NewAdminService(adminRepo),
		),
		NewStaffHandler(staffService.NewStaffService(store.Staff(), store.Businesses())),
		NewAttendanceHandler(attendanceService.NewAttendanceService(
			store.Attendance(), store.Staff(), store.Businesses(), file.NewFileService(fileStorage),
		)),
		NewPayrollHandler(payrollService.NewPayrollService(
			store.Payrolls(), store.Attendance(), store.Staff(), store.Businesses(), mailer,
		)),
	)

	return &testServer{router: router, store: store, business: biz, other: other, member: member}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) login(t *testing.T, kind, email string) string {
	t.Helper()

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/"+kind+"/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &token))
	return token.AccessToken
}

func decimalPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := decimal.RequireFromString(s)
	return &d
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// ===== AUTHENTICATION =====

func TestRouter_Login(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	assert.NotEmpty(t, s.login(t, "admin", "ops@example.com"))
	assert.NotEmpty(t, s.login(t, "staff", "dana@example.com"))

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]string{
		"email": "ops@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
}

func TestRouter_RequiresToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/businesses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/businesses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RoleGates(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	staffToken := s.login(t, "staff", "dana@example.com")
	adminToken := s.login(t, "admin", "ops@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/v1/payrolls/generate", staffToken, map[string]string{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/businesses", adminToken, map[string]string{"name": "New", "slug": "new-biz"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "creating businesses is super-admin only")
}

func TestRouter_BusinessScoping(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "ops@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/v1/businesses", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []business.BusinessResponse
	decodeData(t, env, &list)
	require.Len(t, list, 1)
	assert.Equal(t, s.business.ID, list[0].ID)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/businesses/"+s.other.ID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/businesses/"+s.other.ID+"/payrolls", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/businesses/"+repotest.NewID(), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "non members cannot tell whether the business exists")

	rootToken := s.login(t, "admin", "root@example.com")
	rec, _ = s.do(t, http.MethodGet, "/api/v1/businesses/"+repotest.NewID(), rootToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ===== ATTENDANCE =====

func TestRouter_ClockIn_ConflictCarriesExistingID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	staffToken := s.login(t, "staff", "dana@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", staffToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &opened)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", staffToken, map[string]string{"notes": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, opened.ID, env.Error.Details["existing_id"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", staffToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", staffToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/me", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		TotalCount int64 `json:"total_count"`
	}
	decodeData(t, env, &mine)
	assert.EqualValues(t, 1, mine.TotalCount)
}

// ===== PAYROLL =====

func TestRouter_PayrollLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "ops@example.com")

	today := time.Now().UTC().Format("2006-01-02")
	rec, env := s.do(t, http.MethodPost, "/api/v1/payrolls/generate", adminToken, map[string]string{
		"staff_id":     s.member.ID,
		"period_start": today,
		"period_end":   today,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var generated struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		NetPay string `json:"net_pay"`
	}
	decodeData(t, env, &generated)
	assert.Equal(t, "calculated", generated.Status)
	assert.Equal(t, "3000.00", generated.NetPay)

	// Same period again
	rec, env = s.do(t, http.MethodPost, "/api/v1/payrolls/generate", adminToken, map[string]string{
		"staff_id":     s.member.ID,
		"period_start": today,
		"period_end":   today,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, generated.ID, env.Error.Details["existing_id"])

	// Paying before approval is an illegal transition, not a conflict
	rec, env = s.do(t, http.MethodPatch, "/api/v1/payrolls/"+generated.ID+"/pay", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE_TRANSITION", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/payrolls/"+generated.ID+"/adjustments", adminToken, map[string]string{
		"type": "addition", "adjustment_type": "bonus", "amount": "150.50",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/payrolls/"+generated.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPatch, "/api/v1/payrolls/"+generated.ID+"/pay", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid struct {
		Status string `json:"status"`
		NetPay string `json:"net_pay"`
	}
	decodeData(t, env, &paid)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "3150.50", paid.NetPay)

	// Paid records can still be hidden from active views
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/payrolls/"+generated.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/payrolls/"+generated.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PayrollExport(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "ops@example.com")

	rec, _ := s.do(t, http.MethodGet, "/api/v1/businesses/"+s.business.ID+"/payrolls/export", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="payroll-harbor-staffing-`)
	assert.NotZero(t, rec.Body.Len())
}

func TestRouter_PayrollSummaryValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "ops@example.com")

	rec, env := s.do(t, http.MethodGet,
		"/api/v1/businesses/"+s.business.ID+"/payrolls/summary?period_start=2026-04-01&period_end=2026-03-01", adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "period_end")
}
