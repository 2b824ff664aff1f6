package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/config"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// NewLogger builds the ECS-formatted JSON logger shared by the request
// logger and the rest of the process.
func NewLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
}

func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	JWTService jwt.Service,
	admins middleware.AdminDirectory,
	authHandler AuthHandler,
	businessHandler BusinessHandler,
	staffHandler StaffHandler,
	attendanceHandler AttendanceHandler,
	payrollHandler PayrollHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// Clock-in proof photos
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.BasePath)))
	r.Get("/uploads/*", fs.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/admin/login", authHandler.AdminLogin)
			r.Post("/staff/login", authHandler.StaffLogin)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService, admins))

			r.With(middleware.SuperAdminOnly).Post("/admins", businessHandler.CreateAdmin)

			r.Route("/businesses", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.With(middleware.SuperAdminOnly).Post("/", businessHandler.Create)
				r.Get("/", businessHandler.List)

				r.Route("/{businessID}", func(r chi.Router) {
					r.Get("/", businessHandler.Get)

					r.Route("/admins", func(r chi.Router) {
						r.Use(middleware.SuperAdminOnly)
						r.Post("/", businessHandler.GrantAdmin)
						r.Delete("/{adminID}", businessHandler.RevokeAdmin)
					})

					r.Post("/staff", staffHandler.Create)
					r.Get("/staff", staffHandler.List)
					r.Get("/attendance", attendanceHandler.ListByBusiness)

					r.Route("/payrolls", func(r chi.Router) {
						r.Get("/", payrollHandler.GetPayrollByBusiness)
						r.Post("/generate", payrollHandler.GenerateBusinessPayroll)
						r.Get("/summary", payrollHandler.GetPayrollSummary)
						r.Get("/export", payrollHandler.ExportPayroll)
					})
				})
			})

			r.Route("/staff/{staffID}", func(r chi.Router) {
				r.Get("/", staffHandler.Get)
				r.Get("/attendance", attendanceHandler.ListByStaff)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/", staffHandler.Update)
					r.Delete("/", staffHandler.Delete)
					r.Get("/payrolls", payrollHandler.GetPayrollByStaff)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				// Staff only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff)
					r.Post("/clock-in", attendanceHandler.ClockIn)
					r.Post("/clock-out", attendanceHandler.ClockOut)
					r.Get("/me", attendanceHandler.GetMyAttendance)
				})

				r.Get("/{id}", attendanceHandler.Get)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", attendanceHandler.List)
					r.Patch("/{id}/review", attendanceHandler.Review)
					r.Put("/{id}", attendanceHandler.Update)
					r.Delete("/{id}", attendanceHandler.Delete)
				})
			})

			r.Route("/payrolls", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/generate", payrollHandler.GeneratePayroll)
				r.Get("/{id}", payrollHandler.GetPayrollByID)
				r.Patch("/{id}/approve", payrollHandler.ApprovePayroll)
				r.Patch("/{id}/pay", payrollHandler.MarkPayrollPaid)
				r.Post("/{id}/adjustments", payrollHandler.AddPayrollAdjustment)
				r.Delete("/{id}", payrollHandler.DeletePayroll)
			})
		})
	})
	return r
}
