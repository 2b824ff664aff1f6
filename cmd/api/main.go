package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/staffdesk-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/telemetry"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/repository/postgresql"
	adminService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/admin"
	attendanceService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/auth"
	businessService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/service/file"
	payrollService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/payroll"
	staffService "github.com/cmlabs-hris/staffdesk-backend-go/internal/service/staff"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := appHTTP.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.App, cfg.Telemetry)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewPostgreSQLDB(connectCtx, cfg.DatabaseURL())
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	// Repositories
	businessRepo := postgresql.NewBusinessRepository(db)
	adminRepo := postgresql.NewAdminRepository(db)
	staffRepo := postgresql.NewStaffRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)

	// Services
	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}
	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}
	fileService := file.NewFileService(fileStorage)

	authSvc := serviceAuth.NewAuthService(adminRepo, staffRepo, JWTService)
	adminSvc := adminService.NewAdminService(adminRepo)
	businessSvc := businessService.NewBusinessService(businessRepo, adminRepo)
	staffSvc := staffService.NewStaffService(staffRepo, businessRepo)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, staffRepo, businessRepo, fileService)
	payrollSvc := payrollService.NewPayrollService(payrollRepo, attendanceRepo, staffRepo, businessRepo, emailService)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Handlers
	router := appHTTP.NewRouter(
		cfg,
		logger,
		JWTService,
		adminRepo,
		appHTTP.NewAuthHandler(authSvc),
		appHTTP.NewBusinessHandler(businessSvc, adminSvc),
		appHTTP.NewStaffHandler(staffSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, cfg.App.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.App.ShutdownTimeout)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
