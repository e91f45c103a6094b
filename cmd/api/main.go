package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hrms-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hrms-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hrms-backend-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/hrms-backend-go/internal/service/payroll"
	regularizationService "github.com/cmlabs-hris/hrms-backend-go/internal/service/regularization"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	runJobsOnce := flag.Bool("run-jobs-once", false, "run every background job once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	tx := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	settingsRepo := postgresql.NewAttendanceSettingsRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	regularizationRepo := postgresql.NewRegularizationRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, settingsRepo, holidayRepo, employeeRepo, hub)
	regularizationSvc := regularizationService.NewRegularizationService(tx, regularizationRepo, attendanceRepo, settingsRepo, hub)
	payrollSvc := payrollService.NewPayrollService(tx, payrollRepo, employeeRepo, attendanceRepo, holidayRepo, hub)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, holidayRepo, employeeRepo, hub).RegisterJobs(scheduler, cfg.Jobs.AbsenceInterval)

	if *runJobsOnce {
		scheduler.RunOnce(ctx)
		if result, ok := scheduler.LastResult(cron.JobMarkUnmarkedAbsences); ok && result.Err != nil {
			return fmt.Errorf("%s: %w", cron.JobMarkUnmarkedAbsences, result.Err)
		}
		return nil
	}

	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
		},
		JWTService,
		appHTTP.Handlers{
			Attendance:     appHTTP.NewAttendanceHandler(attendanceSvc),
			Regularization: appHTTP.NewRegularizationHandler(regularizationSvc),
			Payroll:        appHTTP.NewPayrollHandler(payrollSvc),
			Events:         appHTTP.NewEventsHandler(hub),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
