package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Handlers struct {
	Attendance     AttendanceHandler
	Regularization RegularizationHandler
	Payroll        PayrollHandler
	Events         EventsHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hrms-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	ja := JWTService.JWTAuth()
	limit := middleware.RateLimit(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	can := middleware.RequirePermission

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource cannot set headers, so the stream also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(ja, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired)
			r.Get("/events", h.Events.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(ja))
			r.Use(middleware.AuthRequired)
			r.Use(limit)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/settings", h.Attendance.GetSettings)
				r.With(can(user.PermissionAttendanceSettings)).Put("/settings", h.Attendance.UpdateSettings)
				r.Post("/preview", h.Attendance.Preview)

				r.Get("/holidays", h.Attendance.ListHolidays)
				r.With(can(user.PermissionAttendanceHolidays)).Post("/holidays", h.Attendance.CreateHoliday)

				r.Group(func(r chi.Router) {
					r.Use(can(user.PermissionAttendanceClock))
					r.Use(middleware.RequireEmployee)
					r.Post("/clock-in", h.Attendance.ClockIn)
					r.Post("/clock-out", h.Attendance.ClockOut)
				})

				r.With(can(user.PermissionAttendanceViewOwn), middleware.RequireEmployee).Get("/my", h.Attendance.GetMyAttendance)
				r.With(can(user.PermissionAttendanceViewOwn)).Get("/summary", h.Attendance.Summary)

				r.With(can(user.PermissionAttendanceExport)).Get("/export", h.Attendance.Export)
				r.With(can(user.PermissionAttendanceViewAll)).Get("/", h.Attendance.List)
				r.With(can(user.PermissionAttendanceViewAll)).Get("/{id}", h.Attendance.Get)
				r.With(can(user.PermissionAttendanceManage)).Post("/mark", h.Attendance.Mark)
				r.With(can(user.PermissionAttendanceManage)).Put("/update/{id}", h.Attendance.Update)
			})

			r.Route("/regularizations", func(r chi.Router) {
				r.With(can(user.PermissionRegularizationCreate), middleware.RequireEmployee).Post("/", h.Regularization.Create)
				r.With(can(user.PermissionRegularizationViewOwn)).Get("/my", h.Regularization.ListMine)
				r.With(can(user.PermissionRegularizationViewAll)).Get("/", h.Regularization.List)
				r.With(can(user.PermissionRegularizationViewOwn)).Get("/{id}", h.Regularization.Get)

				r.Group(func(r chi.Router) {
					r.Use(can(user.PermissionRegularizationReview))
					r.Post("/{id}/approve", h.Regularization.Approve)
					r.Post("/{id}/reject", h.Regularization.Reject)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/slips", func(r chi.Router) {
					r.With(can(user.PermissionPayrollViewOwn)).Get("/my", h.Payroll.ListMySlips)
					r.With(can(user.PermissionPayrollViewOwn)).Get("/{id}", h.Payroll.GetSlip)
					r.With(can(user.PermissionPayrollViewAll)).Get("/", h.Payroll.ListSlips)
					r.With(can(user.PermissionPayrollManage)).Post("/", h.Payroll.CreateSlip)
				})

				r.Group(func(r chi.Router) {
					r.Use(can(user.PermissionPayrollManage))

					r.Get("/structures/{employeeId}", h.Payroll.GetStructure)
					r.Put("/structures/{employeeId}", h.Payroll.UpsertStructure)

					r.Post("/preview", h.Payroll.Preview)
					r.Post("/process", h.Payroll.Process)

					r.Post("/batches", h.Payroll.CreateBatch)
					r.Post("/batches/{id}/mark-paid", h.Payroll.MarkPaid)
				})

				r.Group(func(r chi.Router) {
					r.Use(can(user.PermissionPayrollViewAll))
					r.Get("/batches", h.Payroll.ListBatches)
					r.Get("/batches/{id}", h.Payroll.GetBatch)
					r.Get("/batches/{id}/export", h.Payroll.ExportBatch)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	})
	return r
}
