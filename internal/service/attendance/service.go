package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
	"golang.org/x/sync/errgroup"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	settingsRepo   attendance.SettingsRepository
	holidayRepo    attendance.HolidayRepository
	employeeRepo   employee.EmployeeRepository
	hub            *sse.Hub
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	settingsRepo attendance.SettingsRepository,
	holidayRepo attendance.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	hub *sse.Hub,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		settingsRepo:   settingsRepo,
		holidayRepo:    holidayRepo,
		employeeRepo:   employeeRepo,
		hub:            hub,
		now:            time.Now,
	}
}

// loadSettings falls back to the defaults when the company never saved its own
func (s *AttendanceServiceImpl) loadSettings(ctx context.Context, companyID string) (attendance.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, attendance.ErrSettingsNotFound) {
			return attendance.DefaultSettings(companyID), nil
		}
		return attendance.Settings{}, fmt.Errorf("failed to load attendance settings: %w", err)
	}
	return settings, nil
}

func (s *AttendanceServiceImpl) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ========== SETTINGS ==========

// GetSettings implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSettings(ctx context.Context) (attendance.SettingsResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.SettingsResponse{}, err
	}

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.SettingsResponse{}, err
	}

	return toSettingsResponse(settings), nil
}

// UpdateSettings implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateSettings(ctx context.Context, req attendance.UpdateSettingsRequest) (attendance.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SettingsResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.SettingsResponse{}, err
	}

	settings := attendance.Settings{
		CompanyID:         claims.CompanyID,
		StandardWorkHours: *req.StandardWorkHours,
		HalfDayThreshold:  *req.HalfDayThreshold,
		AllowSelfClockIn:  *req.AllowSelfClockIn,
	}
	if err := settings.Validate(); err != nil {
		return attendance.SettingsResponse{}, err
	}

	saved, err := s.settingsRepo.Upsert(ctx, settings)
	if err != nil {
		return attendance.SettingsResponse{}, err
	}

	slog.Info("attendance settings updated",
		"company_id", claims.CompanyID,
		"standard_work_hours", saved.StandardWorkHours.String(),
		"half_day_threshold", saved.HalfDayThreshold.String(),
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance_settings", "")

	return toSettingsResponse(saved), nil
}

// Preview implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Preview(ctx context.Context, req attendance.PreviewRequest) (attendance.PreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PreviewResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.PreviewResponse{}, err
	}

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.PreviewResponse{}, err
	}

	var override *attendance.Status
	if req.StatusOverride != nil {
		override = attendance.StatusPtr(attendance.Status(*req.StatusOverride))
	}

	checkIn, checkOut := req.Times()
	c := attendance.Resolve(checkIn, checkOut, override, settings)
	return attendance.PreviewResponse{Hours: c.Hours, Status: c.Status, Determined: c.Determined()}, nil
}

// ========== RECORDS ==========

// Mark implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Mark(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !emp.IsActive() {
		return attendance.AttendanceResponse{}, employee.ErrEmployeeInactive
	}

	existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, req.ParsedDate(), claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if existing != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceAlreadyExists
	}

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	checkIn, checkOut := req.Times()
	record := attendance.Attendance{
		CompanyID:  claims.CompanyID,
		EmployeeID: emp.ID,
		Date:       req.ParsedDate(),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Notes:      req.Notes,
		EditedBy:   optional(claims.UserID),
	}
	if req.Status != nil {
		record.Status = attendance.StatusPtr(attendance.Status(*req.Status))
		record.StatusOverridden = true
	}
	record.Reclassify(settings)

	created, err := s.attendanceRepo.Create(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance", created.ID)
	return toAttendanceResponse(created), nil
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !settings.AllowSelfClockIn {
		return attendance.AttendanceResponse{}, attendance.ErrSelfClockInDisabled
	}

	now := s.now().UTC()
	today := s.today()

	existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, today, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var saved attendance.Attendance
	if existing != nil {
		if existing.CheckIn != nil {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
		}
		// a record HR created without timestamps, e.g. a status-only mark
		existing.CheckIn = &now
		if req.Notes != "" {
			existing.Notes = req.Notes
		}
		existing.Reclassify(settings)
		saved, err = s.attendanceRepo.Update(ctx, *existing, nil)
	} else {
		saved, err = s.attendanceRepo.Create(ctx, attendance.Attendance{
			CompanyID:  claims.CompanyID,
			EmployeeID: employeeID,
			Date:       today,
			CheckIn:    &now,
			Notes:      req.Notes,
		})
	}
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("employee clocked in", "employee_id", employeeID, "company_id", claims.CompanyID)
	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance", saved.ID)
	return toAttendanceResponse(saved), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !settings.AllowSelfClockIn {
		return attendance.AttendanceResponse{}, attendance.ErrSelfClockInDisabled
	}

	now := s.now().UTC()

	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, s.today(), claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if record == nil || record.CheckIn == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	}
	if record.CheckOut != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}
	if !now.After(*record.CheckIn) {
		return attendance.AttendanceResponse{}, attendance.ErrCheckOutNotAfterIn
	}

	record.CheckOut = &now
	if req.Notes != "" {
		record.Notes = req.Notes
	}
	record.Reclassify(settings)

	saved, err := s.attendanceRepo.Update(ctx, *record, nil)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("employee clocked out",
		"employee_id", employeeID,
		"company_id", claims.CompanyID,
		"work_hours", decimalString(saved.WorkHours),
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance", saved.ID)
	return toAttendanceResponse(saved), nil
}

// Update implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Update(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.attendanceRepo.GetByID(ctx, req.ID, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	checkIn, checkOut := req.Times()
	if checkIn != nil {
		record.CheckIn = checkIn
	}
	if checkOut != nil {
		record.CheckOut = checkOut
	}
	if record.CheckIn != nil && record.CheckOut != nil && !record.CheckOut.After(*record.CheckIn) {
		return attendance.AttendanceResponse{}, attendance.ErrCheckOutNotAfterIn
	}

	if req.Status != nil {
		record.Status = attendance.StatusPtr(attendance.Status(*req.Status))
		record.StatusOverridden = true
	}
	if req.Status == nil && (checkIn != nil || checkOut != nil) {
		record.StatusOverridden = false
	}
	if req.ClearStatusOverride {
		record.StatusOverridden = false
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	record.EditReason = &req.EditReason
	record.EditedBy = optional(claims.UserID)

	settings, err := s.loadSettings(ctx, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	record.Reclassify(settings)

	saved, err := s.attendanceRepo.Update(ctx, record, req.Version)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance amended",
		"attendance_id", saved.ID,
		"edited_by", claims.UserID,
		"version", saved.Version,
	)
	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "attendance", saved.ID)
	return toAttendanceResponse(saved), nil
}

// Get implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Get(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.attendanceRepo.GetByID(ctx, id, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toAttendanceResponse(record), nil
}

// List implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) List(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return s.list(ctx, filter, claims.CompanyID)
}

// ListMine implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListMine(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	filter.EmployeeID = &employeeID

	return s.list(ctx, filter, claims.CompanyID)
}

func (s *AttendanceServiceImpl) list(ctx context.Context, filter attendance.AttendanceFilter, companyID string) (attendance.ListAttendanceResponse, error) {
	records, total, err := s.attendanceRepo.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, toAttendanceResponse(r))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// ========== CALENDAR ==========

// MonthlySummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MonthlySummary(ctx context.Context, req attendance.MonthlySummaryRequest) (attendance.MonthlySummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	employeeID := req.EmployeeID
	if employeeID == "" {
		if employeeID, err = claims.RequireEmployee(); err != nil {
			return attendance.MonthlySummaryResponse{}, err
		}
	}
	if employeeID != claims.EmployeeID && !claims.Role.IsHR() {
		return attendance.MonthlySummaryResponse{}, attendance.ErrUnauthorized
	}

	if _, err := s.employeeRepo.GetByID(ctx, employeeID, claims.CompanyID); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	month := time.Month(req.Month)
	first, last := attendance.MonthBounds(req.Year, month)

	var (
		records  []attendance.Attendance
		holidays []attendance.Holiday
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.ListByEmployeeAndRange(gctx, employeeID, first, last, claims.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		holidays, err = s.holidayRepo.ListByRange(gctx, claims.CompanyID, first, last)
		return err
	})
	if err := g.Wait(); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	summary := attendance.SummarizeMonth(req.Year, month, s.now().UTC(), records, holidays)
	return toMonthlySummaryResponse(employeeID, summary), nil
}

// ========== HOLIDAYS ==========

// ListHolidays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListHolidays(ctx context.Context, year int) ([]attendance.HolidayResponse, error) {
	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if year == 0 {
		year = s.now().UTC().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	holidays, err := s.holidayRepo.ListByRange(ctx, claims.CompanyID, from, to)
	if err != nil {
		return nil, err
	}

	responses := make([]attendance.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		responses = append(responses, toHolidayResponse(h))
	}
	return responses, nil
}

// CreateHoliday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateHoliday(ctx context.Context, req attendance.CreateHolidayRequest) (attendance.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.HolidayResponse{}, err
	}

	claims, err := user.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.HolidayResponse{}, err
	}

	created, err := s.holidayRepo.Create(ctx, attendance.Holiday{
		CompanyID: claims.CompanyID,
		Date:      req.ParsedDate(),
		Name:      req.Name,
	})
	if err != nil {
		return attendance.HolidayResponse{}, err
	}

	s.hub.Invalidate(claims.CompanyID, sse.EventAttendanceChanged, "holiday", created.ID)
	return toHolidayResponse(created), nil
}
