package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/sse"
)

// AutoAbsenceNote marks records written by MarkUnmarkedAbsences
const (
	JobMarkUnmarkedAbsences = "mark_unmarked_absences"
	AutoAbsenceNote         = "auto-marked: no attendance recorded"
)

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	holidayRepo    attendance.HolidayRepository
	employeeRepo   employee.EmployeeRepository
	hub            *sse.Hub
	now            func() time.Time
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo attendance.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	hub *sse.Hub,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		holidayRepo:    holidayRepo,
		employeeRepo:   employeeRepo,
		hub:            hub,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(JobMarkUnmarkedAbsences, interval, j.MarkUnmarkedAbsences)
}

// MarkUnmarkedAbsences writes an absent record for every active employee who has
// nothing recorded on the previous day. Weekends and company holidays are skipped.
// Existing records are never touched, so repeated runs are harmless.
func (j *AttendanceJobs) MarkUnmarkedAbsences(ctx context.Context) error {
	now := j.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	companyIDs, err := j.employeeRepo.ListCompanyIDsWithActiveEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to get companies: %w", err)
	}

	var total int64
	for _, companyID := range companyIDs {
		holiday, err := j.holidayRepo.IsHoliday(ctx, companyID, day)
		if err != nil {
			slog.Error("Cron: Failed to check holiday", "company_id", companyID, "error", err)
			continue
		}
		if holiday {
			continue
		}

		employees, err := j.employeeRepo.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			slog.Error("Cron: Failed to get employees", "company_id", companyID, "error", err)
			continue
		}

		absences := make([]attendance.Attendance, 0, len(employees))
		for _, emp := range employees {
			absences = append(absences, attendance.Attendance{
				CompanyID:        companyID,
				EmployeeID:       emp.ID,
				Date:             day,
				Status:           attendance.StatusPtr(attendance.StatusAbsent),
				StatusOverridden: true,
				Notes:            AutoAbsenceNote,
			})
		}
		if len(absences) == 0 {
			continue
		}

		inserted, err := j.attendanceRepo.BulkCreateAbsences(ctx, absences)
		if err != nil {
			slog.Error("Cron: Failed to bulk create absences", "company_id", companyID, "error", err)
			continue
		}
		if inserted > 0 {
			j.hub.Invalidate(companyID, sse.EventAttendanceChanged, "attendance", "")
		}
		total += inserted
	}

	slog.Info("Cron: Marked unmarked absences", "date", day.Format("2006-01-02"), "count", total)
	return nil
}
