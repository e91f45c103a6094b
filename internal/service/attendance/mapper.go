package attendance

import (
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// timePtrToString formats a timestamp as RFC3339 in UTC
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func toSettingsResponse(s attendance.Settings) attendance.SettingsResponse {
	resp := attendance.SettingsResponse{
		StandardWorkHours: s.StandardWorkHours,
		HalfDayThreshold:  s.HalfDayThreshold,
		AllowSelfClockIn:  s.AllowSelfClockIn,
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = timePtrToString(&s.UpdatedAt)
	}
	return resp
}

func toAttendanceResponse(a attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		EmployeeCode:     a.EmployeeCode,
		Date:             a.Date.Format(dateLayout),
		CheckIn:          timePtrToString(a.CheckIn),
		CheckOut:         timePtrToString(a.CheckOut),
		WorkHours:        a.WorkHours,
		Status:           a.Status,
		StatusOverridden: a.StatusOverridden,
		Notes:            a.Notes,
		EditReason:       a.EditReason,
		EditedBy:         a.EditedBy,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.EmployeeName != nil {
		resp.EmployeeName = *a.EmployeeName
	}
	return resp
}

func toMonthlySummaryResponse(employeeID string, s attendance.MonthlySummary) attendance.MonthlySummaryResponse {
	days := make([]attendance.DayResponse, 0, len(s.Days))
	for _, d := range s.Days {
		days = append(days, attendance.DayResponse{Date: d.Date.Format(dateLayout), Kind: d.Kind})
	}
	return attendance.MonthlySummaryResponse{
		EmployeeID:     employeeID,
		Year:           s.Year,
		Month:          int(s.Month),
		Present:        s.Present,
		Absent:         s.Absent,
		HalfDays:       s.HalfDays,
		OnLeave:        s.OnLeave,
		UnmarkedAbsent: s.UnmarkedAbsent,
		Holidays:       s.Holidays,
		Weekends:       s.Weekends,
		Pending:        s.Pending,
		AttendanceRate: s.AttendanceRate,
		Days:           days,
	}
}

func toHolidayResponse(h attendance.Holiday) attendance.HolidayResponse {
	return attendance.HolidayResponse{
		ID:   h.ID,
		Date: h.Date.Format(dateLayout),
		Name: h.Name,
	}
}
