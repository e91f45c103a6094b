package attendance

import (
	"bytes"
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsResponse, error)

	// Preview classifies a timestamp pair against the company's current settings without persisting
	Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error)

	// Mark creates a record on behalf of an employee (HR)
	Mark(ctx context.Context, req MarkAttendanceRequest) (AttendanceResponse, error)

	// ClockIn / ClockOut are employee self-service
	ClockIn(ctx context.Context, req ClockRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, req ClockRequest) (AttendanceResponse, error)

	// Update amends an existing record (HR). Records are never deleted.
	Update(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	Get(ctx context.Context, id string) (AttendanceResponse, error)
	List(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	ListMine(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	MonthlySummary(ctx context.Context, req MonthlySummaryRequest) (MonthlySummaryResponse, error)
	ExportMonth(ctx context.Context, req ExportMonthRequest) (*bytes.Buffer, string, error)

	ListHolidays(ctx context.Context, year int) ([]HolidayResponse, error)
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
}
