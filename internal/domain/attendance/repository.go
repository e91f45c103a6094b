package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Create creates a new attendance record
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves attendance by ID with company isolation
	GetByID(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetByEmployeeAndDate returns nil when the employee has no record on that date
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Attendance, error)

	// Update persists the record and bumps its version. When expectedVersion is set
	// and no longer matches, ErrVersionConflict is returned.
	Update(ctx context.Context, attendance Attendance, expectedVersion *int) (Attendance, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter, companyID string) ([]Attendance, int64, error)

	// ListByEmployeeAndRange returns every record of one employee between from and to inclusive
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]Attendance, error)

	// ListByCompanyAndRange returns every record of the company between from and to inclusive
	ListByCompanyAndRange(ctx context.Context, companyID string, from, to time.Time) ([]Attendance, error)

	// BulkCreateAbsences inserts records, skipping (employee, date) pairs that already exist
	BulkCreateAbsences(ctx context.Context, records []Attendance) (int64, error)
}

type SettingsRepository interface {
	// Get returns ErrSettingsNotFound when the company never saved settings
	Get(ctx context.Context, companyID string) (Settings, error)
	Upsert(ctx context.Context, settings Settings) (Settings, error)
}

type HolidayRepository interface {
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
	ListByRange(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)
	IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error)
}
