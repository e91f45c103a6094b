package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
)

var ValidStatuses = []string{
	string(StatusPresent),
	string(StatusAbsent),
	string(StatusHalfDay),
	string(StatusOnLeave),
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusOnLeave:
		return true
	}
	return false
}

// StatusPtr returns a pointer to s
func StatusPtr(s Status) *Status {
	return &s
}

// Settings holds the company-wide classification thresholds.
// Invariant: 0 < HalfDayThreshold <= StandardWorkHours <= 24.
type Settings struct {
	CompanyID         string
	StandardWorkHours decimal.Decimal
	HalfDayThreshold  decimal.Decimal
	AllowSelfClockIn  bool
	UpdatedAt         time.Time
}

// DefaultSettings is used when a company has not stored its own thresholds yet
func DefaultSettings(companyID string) Settings {
	return Settings{
		CompanyID:         companyID,
		StandardWorkHours: decimal.NewFromInt(8),
		HalfDayThreshold:  decimal.NewFromInt(4),
		AllowSelfClockIn:  true,
	}
}

// Validate checks the threshold invariant
func (s Settings) Validate() error {
	if !s.HalfDayThreshold.IsPositive() ||
		s.HalfDayThreshold.GreaterThan(s.StandardWorkHours) ||
		s.StandardWorkHours.GreaterThan(decimal.NewFromInt(24)) {
		return ErrInvalidSettings
	}
	return nil
}

type Attendance struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	WorkHours  *decimal.Decimal
	Status     *Status
	// StatusOverridden is set when Status was chosen by HR instead of derived from timestamps
	StatusOverridden bool
	Notes            string
	EditReason       *string
	EditedBy         *string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
}

// Reclassify recomputes WorkHours, and Status unless it was overridden
func (a *Attendance) Reclassify(settings Settings) {
	var override *Status
	if a.StatusOverridden {
		override = a.Status
	}
	c := Resolve(a.CheckIn, a.CheckOut, override, settings)
	a.WorkHours = c.Hours
	a.Status = c.Status
}

type Holiday struct {
	ID        string
	CompanyID string
	Date      time.Time
	Name      string
	CreatedAt time.Time
}
