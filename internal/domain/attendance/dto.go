package attendance

import (
	"time"

	"github.com/cmlabs-hris/hrms-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// SETTINGS DTOs
// ========================================

type UpdateSettingsRequest struct {
	StandardWorkHours *decimal.Decimal `json:"standard_work_hours"`
	HalfDayThreshold  *decimal.Decimal `json:"half_day_threshold"`
	AllowSelfClockIn  *bool            `json:"allow_self_clock_in"`
}

var maxWorkHours = decimal.NewFromInt(24)

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.StandardWorkHours == nil {
		errs.Add("standard_work_hours", "standard_work_hours is required")
	} else if !r.StandardWorkHours.IsPositive() || r.StandardWorkHours.GreaterThan(maxWorkHours) {
		errs.Add("standard_work_hours", "standard_work_hours must be greater than 0 and at most 24")
	}

	if r.HalfDayThreshold == nil {
		errs.Add("half_day_threshold", "half_day_threshold is required")
	} else if !r.HalfDayThreshold.IsPositive() {
		errs.Add("half_day_threshold", "half_day_threshold must be greater than 0")
	} else if r.StandardWorkHours != nil && r.HalfDayThreshold.GreaterThan(*r.StandardWorkHours) {
		errs.Add("half_day_threshold", "half_day_threshold must not exceed standard_work_hours")
	}

	if r.AllowSelfClockIn == nil {
		errs.Add("allow_self_clock_in", "allow_self_clock_in is required")
	}

	return errs.OrNil()
}

type SettingsResponse struct {
	StandardWorkHours decimal.Decimal `json:"standard_work_hours"`
	HalfDayThreshold  decimal.Decimal `json:"half_day_threshold"`
	AllowSelfClockIn  bool            `json:"allow_self_clock_in"`
	UpdatedAt         *string         `json:"updated_at,omitempty"`
}

// ========================================
// CLASSIFICATION PREVIEW
// ========================================

type PreviewRequest struct {
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	StatusOverride *string `json:"status_override"`

	checkIn  *time.Time
	checkOut *time.Time
}

// Validate only rejects malformed values. An incomplete or inverted pair is a
// legitimate "not yet determinable" preview, not an error.
func (r *PreviewRequest) Validate() error {
	var errs validator.ValidationErrors
	r.checkIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.checkOut = parseTimestamp(&errs, "check_out", r.CheckOut)
	validateStatus(&errs, "status_override", r.StatusOverride)
	return errs.OrNil()
}

func (r *PreviewRequest) Times() (*time.Time, *time.Time) {
	return r.checkIn, r.checkOut
}

// PreviewResponse leaves Hours and Status null with Determined false for an incomplete pair
type PreviewResponse struct {
	Hours      *decimal.Decimal `json:"hours"`
	Status     *Status          `json:"status"`
	Determined bool             `json:"determined"`
}

// ========================================
// ATTENDANCE DTOs
// ========================================

type MarkAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	CheckIn    *string `json:"check_in"`
	CheckOut   *string `json:"check_out"`
	Status     *string `json:"status"`
	Notes      string  `json:"notes"`

	date     time.Time
	checkIn  *time.Time
	checkOut *time.Time
}

func (r *MarkAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}

	if validator.IsEmpty(r.Date) {
		errs.Add("date", "date is required")
	} else if d, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}

	r.checkIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.checkOut = parseTimestamp(&errs, "check_out", r.CheckOut)
	if r.checkIn != nil && r.checkOut != nil && !r.checkOut.After(*r.checkIn) {
		errs.Add("check_out", ErrCheckOutNotAfterIn.Error())
	}

	validateStatus(&errs, "status", r.Status)

	if r.Status == nil && (r.checkIn == nil || r.checkOut == nil) {
		errs.Add("status", "status is required when check_in and check_out are not both provided")
	}

	return errs.OrNil()
}

func (r *MarkAttendanceRequest) ParsedDate() time.Time {
	return r.date
}

func (r *MarkAttendanceRequest) Times() (*time.Time, *time.Time) {
	return r.checkIn, r.checkOut
}

type ClockRequest struct {
	Notes string `json:"notes"`
}

type UpdateAttendanceRequest struct {
	ID                  string  `json:"-"`
	CheckIn             *string `json:"check_in"`
	CheckOut            *string `json:"check_out"`
	Status              *string `json:"status"`
	ClearStatusOverride bool    `json:"clear_status_override"`
	Notes               *string `json:"notes"`
	EditReason          string  `json:"edit_reason"`
	Version             *int    `json:"version"`

	checkIn  *time.Time
	checkOut *time.Time
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}

	if validator.IsEmpty(r.EditReason) {
		errs.Add("edit_reason", "edit_reason is required")
	}

	r.checkIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.checkOut = parseTimestamp(&errs, "check_out", r.CheckOut)
	validateStatus(&errs, "status", r.Status)

	if r.Status != nil && r.ClearStatusOverride {
		errs.Add("clear_status_override", "cannot set status and clear the override at the same time")
	}

	if r.Version != nil && *r.Version < 1 {
		errs.Add("version", "version must be a positive number")
	}

	return errs.OrNil()
}

func (r *UpdateAttendanceRequest) Times() (*time.Time, *time.Time) {
	return r.checkIn, r.checkOut
}

type AttendanceResponse struct {
	ID               string           `json:"id"`
	EmployeeID       string           `json:"employee_id"`
	EmployeeName     string           `json:"employee_name,omitempty"`
	EmployeeCode     *string          `json:"employee_code,omitempty"`
	Date             string           `json:"date"`
	CheckIn          *string          `json:"check_in"`
	CheckOut         *string          `json:"check_out"`
	WorkHours        *decimal.Decimal `json:"work_hours"`
	Status           *Status          `json:"status"`
	StatusOverridden bool             `json:"status_overridden"`
	Notes            string           `json:"notes"`
	EditReason       *string          `json:"edit_reason,omitempty"`
	EditedBy         *string          `json:"edited_by,omitempty"`
	Version          int              `json:"version"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

type AttendanceFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_name, check_in, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var attendanceSortFields = []string{"date", "employee_name", "check_in", "status"}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	var start, end time.Time
	if f.StartDate != nil {
		d, ok := validator.IsValidDate(*f.StartDate)
		if !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
		start = d
	}
	if f.EndDate != nil {
		d, ok := validator.IsValidDate(*f.EndDate)
		if !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
		end = d
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	validateStatus(&errs, "status", f.Status)

	if f.SortBy == "" {
		f.SortBy = "date"
	} else if !validator.IsInSlice(f.SortBy, attendanceSortFields) {
		errs.Add("sort_by", "sort_by must be one of: date, employee_name, check_in, status")
	}

	if f.SortOrder == "" {
		f.SortOrder = "desc"
	} else if f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs.Add("sort_order", "sort_order must be either asc or desc")
	}

	return errs.OrNil()
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// ========================================
// MONTHLY SUMMARY
// ========================================

type MonthlySummaryRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (r *MonthlySummaryRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	return errs.OrNil()
}

type DayResponse struct {
	Date string  `json:"date"`
	Kind DayKind `json:"kind"`
}

type MonthlySummaryResponse struct {
	EmployeeID     string        `json:"employee_id"`
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	Present        float64       `json:"present"`
	Absent         float64       `json:"absent"`
	HalfDays       int           `json:"half_days"`
	OnLeave        int           `json:"on_leave"`
	UnmarkedAbsent int           `json:"unmarked_absent"`
	Holidays       int           `json:"holidays"`
	Weekends       int           `json:"weekends"`
	Pending        int           `json:"pending"`
	AttendanceRate int           `json:"attendance_rate"`
	Days           []DayResponse `json:"days"`
}

type ExportMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *ExportMonthRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	return errs.OrNil()
}

// ========================================
// HOLIDAYS
// ========================================

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`

	date time.Time
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors
	if d, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 100 {
		errs.Add("name", "name must not exceed 100 characters")
	}
	return errs.OrNil()
}

func (r *CreateHolidayRequest) ParsedDate() time.Time {
	return r.date
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// ========================================
// HELPERS
// ========================================

func parseTimestamp(errs *validator.ValidationErrors, field string, value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, ok := validator.IsValidDateTime(*value)
	if !ok {
		errs.Add(field, field+" must be an RFC3339 timestamp")
		return nil
	}
	return &t
}

func validateStatus(errs *validator.ValidationErrors, field string, value *string) {
	if value != nil && !Status(*value).IsValid() {
		errs.Add(field, field+" must be one of: present, absent, half_day, on_leave")
	}
}
