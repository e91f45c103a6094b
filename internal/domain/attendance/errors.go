package attendance

import "errors"

// Attendance domain errors
var (
	// Self-service errors
	ErrSelfClockInDisabled = errors.New("self clock-in is disabled for this company")
	ErrAlreadyCheckedIn    = errors.New("you have already checked in today")
	ErrNotCheckedIn        = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut   = errors.New("you have already checked out")
	ErrCheckOutNotAfterIn  = errors.New("check_out must be after check_in")

	// General errors
	ErrAttendanceNotFound      = errors.New("attendance record not found")
	ErrAttendanceAlreadyExists = errors.New("attendance record already exists for this employee and date")
	ErrVersionConflict         = errors.New("attendance record was modified by someone else, reload and try again")
	ErrUnauthorized            = errors.New("unauthorized to access this attendance record")

	// Settings & holidays
	ErrSettingsNotFound = errors.New("attendance settings not found")
	ErrInvalidSettings  = errors.New("half_day_threshold must be greater than 0 and at most standard_work_hours, which must be at most 24")
	ErrHolidayExists    = errors.New("a holiday already exists on this date")
)
