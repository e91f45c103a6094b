package attendance

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

type DayKind string

const (
	DayHoliday        DayKind = "holiday"
	DayWeekend        DayKind = "weekend"
	DayPresent        DayKind = "present"
	DayAbsent         DayKind = "absent"
	DayHalfDay        DayKind = "half_day"
	DayOnLeave        DayKind = "on_leave"
	DayUnmarkedAbsent DayKind = "unmarked_absent"
	DayPending        DayKind = "pending"
	DayFuture         DayKind = "future"
)

type DaySummary struct {
	Date time.Time
	Kind DayKind
}

// MonthlySummary aggregates one employee's month. Present and Absent are
// fractional because a half day adds 0.5 to both.
type MonthlySummary struct {
	Year           int
	Month          time.Month
	Present        float64
	Absent         float64
	HalfDays       int
	OnLeave        int
	UnmarkedAbsent int
	Holidays       int
	Weekends       int
	Pending        int
	AttendanceRate int
	Days           []DaySummary
}

// SummarizeMonth walks every day of the month up to and including today, where
// today is the UTC calendar date of the given instant.
// Holidays and weekends are excluded from the counts. A past workday without a
// record counts as absent; today without a record is pending. Days after today
// are reported as future and not counted.
func SummarizeMonth(year int, month time.Month, today time.Time, records []Attendance, holidays []Holiday) MonthlySummary {
	holidaySet := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date.Format(dateLayout)] = struct{}{}
	}

	recordByDate := make(map[string]Attendance, len(records))
	for _, r := range records {
		recordByDate[r.Date.Format(dateLayout)] = r
	}

	today = today.UTC()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	summary := MonthlySummary{Year: year, Month: month}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		kind := classifyDay(day, todayDate, holidaySet, recordByDate)
		summary.Days = append(summary.Days, DaySummary{Date: day, Kind: kind})

		switch kind {
		case DayHoliday:
			summary.Holidays++
		case DayWeekend:
			summary.Weekends++
		case DayPresent:
			summary.Present++
		case DayAbsent:
			summary.Absent++
		case DayHalfDay:
			summary.HalfDays++
			summary.Present += 0.5
			summary.Absent += 0.5
		case DayOnLeave:
			summary.OnLeave++
		case DayUnmarkedAbsent:
			summary.UnmarkedAbsent++
			summary.Absent++
		case DayPending:
			summary.Pending++
		}
	}

	summary.AttendanceRate = AttendanceRate(summary.Present, summary.Absent)
	return summary
}

func classifyDay(day, today time.Time, holidays map[string]struct{}, records map[string]Attendance) DayKind {
	if day.After(today) {
		return DayFuture
	}

	key := day.Format(dateLayout)
	if _, ok := holidays[key]; ok {
		return DayHoliday
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return DayWeekend
	}

	rec, ok := records[key]
	if !ok {
		if day.Before(today) {
			return DayUnmarkedAbsent
		}
		return DayPending
	}

	if rec.Status == nil {
		// open session, not classifiable yet
		return DayPending
	}
	switch *rec.Status {
	case StatusPresent:
		return DayPresent
	case StatusAbsent:
		return DayAbsent
	case StatusHalfDay:
		return DayHalfDay
	case StatusOnLeave:
		return DayOnLeave
	}
	return DayPending
}

// AttendanceRate returns round(100 * present / (present + absent)), with the
// denominator floored at 1.
func AttendanceRate(present, absent float64) int {
	denom := math.Max(1, present+absent)
	return int(math.Round(100 * present / denom))
}

// MonthBounds returns the first and last calendar day of the month
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
