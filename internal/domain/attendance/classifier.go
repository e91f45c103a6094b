package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

var millisPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// Classification is the derived work-hours and status for a timestamp pair.
// Both fields are nil when the pair cannot be classified yet.
type Classification struct {
	Hours  *decimal.Decimal
	Status *Status
}

// Determined reports whether a status could be derived
func (c Classification) Determined() bool {
	return c.Status != nil
}

// Classify derives worked hours and a status from check-in/check-out.
// Missing timestamps or a check-out not strictly after check-in yield an empty Classification.
// Boundaries belong to the upper status: hours == threshold is half_day, hours == standard is present.
func Classify(checkIn, checkOut *time.Time, settings Settings) Classification {
	if checkIn == nil || checkOut == nil || !checkOut.After(*checkIn) {
		return Classification{}
	}

	ms := checkOut.Sub(*checkIn).Milliseconds()
	hours := decimal.NewFromInt(ms).Div(millisPerHour).Round(2)

	var status Status
	switch {
	case hours.LessThan(settings.HalfDayThreshold):
		status = StatusAbsent
	case hours.LessThan(settings.StandardWorkHours):
		status = StatusHalfDay
	default:
		status = StatusPresent
	}

	return Classification{Hours: &hours, Status: &status}
}

// Resolve classifies the pair and then applies an HR override to the status only.
// Hours always come from the timestamps.
func Resolve(checkIn, checkOut *time.Time, override *Status, settings Settings) Classification {
	c := Classify(checkIn, checkOut, settings)
	if override != nil {
		s := *override
		c.Status = &s
	}
	return c
}
