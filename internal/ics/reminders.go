package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxReminderDays caps the length of a countdown series.
const MaxReminderDays = 60

// Reminders builds a daily rule whose last occurrence is target itself and
// whose first is days-1 days earlier, at the same wall clock.
func Reminders(target time.Time, days int) (*rrule.RRule, error) {
	if days <= 0 {
		return nil, errors.New("reminder days must be positive")
	}
	if days > MaxReminderDays {
		days = MaxReminderDays
	}
	start := target.AddDate(0, 0, -(days - 1))
	return rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   days,
		Dtstart: start,
	})
}
