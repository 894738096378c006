// Package datespec parses the compact DD-MM-YY decision dates used by the
// dataset into absolute instants.
//
// Every instant is built as 20{YY}-{MM}-{DD}T{clock}-05:00. The offset is
// fixed: no daylight saving, no per-record zone.
package datespec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultClock is used when a record carries no release time.
const DefaultClock = "19:00:00"

// Zone is the fixed -05:00 offset every decision instant is expressed in.
var Zone = time.FixedZone("UTC-05:00", -5*60*60)

var (
	// ErrMalformedDate is returned when a date is not three numeric
	// DD-MM-YY tokens or a clock is not HH:MM[:SS].
	ErrMalformedDate = errors.New("malformed date")
	// ErrInvalidInstant is returned when the tokens are numeric but do not
	// name a real calendar instant (e.g. 31-02-25 or 25:00).
	ErrInvalidInstant = errors.New("invalid instant")
)

// Parse turns a DD-MM-YY date and an optional HH:MM[:SS] clock into an
// instant in Zone. An empty clock means DefaultClock.
func Parse(date, clock string) (time.Time, error) {
	day, month, year, err := splitDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		clock = DefaultClock
	}
	hour, minute, second, err := splitClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, Zone)
	// time.Date normalizes overflow (32-01 becomes 01-02); reject instead.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidInstant, date, clock)
	}
	return t, nil
}

// Day parses only the calendar part of a DD-MM-YY date, at midnight in Zone.
func Day(date string) (time.Time, error) {
	return Parse(date, "00:00:00")
}

// Format renders t as DD-MM-YY in Zone.
func Format(t time.Time) string {
	return t.In(Zone).Format("02-01-06")
}

// NormalizeClock returns the clock in HH:MM:SS form, or DefaultClock when
// empty. Malformed values are returned unchanged so Parse can report them.
func NormalizeClock(clock string) string {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return DefaultClock
	}
	h, m, s, err := splitClock(clock)
	if err != nil {
		return clock
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func splitDate(date string) (day, month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(date), "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedDate, date)
	}
	nums, err := atoiAll(parts)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedDate, date)
	}
	if nums[2] > 99 {
		return 0, 0, 0, fmt.Errorf("%w: year %q outside 2000-2099", ErrMalformedDate, parts[2])
	}
	return nums[0], nums[1], 2000 + nums[2], nil
}

func splitClock(clock string) (hour, minute, second int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: clock %q", ErrMalformedDate, clock)
	}
	nums, err := atoiAll(parts)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: clock %q", ErrMalformedDate, clock)
	}
	if len(nums) == 3 {
		second = nums[2]
	}
	return nums[0], nums[1], second, nil
}

func atoiAll(parts []string) ([]int, error) {
	out := make([]int, len(parts))
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, "+- ") {
			return nil, errors.New("not a number")
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
