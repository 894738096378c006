// Package countdown breaks the time left until a decision instant into
// days, hours, minutes and seconds.
package countdown

import (
	"fmt"
	"time"
)

// Duration is a non-negative, floor-decomposed remaining time.
type Duration struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Remaining returns the time left until target. ok is false once target is
// not strictly after now; no decomposition is produced in that case.
func Remaining(target, now time.Time) (d Duration, ok bool) {
	delta := target.Sub(now)
	if delta <= 0 {
		return Duration{}, false
	}
	total := int64(delta / time.Second)
	// Sub-second remainders still count as "not passed" but floor to 0s.
	d.Days = int(total / 86400)
	d.Hours = int(total/3600) % 24
	d.Minutes = int(total/60) % 60
	d.Seconds = int(total % 60)
	return d, true
}

// TotalSeconds recomposes the duration.
func (d Duration) TotalSeconds() int64 {
	return int64(d.Days)*86400 + int64(d.Hours)*3600 + int64(d.Minutes)*60 + int64(d.Seconds)
}

// String renders the duration the way the countdown digits show it.
func (d Duration) String() string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", d.Days, d.Hours, d.Minutes, d.Seconds)
}
