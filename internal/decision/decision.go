// Package decision classifies a university's decision state at a given
// instant and builds the live countdown snapshot shown while a countdown view
// is open.
package decision

import (
	"time"

	"collegedecision/internal/countdown"
	"collegedecision/internal/datespec"
	"collegedecision/internal/model"
)

// Status is the badge state of a university card.
type Status string

const (
	StatusInvalid Status = "invalid"
	StatusToday   Status = "today"
	StatusPassed  Status = "passed"
	StatusPending Status = "pending"
)

// Classification is the pure result of Classify.
type Classification struct {
	IsToday  bool   `json:"isToday"`
	IsPassed bool   `json:"isPassed"`
	Status   Status `json:"status"`

	// RegularErr / EarlyErr carry date parse failures. EarlyErr is only set
	// when the early date participates (ShowEarly).
	RegularErr error `json:"-"`
	EarlyErr   error `json:"-"`
}

// Targets holds the decision instants of a university.
type Targets struct {
	Regular    time.Time
	RegularErr error
	// Early is only meaningful when HasEarly is true.
	Early    time.Time
	EarlyErr error
	HasEarly bool
}

// TargetsOf parses the decision instants of u.
func TargetsOf(u model.University) Targets {
	var t Targets
	t.Regular, t.RegularErr = datespec.Parse(u.NotificationRegular, u.Time)
	if u.ShowEarly {
		t.HasEarly = true
		t.Early, t.EarlyErr = datespec.Parse(u.NotificationEarly, u.Time)
	}
	return t
}

// Classify reports whether u's decision is today and whether it has passed.
//
// Both checks use the fixed -05:00 decision zone: "today" compares the
// DD-MM-YY rendering of now in that zone with the record's dates, so it can
// never disagree with the instant comparison used for "passed".
//
// A university is passed only when the regular instant and, if the early
// date is shown, the early instant are both strictly before now.
func Classify(u model.University, now time.Time) Classification {
	return classify(u, TargetsOf(u), now)
}

func classify(u model.University, t Targets, now time.Time) Classification {
	c := Classification{RegularErr: t.RegularErr, EarlyErr: t.EarlyErr}
	if t.RegularErr != nil {
		c.Status = StatusInvalid
		return c
	}

	today := datespec.Format(now)
	c.IsToday = datespec.Format(t.Regular) == today
	if t.HasEarly && t.EarlyErr == nil && datespec.Format(t.Early) == today {
		c.IsToday = true
	}

	earlyPassed := true
	if t.HasEarly {
		// An unparseable early date cannot hold the record back.
		earlyPassed = t.EarlyErr != nil || now.After(t.Early)
	}
	c.IsPassed = now.After(t.Regular) && earlyPassed

	switch {
	case c.IsToday:
		c.Status = StatusToday
	case c.IsPassed:
		c.Status = StatusPassed
	default:
		c.Status = StatusPending
	}
	return c
}

// Countdown is one date field's live state.
type Countdown struct {
	Date      string              `json:"date"`
	Target    time.Time           `json:"target"`
	Remaining *countdown.Duration `json:"remaining,omitempty"`
	Passed    bool                `json:"passed"`
	Invalid   bool                `json:"invalid"`
}

// Snapshot is everything a countdown view renders for one tick.
type Snapshot struct {
	University     model.University `json:"university"`
	Now            time.Time        `json:"now"`
	Classification Classification   `json:"classification"`
	Early          *Countdown       `json:"early,omitempty"`
	Regular        Countdown        `json:"regular"`
}

// Snap samples now once and computes the classification plus the early
// (when shown) and regular countdowns from it.
func Snap(u model.University, now time.Time) Snapshot {
	t := TargetsOf(u)
	s := Snapshot{
		University:     u,
		Now:            now,
		Classification: classify(u, t, now),
		Regular:        fieldCountdown(u.NotificationRegular, t.Regular, t.RegularErr, now),
	}
	if t.HasEarly {
		early := fieldCountdown(u.NotificationEarly, t.Early, t.EarlyErr, now)
		s.Early = &early
	}
	return s
}

func fieldCountdown(date string, target time.Time, err error, now time.Time) Countdown {
	c := Countdown{Date: date}
	if err != nil {
		c.Invalid = true
		return c
	}
	c.Target = target
	if d, ok := countdown.Remaining(target, now); ok {
		c.Remaining = &d
	} else {
		c.Passed = true
	}
	return c
}
