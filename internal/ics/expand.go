package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "collegedecision/internal/log"
)

const defaultMaxOccurrences = 500

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	UID     string    `json:"uid"`
	Summary string    `json:"summary"`
	Domain  string    `json:"domain,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Expand returns the occurrences of events that start inside [from, to],
// sorted by start. Recurring events are expanded through their RRULE;
// at most maxPerEvent instances are kept per event (zero means a default).
func Expand(events []Event, from, to time.Time, maxPerEvent int) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, errors.New("expand: range end is before range start")
	}
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrences
	}

	out := make([]Occurrence, 0)
	for _, ev := range events {
		if ev.RawRRule == "" {
			if !ev.Start.Before(from) && !ev.Start.After(to) {
				out = append(out, occurrenceOf(ev, ev.Start))
			}
			continue
		}

		r, err := rrule.StrToRRule(ev.RawRRule)
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
			continue
		}
		r.DTStart(ev.Start)

		starts := r.Between(from, to, true)
		if len(starts) > maxPerEvent {
			appLog.Warn("expand: truncated occurrences", "uid", ev.UID, "cap", maxPerEvent)
			starts = starts[:maxPerEvent]
		}
		for _, s := range starts {
			out = append(out, occurrenceOf(ev, s))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func occurrenceOf(ev Event, start time.Time) Occurrence {
	return Occurrence{
		UID:     ev.UID,
		Summary: ev.Summary,
		Domain:  ev.Domain,
		Kind:    ev.Kind,
		Start:   start,
		End:     start.Add(ev.End.Sub(ev.Start)),
	}
}
