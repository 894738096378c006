package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "collegedecision/internal/log"
)

// Event is the normalized form of one VEVENT read from a calendar.
type Event struct {
	UID     string
	Summary string

	Start time.Time
	End   time.Time

	RawRRule string

	// Domain, Kind and Name come from the X-CD-* properties this package
	// writes; they are empty for foreign calendars.
	Domain string
	Kind   string
	Name   string
}

// Parse reads a calendar body. Events without a UID or a DTSTART are
// skipped and logged; the rest are returned in file order.
func Parse(body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics: skipping vevent", "err", perr.Error())
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else {
		out.End = start
	}

	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.RawRRule = propValue(ve, ical.ComponentPropertyRrule)
	out.Domain = propValue(ve, PropDomain)
	out.Kind = propValue(ve, PropKind)
	out.Name = propValue(ve, PropName)
	return out, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}
