package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"collegedecision/internal/datespec"
	"collegedecision/internal/decision"
	"collegedecision/internal/model"
)

// Custom properties carried on exported events so a calendar can be read
// back into university records.
const (
	PropDomain ical.ComponentProperty = "X-CD-DOMAIN"
	PropKind   ical.ComponentProperty = "X-CD-KIND"
	PropName   ical.ComponentProperty = "X-CD-NAME"
)

// Event kinds.
const (
	KindEarly     = "early"
	KindRegular   = "regular"
	KindCountdown = "countdown"
)

const productID = "-//collegedecision//Decision Countdown//EN"

// ExportOptions controls calendar generation.
type ExportOptions struct {
	// BaseURL is the public site root used for event URLs and UIDs.
	BaseURL string
	// Name is the calendar display name.
	Name string
	// ReminderDays adds a daily countdown series ending on the regular
	// decision day. Zero disables reminders.
	ReminderDays int
	// Now is stamped on every event. Zero means time.Now.
	Now time.Time
}

// Export renders one VEVENT per decision date of every university. Dates
// that do not parse are skipped.
func Export(list []model.University, opts ExportOptions) ([]byte, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	host := hostOf(opts.BaseURL)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, u := range list {
		t := decision.TargetsOf(u)
		if t.HasEarly && t.EarlyErr == nil {
			addDecisionEvent(cal, u, KindEarly, t.Early, host, opts)
		}
		if t.RegularErr != nil {
			continue
		}
		addDecisionEvent(cal, u, KindRegular, t.Regular, host, opts)

		if opts.ReminderDays > 0 {
			if err := addCountdownEvent(cal, u, t.Regular, host, opts); err != nil {
				return nil, err
			}
		}
	}

	return []byte(cal.Serialize()), nil
}

func addDecisionEvent(cal *ical.Calendar, u model.University, kind string, at time.Time, host string, opts ExportOptions) {
	ev := cal.AddEvent(eventUID(u, kind, host))
	ev.SetDtStampTime(opts.Now)
	ev.SetStartAt(at)
	ev.SetEndAt(at.Add(time.Hour))
	ev.SetSummary(EventTitle(u, kind))
	ev.SetDescription(eventDescription(u))
	if opts.BaseURL != "" {
		ev.SetProperty(ical.ComponentPropertyUrl, pageURL(opts.BaseURL, u.Domain))
	}
	ev.SetProperty(PropDomain, u.Domain)
	ev.SetProperty(PropKind, kind)
	ev.SetProperty(PropName, u.Name)
}

func addCountdownEvent(cal *ical.Calendar, u model.University, target time.Time, host string, opts ExportOptions) error {
	rule, err := Reminders(target, opts.ReminderDays)
	if err != nil {
		return fmt.Errorf("ics: reminders for %s: %w", u.Domain, err)
	}
	start := rule.OrigOptions.Dtstart

	ev := cal.AddEvent(eventUID(u, KindCountdown, host))
	ev.SetDtStampTime(opts.Now)
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(15 * time.Minute))
	ev.SetSummary(u.Name + " decision countdown")
	ev.SetDescription(eventDescription(u))
	ev.SetProperty(ical.ComponentPropertyRrule, rule.OrigOptions.RRuleString())
	ev.SetProperty(PropDomain, u.Domain)
	ev.SetProperty(PropKind, KindCountdown)
	ev.SetProperty(PropName, u.Name)
	return nil
}

// EventTitle is the calendar title of a decision event.
func EventTitle(u model.University, kind string) string {
	switch kind {
	case KindEarly:
		return u.Name + " Early Decision Results"
	default:
		return u.Name + " Regular Decision Results"
	}
}

func eventDescription(u model.University) string {
	d := "Decision results for " + u.Name
	if u.NotConfirmedDate {
		d += " (date not confirmed)"
	}
	return d
}

func eventUID(u model.University, kind, host string) string {
	id := u.ID
	if id == "" {
		id = u.Domain
	}
	if host == "" {
		host = "collegedecision"
	}
	return fmt.Sprintf("%s-%s@%s", id, kind, host)
}

func pageURL(base, domain string) string {
	return strings.TrimRight(base, "/") + "/" + domain
}

func hostOf(base string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

// clockOf renders t's wall clock in the decision zone.
func clockOf(t time.Time) string {
	return t.In(datespec.Zone).Format("15:04:05")
}
