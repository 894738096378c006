package ics

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedecision/internal/model"
)

var stamp = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

func sample() []model.University {
	return []model.University{
		{
			ID:                  "mit.edu",
			Name:                "Massachusetts Institute of Technology",
			Domain:              "mit.edu",
			ShowEarly:           true,
			NotificationEarly:   "17-12-24",
			NotificationRegular: "14-03-25",
			Time:                "18:28:00",
		},
		{
			ID:                  "yale.edu",
			Name:                "Yale University",
			Domain:              "yale.edu",
			NotificationRegular: "28-03-25",
			Time:                "17:00:00",
			NotConfirmedDate:    true,
		},
		{Name: "Broken", Domain: "broken.edu", NotificationRegular: "later"},
	}
}

func TestExport_RoundTrip(t *testing.T) {
	body, err := Export(sample(), ExportOptions{BaseURL: "https://collegedecision.us", Name: "Decisions", Now: stamp})
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "X-WR-CALNAME:Decisions")
	assert.Contains(t, text, "UID:mit.edu-early@collegedecision.us")
	assert.Contains(t, text, "DTSTART:20250314T232800Z")
	assert.Contains(t, text, "date not confirmed")
	assert.NotContains(t, text, "broken.edu")

	events, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "mit.edu-early@collegedecision.us", events[0].UID)
	assert.Equal(t, KindEarly, events[0].Kind)
	assert.Equal(t, "Massachusetts Institute of Technology Early Decision Results", events[0].Summary)
	assert.True(t, events[0].Start.Equal(time.Date(2024, 12, 17, 23, 28, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))

	assert.Equal(t, "yale.edu", events[2].Domain)
	assert.Equal(t, "Yale University", events[2].Name)
}

func TestExport_Reminders(t *testing.T) {
	body, err := Export(sample()[1:2], ExportOptions{ReminderDays: 3, Now: stamp})
	require.NoError(t, err)
	assert.Contains(t, string(body), "RRULE:FREQ=DAILY;COUNT=3")

	events, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, events, 2)

	occ, err := Expand(events, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)

	var countdown []time.Time
	for _, o := range occ {
		if o.Kind == KindCountdown {
			countdown = append(countdown, o.Start)
		}
	}
	require.Len(t, countdown, 3)
	assert.True(t, countdown[0].Equal(time.Date(2025, 3, 26, 22, 0, 0, 0, time.UTC)))
	assert.True(t, countdown[2].Equal(time.Date(2025, 3, 28, 22, 0, 0, 0, time.UTC)))

	// The regular event lands on the same instant as the last reminder.
	last := occ[len(occ)-1]
	assert.True(t, last.Start.Equal(countdown[2]))
}

func TestReminders(t *testing.T) {
	target := time.Date(2025, 3, 28, 17, 0, 0, 0, time.FixedZone("", -5*3600))
	r, err := Reminders(target, 5)
	require.NoError(t, err)
	all := r.All()
	require.Len(t, all, 5)
	assert.True(t, all[4].Equal(target))
	assert.True(t, all[0].Equal(target.AddDate(0, 0, -4)))

	r, err = Reminders(target, 1000)
	require.NoError(t, err)
	assert.Len(t, r.All(), MaxReminderDays)

	_, err = Reminders(target, 0)
	assert.Error(t, err)
}

func TestExpand_RangeAndCap(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{UID: "one", Start: start, End: start.Add(time.Hour)},
		{UID: "daily", Start: start, End: start, RawRRule: "FREQ=DAILY;COUNT=10"},
		{UID: "bad", Start: start, RawRRule: "FREQ=SOMETIMES"},
	}

	occ, err := Expand(events, start, start.AddDate(0, 0, 2), 0)
	require.NoError(t, err)
	assert.Len(t, occ, 4)
	assert.Equal(t, time.Hour, occ[0].End.Sub(occ[0].Start))

	occ, err = Expand(events, start, start.AddDate(0, 0, 30), 2)
	require.NoError(t, err)
	assert.Len(t, occ, 3)

	_, err = Expand(events, start, start.Add(-time.Second), 0)
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)

	_, err = Parse([]byte("BEGIN:VTODO\r\nEND:VTODO\r\n"))
	assert.Error(t, err)

	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nSUMMARY:no uid\r\nDTSTART:20250101T000000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	events, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUniversities(t *testing.T) {
	body, err := Export(sample(), ExportOptions{ReminderDays: 2, Now: stamp})
	require.NoError(t, err)
	events, err := Parse(body)
	require.NoError(t, err)

	got := Universities(events)
	require.Len(t, got, 2)

	assert.Equal(t, "mit.edu", got[0].Domain)
	assert.Equal(t, "Massachusetts Institute of Technology", got[0].Name)
	assert.True(t, got[0].ShowEarly)
	assert.Equal(t, "17-12-24", got[0].NotificationEarly)
	assert.Equal(t, "14-03-25", got[0].NotificationRegular)
	assert.Equal(t, "18:28:00", got[0].Time)

	assert.Equal(t, "yale.edu", got[1].Domain)
	assert.False(t, got[1].ShowEarly)
	assert.Equal(t, "17:00:00", got[1].Time)
}

func TestCalendarLinks(t *testing.T) {
	u := sample()[1]
	at := time.Date(2025, 3, 28, 17, 0, 0, 0, time.FixedZone("", -5*3600))
	l := CalendarLinks(u, KindRegular, at)

	g, err := url.Parse(l.Google)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", g.Host)
	assert.Equal(t, "Yale University Regular Decision Results", g.Query().Get("text"))
	assert.Equal(t, "20250328T220000Z/20250328T220000Z", g.Query().Get("dates"))

	o, err := url.Parse(l.Outlook)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-28T22:00:00Z", o.Query().Get("startdt"))
	assert.True(t, strings.HasPrefix(o.Query().Get("body"), "Decision results for Yale University"))

	assert.Equal(t, "/api/universities/yale.edu/calendar.ics", l.ICS)
}
