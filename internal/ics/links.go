package ics

import (
	"net/url"
	"time"

	"collegedecision/internal/model"
)

// Links holds add-to-calendar targets for one decision date.
type Links struct {
	Google  string `json:"google"`
	Outlook string `json:"outlook"`
	ICS     string `json:"ics"`
}

// CalendarLinks builds the Google and Outlook deep links for a decision
// instant, plus the site's ICS download path for the university.
func CalendarLinks(u model.University, kind string, at time.Time) Links {
	title := EventTitle(u, kind)
	desc := eventDescription(u)
	utc := at.UTC()
	stamp := utc.Format("20060102T150405Z")

	g := url.Values{}
	g.Set("action", "TEMPLATE")
	g.Set("text", title)
	g.Set("dates", stamp+"/"+stamp)
	g.Set("details", desc)

	o := url.Values{}
	o.Set("subject", title)
	o.Set("startdt", utc.Format(time.RFC3339))
	o.Set("enddt", utc.Format(time.RFC3339))
	o.Set("body", desc)

	return Links{
		Google:  "https://calendar.google.com/calendar/render?" + g.Encode(),
		Outlook: "https://outlook.live.com/calendar/0/deeplink/compose?" + o.Encode(),
		ICS:     "/api/universities/" + u.Domain + "/calendar.ics",
	}
}
