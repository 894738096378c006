package seo

import (
	"net/url"
	"strings"

	"collegedecision/internal/model"
)

// SiteName is the application title used in page metadata.
const SiteName = "USA University Countdown"

const homeDescription = "Real-time countdowns to early and regular admission decision dates at top US universities."

// Meta is the head metadata of one page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Image       string
	ImageWidth  int
	ImageHeight int
}

// HomeMeta describes the selection page.
func HomeMeta(baseURL string) Meta {
	base := strings.TrimRight(baseURL, "/")
	return Meta{
		Title:       SiteName + " | Real-time College Decision Date Tracker",
		Description: homeDescription,
		Canonical:   base + "/",
		Image:       base + "/api/og?domain=",
		ImageWidth:  1200,
		ImageHeight: 630,
	}
}

// PageMeta describes the countdown page of u.
func PageMeta(baseURL string, u model.University) Meta {
	base := strings.TrimRight(baseURL, "/")
	return Meta{
		Title:       u.Name + " Decision Countdown | " + SiteName,
		Description: "Live countdown to " + u.Name + " admission decision release.",
		Canonical:   base + "/" + u.Domain,
		Image:       base + "/api/og?" + url.Values{"domain": {u.Domain}}.Encode(),
		ImageWidth:  1200,
		ImageHeight: 630,
	}
}
