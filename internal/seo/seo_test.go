package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedecision/internal/model"
)

func TestSitemap(t *testing.T) {
	list := []model.University{
		{Name: "Harvard University", Domain: "harvard.edu"},
		{Name: "MIT", Domain: "mit.edu"},
		{Name: "Dup", Domain: "mit.edu"},
		{Name: "Empty"},
	}
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, time.FixedZone("", -5*3600))

	body, err := Sitemap("https://collegedecision.us/", list, now)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), xml.Header))

	var got urlSet
	require.NoError(t, xml.Unmarshal(body, &got))
	assert.Equal(t, sitemapNS, got.XMLNS)
	require.Len(t, got.URLs, 3)

	assert.Equal(t, "https://collegedecision.us/", got.URLs[0].Loc)
	assert.Equal(t, "1.0", got.URLs[0].Priority)
	assert.Equal(t, "https://collegedecision.us/harvard.edu", got.URLs[1].Loc)
	assert.Equal(t, "0.8", got.URLs[1].Priority)
	assert.Equal(t, "https://collegedecision.us/mit.edu", got.URLs[2].Loc)
	for _, u := range got.URLs {
		assert.Equal(t, "daily", u.ChangeFreq)
		assert.Equal(t, "2025-03-02", u.LastMod)
	}
}

func TestRobots(t *testing.T) {
	r := Robots("https://collegedecision.us/")
	for _, line := range []string{
		"User-agent: *",
		"Disallow: /api/",
		"Disallow: /_next/",
		"Disallow: /static/",
		"User-agent: Googlebot-Image",
		"Allow: /logos/",
		"Allow: /icons/",
		"Sitemap: https://collegedecision.us/sitemap.xml",
	} {
		assert.Contains(t, r, line+"\n")
	}
}

func TestPageMeta(t *testing.T) {
	u := model.University{Name: "Yale University", Domain: "yale.edu"}
	m := PageMeta("https://collegedecision.us", u)
	assert.Equal(t, "Yale University Decision Countdown | "+SiteName, m.Title)
	assert.Equal(t, "https://collegedecision.us/yale.edu", m.Canonical)
	assert.Equal(t, "https://collegedecision.us/api/og?domain=yale.edu", m.Image)
	assert.Equal(t, 1200, m.ImageWidth)

	h := HomeMeta("https://collegedecision.us/")
	assert.Equal(t, "https://collegedecision.us/", h.Canonical)
	assert.Contains(t, h.Title, SiteName)
}
