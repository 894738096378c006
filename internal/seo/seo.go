// Package seo renders sitemap.xml, robots.txt and per-page metadata.
package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"collegedecision/internal/model"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Priorities and change frequency used in the sitemap.
const (
	PriorityHome       = 1.0
	PriorityUniversity = 0.8
	ChangeFreq         = "daily"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap lists the home page and one countdown page per university.
func Sitemap(baseURL string, list []model.University, now time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	lastMod := now.UTC().Format("2006-01-02")

	set := urlSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs, sitemapURL{
		Loc: base + "/", LastMod: lastMod, ChangeFreq: ChangeFreq, Priority: formatPriority(PriorityHome),
	})
	seen := make(map[string]struct{}, len(list))
	for _, u := range list {
		if u.Domain == "" {
			continue
		}
		if _, dup := seen[u.Domain]; dup {
			continue
		}
		seen[u.Domain] = struct{}{}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/" + u.Domain,
			LastMod:    lastMod,
			ChangeFreq: ChangeFreq,
			Priority:   formatPriority(PriorityUniversity),
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func formatPriority(p float64) string {
	return fmt.Sprintf("%.1f", p)
}

// Robots returns robots.txt content pointing crawlers at the sitemap.
func Robots(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /_next/\n")
	b.WriteString("Disallow: /static/\n")
	b.WriteString("\n")
	b.WriteString("User-agent: Googlebot-Image\n")
	b.WriteString("Allow: /logos/\n")
	b.WriteString("Allow: /icons/\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n", base)
	return b.String()
}
