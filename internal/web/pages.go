package web

import (
	"html/template"
	"net/http"
	"time"

	"collegedecision/internal/convert"
	"collegedecision/internal/decision"
	"collegedecision/internal/ics"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/logo"
	"collegedecision/internal/model"
	"collegedecision/internal/og"
	"collegedecision/internal/seo"
)

const sitemapCacheTTL = time.Hour

var templateFuncs = template.FuncMap{
	"formatDate": og.FormatDate,
}

// countdownLabel is the text shown in place of the countdown digits.
func countdownLabel(c *decision.Countdown) string {
	switch {
	case c == nil:
		return ""
	case c.Invalid:
		return "Date TBA"
	case c.Remaining == nil:
		return "Decision released"
	default:
		return c.Remaining.String()
	}
}

// cardView is one entry of the selection page.
type cardView struct {
	University model.University
	Status     decision.Status
	Logo       string
	Background template.CSS
}

type indexPage struct {
	Meta         seo.Meta
	Cards        []cardView
	LastSelected string
}

type countdownPage struct {
	Meta       seo.Meta
	Snapshot   decision.Snapshot
	Logo       string
	Background template.CSS
	Links      map[string]*ics.Links
	TickMS     int
}

// EarlyLabel and RegularLabel render the current countdown text.
func (p countdownPage) EarlyLabel() string { return countdownLabel(p.Snapshot.Early) }

func (p countdownPage) RegularLabel() string { return countdownLabel(&p.Snapshot.Regular) }

// background builds the card gradient for u, or "" when u has none.
func background(u model.University, c decision.Classification) template.CSS {
	if u.Gradient == nil {
		return ""
	}
	alpha := convert.GradientAlpha(c.IsPassed, c.IsToday)
	bg, err := convert.LinearGradient(u.Gradient.From, u.Gradient.To, alpha)
	if err != nil {
		return ""
	}
	return template.CSS(bg)
}

func (s *Server) logoPath(u model.University) string {
	return logo.Path(u, s.cfg.LogoRemoteBase)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	st := s.state(r)
	list := s.sorter.Sort(listing.Merge(s.static, st.Custom), now)

	page := indexPage{
		Meta:         seo.HomeMeta(s.cfg.BaseURL),
		Cards:        make([]cardView, 0, len(list)),
		LastSelected: st.LastSelected,
	}
	for _, u := range list {
		c := decision.Classify(u, now)
		page.Cards = append(page.Cards, cardView{
			University: u,
			Status:     c.Status,
			Logo:       s.logoPath(u),
			Background: background(u, c),
		})
	}
	s.render(w, "index", page)
}

func (s *Server) handleCountdownPage(w http.ResponseWriter, r *http.Request) {
	u, err := listing.FindByDomain(s.universities(r), r.PathValue("domain"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	snap := decision.Snap(u, s.now())
	page := countdownPage{
		Meta:       seo.PageMeta(s.cfg.BaseURL, u),
		Snapshot:   snap,
		Logo:       s.logoPath(u),
		Background: background(u, snap.Classification),
		Links:      calendarLinks(snap),
		TickMS:     s.cfg.TickMS,
	}
	s.render(w, "countdown", page)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		appLog.Error("failed to render page", err, "page", name)
	}
}

// calendarLinks returns add-to-calendar links for every parseable date.
func calendarLinks(snap decision.Snapshot) map[string]*ics.Links {
	links := make(map[string]*ics.Links, 2)
	if snap.Early != nil && !snap.Early.Invalid {
		l := ics.CalendarLinks(snap.University, ics.KindEarly, snap.Early.Target)
		links[ics.KindEarly] = &l
	}
	if !snap.Regular.Invalid {
		l := ics.CalendarLinks(snap.University, ics.KindRegular, snap.Regular.Target)
		links[ics.KindRegular] = &l
	}
	return links
}

func (s *Server) handleSitemap(w http.ResponseWriter, _ *http.Request) {
	now := s.now()

	s.sitemapMu.RLock()
	sc := s.sitemapCache
	s.sitemapMu.RUnlock()
	if sc != nil && now.Sub(sc.updatedAt) < sitemapCacheTTL {
		writeXML(w, sc.body)
		return
	}

	body, err := seo.Sitemap(s.cfg.BaseURL, s.static, now)
	if err != nil {
		appLog.Error("failed to render sitemap", err)
		writeError(w, http.StatusInternalServerError, "failed to render sitemap")
		return
	}

	s.sitemapMu.Lock()
	s.sitemapCache = &sitemapCache{body: body, updatedAt: now}
	s.sitemapMu.Unlock()

	writeXML(w, body)
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleRobots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(seo.Robots(s.cfg.BaseURL)))
}

// handleOGCard serves the page the OG renderer captures. It only sees the
// static list; the headless browser carries no visitor cookie.
func (s *Server) handleOGCard(w http.ResponseWriter, r *http.Request) {
	card := og.BuildCard(r.Context(), r.URL.Query().Get("domain"), s.static, og.CardOptions{
		SiteName: siteHost(s.cfg.BaseURL),
		LogoBase: s.cfg.LogoRemoteBase,
		Logos:    s.logos,
		Now:      s.now(),
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := card.Render(w); err != nil {
		appLog.Error("failed to render og card", err)
	}
}

func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	if s.og == nil {
		writeError(w, http.StatusServiceUnavailable, "image rendering disabled")
		return
	}
	// Only the canonical key reaches the renderer and the disk cache.
	png, err := s.og.Image(r.Context(), og.CardKey(r.URL.Query().Get("domain"), s.static))
	if err != nil {
		appLog.Error("og image failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render image")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
