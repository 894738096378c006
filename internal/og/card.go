// Package og builds the 1200x630 Open Graph card for a university and
// rasterizes it through a headless browser.
package og

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"time"

	"collegedecision/internal/convert"
	"collegedecision/internal/datespec"
	"collegedecision/internal/decision"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/listing"
	"collegedecision/internal/logo"
	"collegedecision/internal/model"
)

// Fallback messages rendered instead of a card.
const (
	MsgDomainRequired = "Domain parameter required"
	MsgNotFound       = "University Not Found"
)

// DateTBA is shown for dates that do not parse.
const DateTBA = "TBA"

// UnknownDomain is the card key shared by every domain that is not listed.
// It can never be a record's domain.
const UnknownDomain = "_unknown"

const defaultBackground = "linear-gradient(135deg, #f8fafc 0%, #e2e8f0 50%, #cbd5e1 100%)"

// Logos supplies logo bytes and accent colours for cards.
type Logos interface {
	Fetch(ctx context.Context, u model.University) (logo.Result, error)
	DominantColor(ctx context.Context, u model.University) string
}

// CardDate is one decision date box.
type CardDate struct {
	Label string
	Date  string
}

// Card is the view model of the card template.
type Card struct {
	// Message replaces the whole card when set.
	Message string

	SiteName     string
	Name         string
	Domain       string
	LogoSrc      string
	Background   string
	Accent       string
	Status       decision.Status
	NotConfirmed bool

	Early   *CardDate
	Regular CardDate
}

// FormatDate renders a DD-MM-YY date as "Jan 2, 2006", or DateTBA.
func FormatDate(date string) string {
	d, err := datespec.Day(date)
	if err != nil {
		return DateTBA
	}
	return d.Format("Jan 2, 2006")
}

// CardKey maps a requested domain onto the card it renders: the listed
// record's domain, "" for the domain-required card, or UnknownDomain.
// Different spellings of one domain share a key.
func CardKey(domain string, list []model.University) string {
	if listing.NormalizeDomain(domain) == "" {
		return ""
	}
	u, err := listing.FindByDomain(list, domain)
	if err != nil {
		return UnknownDomain
	}
	return u.Domain
}

// CardOptions are the site-wide inputs of a card.
type CardOptions struct {
	SiteName string
	// LogoBase is the remote logo service; empty means logo.DefaultRemoteBase.
	LogoBase string
	// Logos may be nil, in which case the logo URL is referenced directly
	// and no accent colour is derived.
	Logos Logos
	Now   time.Time
}

// BuildCard resolves domain against list and fills the card view model.
func BuildCard(ctx context.Context, domain string, list []model.University, opts CardOptions) Card {
	if listing.NormalizeDomain(domain) == "" {
		return Card{Message: MsgDomainRequired}
	}
	u, err := listing.FindByDomain(list, domain)
	if err != nil {
		return Card{Message: MsgNotFound}
	}

	logos := opts.Logos
	c := decision.Classify(u, opts.Now)
	card := Card{
		SiteName:     opts.SiteName,
		Name:         u.Name,
		Domain:       u.Domain,
		LogoSrc:      logo.Path(u, opts.LogoBase),
		Background:   defaultBackground,
		Accent:       "#64748b",
		Status:       c.Status,
		NotConfirmed: u.NotConfirmedDate,
		Regular:      CardDate{Label: "Regular", Date: FormatDate(u.NotificationRegular)},
	}
	if u.ShowEarly {
		card.Early = &CardDate{Label: "Early", Date: FormatDate(u.NotificationEarly)}
	}

	alpha := convert.GradientAlpha(c.IsPassed, c.IsToday)
	if u.Gradient != nil {
		if bg, err := convert.LinearGradient(u.Gradient.From, u.Gradient.To, alpha); err == nil {
			card.Background = bg
			card.Accent = u.Gradient.From
		} else {
			appLog.Warn("og: bad gradient", "domain", u.Domain, "err", err.Error())
		}
	}

	if logos == nil {
		return card
	}
	if res, err := logos.Fetch(ctx, u); err == nil {
		card.LogoSrc = res.DataURI()
	} else {
		appLog.Warn("og: logo unavailable", "domain", u.Domain, "err", err.Error())
	}
	if u.Gradient == nil {
		dom := logos.DominantColor(ctx, u)
		if bg, err := convert.LinearGradient(dom, "#ffffff", alpha); err == nil {
			card.Background = bg
			card.Accent = dom
		}
	}
	return card
}

// BackgroundCSS and AccentCSS mark values built from parsed hex colours as
// safe for style attributes.
func (c Card) BackgroundCSS() template.CSS { return template.CSS(c.Background) }

func (c Card) AccentCSS() template.CSS { return template.CSS(c.Accent) }

// LogoURL allows the inlined data: URI through the template's URL filter.
func (c Card) LogoURL() template.URL { return template.URL(c.LogoSrc) }

var cardTmpl = template.Must(template.New("card").Parse(cardHTML))

// Render writes the card page.
func (c Card) Render(w io.Writer) error {
	return cardTmpl.Execute(w, c)
}

// HTML renders the card page to a byte slice.
func (c Card) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const cardHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Message}}{{.Message}}{{else}}{{.Name}}{{end}}</title>
<style>
html, body { margin: 0; width: 1200px; height: 630px; overflow: hidden; }
body { font-family: Inter, system-ui, sans-serif; }
.fallback { background: #000; color: #fff; font-size: 32px; font-weight: 500;
  width: 100%; height: 100%; display: flex; align-items: center; justify-content: center; }
.card { width: 100%; height: 100%; box-sizing: border-box; padding: 60px; color: #1e293b;
  display: flex; flex-direction: column; align-items: center; justify-content: center; }
.brand { display: flex; align-items: center; gap: 24px; margin-bottom: 40px; }
.brand img { width: 80px; height: 80px; border-radius: 16px; border: 3px solid #fff;
  box-shadow: 0 8px 32px rgba(0, 0, 0, 0.15); object-fit: contain; background: #fff; }
.site { font-size: 28px; font-weight: 900; color: #000; }
.tag { font-size: 14px; font-weight: 600; text-transform: uppercase; letter-spacing: 0.15em; }
.name { font-size: 56px; font-weight: 800; text-align: center; max-width: 900px; margin-bottom: 16px; }
.sub { font-size: 22px; font-weight: 600; color: #475569; margin-bottom: 50px; }
.dates { display: flex; gap: 32px; }
.date { background: #fff; border-radius: 20px; padding: 28px 40px; min-width: 240px;
  display: flex; flex-direction: column; align-items: center; box-shadow: 0 8px 32px rgba(0, 0, 0, 0.08); }
.label { font-size: 14px; font-weight: 700; color: #fff; text-transform: uppercase;
  letter-spacing: 0.1em; padding: 4px 12px; border-radius: 999px; margin-bottom: 12px; }
.value { font-size: 32px; font-weight: 800; }
.note { margin-top: 24px; font-size: 16px; color: #64748b; }
</style>
</head>
<body>
{{- if .Message}}
<div class="fallback" data-ready="true">{{.Message}}</div>
{{- else}}
<div class="card" style="background: {{.BackgroundCSS}}" data-ready="true" data-status="{{.Status}}">
  <div class="brand">
    <img src="{{.LogoURL}}" alt="{{.Name}} logo">
    <div>
      <div class="site">{{.SiteName}}</div>
      <div class="tag" style="color: {{.AccentCSS}}">Decision Tracker</div>
    </div>
  </div>
  <div class="name">{{.Name}}</div>
  <div class="sub">Decision Date Countdown</div>
  <div class="dates">
    {{- with .Early}}
    <div class="date"><span class="label" style="background: #10b981">{{.Label}}</span><span class="value">{{.Date}}</span></div>
    {{- end}}
    <div class="date"><span class="label" style="background: #3b82f6">{{.Regular.Label}}</span><span class="value">{{.Regular.Date}}</span></div>
  </div>
  {{- if .NotConfirmed}}
  <div class="note">Date not confirmed</div>
  {{- end}}
</div>
{{- end}}
</body>
</html>
`
