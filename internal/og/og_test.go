package og

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedecision/internal/logo"
	"collegedecision/internal/model"
)

var testList = []model.University{
	{
		ID: "harvard.edu", Name: "Harvard University", Domain: "harvard.edu",
		NotificationRegular: "27-03-25", Time: "19:00:00", FileExists: true,
	},
	{
		ID: "stanford.edu", Name: "Stanford University", Domain: "stanford.edu",
		ShowEarly: true, NotificationEarly: "13-12-24", NotificationRegular: "not-a-date",
		Time: "19:00:00", NotConfirmedDate: true,
		Gradient: &model.Gradient{From: "#8c1515", To: "#ffffff"},
	},
}

type fakeLogos struct {
	color string
	err   error
}

func (f fakeLogos) Fetch(context.Context, model.University) (logo.Result, error) {
	if f.err != nil {
		return logo.Result{}, f.err
	}
	return logo.Result{Body: []byte("img"), ContentType: "image/png"}, nil
}

func (f fakeLogos) DominantColor(context.Context, model.University) string { return f.color }

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mar 27, 2025", FormatDate("27-03-25"))
	assert.Equal(t, "Dec 1, 2024", FormatDate("01-12-24"))
	assert.Equal(t, DateTBA, FormatDate("soon"))
	assert.Equal(t, DateTBA, FormatDate(""))
}

func TestCardKey(t *testing.T) {
	assert.Equal(t, "harvard.edu", CardKey("HTTPS://WWW.Harvard.edu/", testList))
	assert.Equal(t, "harvard.edu", CardKey("harvard.edu", testList))
	assert.Equal(t, UnknownDomain, CardKey("nope.edu", testList))
	assert.Equal(t, "", CardKey("  ", testList))
	assert.Equal(t, "", CardKey("https://", testList))

	card := BuildCard(context.Background(), UnknownDomain, testList, CardOptions{SiteName: "collegedecision.us", Now: time.Now()})
	assert.Equal(t, MsgNotFound, card.Message)
}

func TestBuildCard_Fallbacks(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := BuildCard(context.Background(), "  ", testList, CardOptions{SiteName: "site", Now: now})
	assert.Equal(t, MsgDomainRequired, c.Message)

	c = BuildCard(context.Background(), "nowhere.edu", testList, CardOptions{SiteName: "site", Now: now})
	assert.Equal(t, MsgNotFound, c.Message)

	html, err := c.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), MsgNotFound)
	assert.Contains(t, string(html), `data-ready="true"`)
}

func TestBuildCard_WithoutLogos(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := BuildCard(context.Background(), "https://www.Harvard.edu/", testList, CardOptions{SiteName: "collegedecision.us", Now: now})

	require.Empty(t, c.Message)
	assert.Equal(t, "Harvard University", c.Name)
	assert.Equal(t, "/logos/harvard.edu.jpg", c.LogoSrc)
	assert.Nil(t, c.Early)
	assert.Equal(t, "Mar 27, 2025", c.Regular.Date)
	assert.Equal(t, defaultBackground, c.Background)

	html, err := c.HTML()
	require.NoError(t, err)
	s := string(html)
	assert.Contains(t, s, "Harvard University")
	assert.Contains(t, s, "collegedecision.us")
	assert.Contains(t, s, `src="/logos/harvard.edu.jpg"`)
	assert.NotContains(t, s, "ZgotmplZ")
}

func TestBuildCard_ConfiguredLogoBase(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := BuildCard(context.Background(), "stanford.edu", testList, CardOptions{
		SiteName: "site",
		LogoBase: "https://logos.example.com",
		Now:      now,
	})
	assert.Equal(t, "https://logos.example.com/stanford.edu", c.LogoSrc)

	c = BuildCard(context.Background(), "stanford.edu", testList, CardOptions{SiteName: "site", Now: now})
	assert.Equal(t, logo.DefaultRemoteBase+"/stanford.edu", c.LogoSrc)
}

func TestBuildCard_GradientAndInvalidDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := BuildCard(context.Background(), "stanford.edu", testList, CardOptions{SiteName: "site", Logos: fakeLogos{color: "#123456"}, Now: now})

	require.NotNil(t, c.Early)
	assert.Equal(t, "Dec 13, 2024", c.Early.Date)
	assert.Equal(t, DateTBA, c.Regular.Date)
	assert.True(t, c.NotConfirmed)
	assert.Equal(t, "linear-gradient(135deg, rgba(140, 21, 21, 0.2), rgba(255, 255, 255, 0.2))", c.Background)
	assert.True(t, strings.HasPrefix(c.LogoSrc, "data:image/png;base64,"))

	html, err := c.HTML()
	require.NoError(t, err)
	s := string(html)
	assert.Contains(t, s, "Date not confirmed")
	assert.Contains(t, s, "data:image/png;base64,")
	assert.Contains(t, s, "rgba(140, 21, 21, 0.2)")
	assert.NotContains(t, s, "ZgotmplZ")
}

func TestBuildCard_DominantColourFallback(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := BuildCard(context.Background(), "harvard.edu", testList, CardOptions{SiteName: "site", Logos: fakeLogos{color: "#a51c30", err: errors.New("offline")}, Now: now})

	assert.Equal(t, "/logos/harvard.edu.jpg", c.LogoSrc, "failed fetch keeps the path")
	assert.Equal(t, "#a51c30", c.Accent)
	assert.Contains(t, c.Background, "rgba(165, 28, 48, 0.2)")
}

type countingRenderer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *countingRenderer) Screenshot(_ context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, url)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("\x89PNG" + url), nil
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestGenerator_CardURL(t *testing.T) {
	g := NewGenerator(&countingRenderer{}, "http://127.0.0.1:8080/og/card", "", 0)
	assert.Equal(t, "http://127.0.0.1:8080/og/card?domain=mit.edu", g.CardURL("mit.edu"))

	g = NewGenerator(&countingRenderer{}, "http://x/card?v=1", "", 0)
	assert.Equal(t, "http://x/card?v=1&domain=a+b", g.CardURL("a b"))
}

func TestGenerator_CachesUntilTTL(t *testing.T) {
	dir := t.TempDir()
	r := &countingRenderer{}
	g := NewGenerator(r, "http://local/og/card", dir, time.Hour)

	first, err := g.Image(context.Background(), "MIT.edu")
	require.NoError(t, err)
	second, err := g.Image(context.Background(), "mit.edu")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.count())

	g.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = g.Image(context.Background(), "mit.edu")
	require.NoError(t, err)
	assert.Equal(t, 2, r.count())
}

func TestGenerator_NoCacheDir(t *testing.T) {
	r := &countingRenderer{}
	g := NewGenerator(r, "http://local/og/card", "", time.Hour)
	for i := 0; i < 3; i++ {
		_, err := g.Image(context.Background(), "mit.edu")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.count())
}

func TestGenerator_RenderError(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(&countingRenderer{err: errors.New("no chrome")}, "http://local/og/card", dir, time.Hour)
	_, err := g.Image(context.Background(), "mit.edu")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = NewGenerator(nil, "", "", 0).Image(context.Background(), "mit.edu")
	assert.Error(t, err)
}

func TestGenerator_Prune(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(&countingRenderer{}, "http://local/og/card", dir, time.Hour)

	_, err := g.Image(context.Background(), "mit.edu")
	require.NoError(t, err)
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	n, err := g.Prune()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	g.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = g.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, other)

	n, err = NewGenerator(nil, "", filepath.Join(dir, "missing"), 0).Prune()
	require.NoError(t, err)
	assert.Zero(t, n)
}
