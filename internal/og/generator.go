package og

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"collegedecision/internal/fsutil"
	appLog "collegedecision/internal/log"
)

// DefaultCacheTTL is how long a rendered PNG is served from disk.
const DefaultCacheTTL = 6 * time.Hour

// Renderer turns a page URL into a PNG.
type Renderer interface {
	Screenshot(ctx context.Context, url string) ([]byte, error)
}

// Generator renders cards through a Renderer and keeps the PNGs on disk.
// At most one render runs at a time.
type Generator struct {
	renderer Renderer
	cardBase string
	cacheDir string
	ttl      time.Duration
	now      func() time.Time

	mu sync.Mutex
}

// NewGenerator returns a generator that captures cardBase?domain=... pages.
// An empty cacheDir disables the disk cache.
func NewGenerator(renderer Renderer, cardBase, cacheDir string, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Generator{
		renderer: renderer,
		cardBase: cardBase,
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CardURL is the page captured for domain.
func (g *Generator) CardURL(domain string) string {
	sep := "?"
	if strings.Contains(g.cardBase, "?") {
		sep = "&"
	}
	return g.cardBase + sep + url.Values{"domain": {domain}}.Encode()
}

// Image returns the PNG for domain, from cache when fresh.
func (g *Generator) Image(ctx context.Context, domain string) ([]byte, error) {
	if g.renderer == nil {
		return nil, errors.New("og: no renderer configured")
	}
	domain = strings.ToLower(strings.TrimSpace(domain))

	g.mu.Lock()
	defer g.mu.Unlock()

	path := g.cachePath(domain)
	if path != "" {
		if png, ok := g.readFresh(path); ok {
			return png, nil
		}
	}

	start := time.Now()
	png, err := g.renderer.Screenshot(ctx, g.CardURL(domain))
	if err != nil {
		return nil, fmt.Errorf("og: render %q: %w", domain, err)
	}
	appLog.Info("og: rendered card", "domain", domain, "bytes", len(png), "elapsed", time.Since(start).String())

	if path != "" {
		if err := fsutil.WriteFileAtomic(path, png, 0o644); err != nil {
			appLog.Error("og: failed to write cache", err, "path", path)
		}
	}
	return png, nil
}

func (g *Generator) readFresh(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if g.now().Sub(info.ModTime()) >= g.ttl {
		return nil, false
	}
	png, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return png, true
}

func (g *Generator) cachePath(domain string) string {
	if g.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(domain))
	return filepath.Join(g.cacheDir, hex.EncodeToString(sum[:])+".png")
}

// Prune removes cached PNGs older than the TTL and returns how many were
// deleted.
func (g *Generator) Prune() (int, error) {
	if g.cacheDir == "" {
		return 0, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	entries, err := os.ReadDir(g.cacheDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	now := g.now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < g.ttl {
			continue
		}
		if err := os.Remove(filepath.Join(g.cacheDir, e.Name())); err != nil {
			appLog.Warn("og: prune failed", "file", e.Name(), "err", err.Error())
			continue
		}
		removed++
	}
	return removed, nil
}
