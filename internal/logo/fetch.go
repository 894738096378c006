// Package logo resolves and fetches university logos and derives their
// dominant colour.
package logo

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"collegedecision/internal/convert"
	"collegedecision/internal/fsutil"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/model"
)

// DefaultRemoteBase is the third-party logo service used when a university
// has no locally hosted logo.
const DefaultRemoteBase = "https://logo.clearbit.com"

// maxLogoBytes bounds a downloaded logo.
const maxLogoBytes = 2 << 20

// ErrNoLogo is returned when neither a local nor a remote logo is available.
var ErrNoLogo = errors.New("logo not available")

// Path returns the public logo URL for u: the site-local /logos/ path when
// FileExists, otherwise the remote service.
func Path(u model.University, remoteBase string) string {
	if u.FileExists {
		return "/logos/" + u.Domain + ".jpg"
	}
	if remoteBase == "" {
		remoteBase = DefaultRemoteBase
	}
	return remoteBase + "/" + u.Domain
}

// Result is a fetched logo.
type Result struct {
	Body        []byte
	ContentType string
	FromCache   bool
}

// DataURI renders the logo inline for HTML that must not hit the network.
func (r Result) DataURI() string {
	ct := r.ContentType
	if ct == "" {
		ct = http.DetectContentType(r.Body)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(r.Body)
}

type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher loads logos from the local logo directory or from the remote
// service, keeping a disk cache of remote responses (ETag / Last-Modified).
type Fetcher struct {
	client     *http.Client
	localDir   string
	cacheDir   string
	remoteBase string

	mu     sync.RWMutex
	colors map[string]string
}

// NewFetcher creates a fetcher. localDir holds {domain}.jpg files; cacheDir
// holds remote responses.
func NewFetcher(localDir, cacheDir, remoteBase string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/logo-cache"
	}
	if remoteBase == "" {
		remoteBase = DefaultRemoteBase
	}
	return &Fetcher{
		client:     &http.Client{Timeout: 15 * time.Second},
		localDir:   localDir,
		cacheDir:   cacheDir,
		remoteBase: remoteBase,
		colors:     make(map[string]string),
	}
}

// Fetch returns the logo bytes for u.
func (f *Fetcher) Fetch(ctx context.Context, u model.University) (Result, error) {
	if u.FileExists && f.localDir != "" {
		body, err := os.ReadFile(filepath.Join(f.localDir, filepath.Base(u.Domain)+".jpg"))
		if err == nil {
			return Result{Body: body, ContentType: "image/jpeg"}, nil
		}
		appLog.Warn("logo: local file missing, trying remote", "domain", u.Domain, "err", err.Error())
	}
	return f.fetchRemote(ctx, f.remoteBase+"/"+u.Domain)
}

// DominantColor returns the most frequent colour of u's logo, caching the
// answer per domain. Failures yield convert.FallbackColor.
func (f *Fetcher) DominantColor(ctx context.Context, u model.University) string {
	f.mu.RLock()
	c, ok := f.colors[u.Domain]
	f.mu.RUnlock()
	if ok {
		return c
	}

	c = convert.FallbackColor
	if res, err := f.Fetch(ctx, u); err == nil {
		if dc, derr := convert.DecodeDominant(bytes.NewReader(res.Body)); derr == nil {
			c = dc
		} else {
			appLog.Warn("logo: decode failed", "domain", u.Domain, "err", derr.Error())
		}
	} else {
		appLog.Warn("logo: fetch failed", "domain", u.Domain, "err", err.Error())
		// Do not cache network failures.
		return c
	}

	f.mu.Lock()
	f.colors[u.Domain] = c
	f.mu.Unlock()
	return c
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string) (Result, error) {
	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body"))
	cached := Result{Body: cachedBody, ContentType: meta.ContentType, FromCache: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("logo fetch network error, using cached body", err, "url", url)
			return cached, nil
		}
		return Result{}, fmt.Errorf("%w: %v", ErrNoLogo, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
		if err != nil {
			return Result{}, err
		}
		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			ContentType:  resp.Header.Get("Content-Type"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("logo cache save failed", err, "url", url)
		}
		return Result{Body: body, ContentType: newMeta.ContentType}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Result{}, errors.New("received 304 Not Modified but no cached body available")
		}
		return cached, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("logo fetch non-OK, using cached body", errors.New(resp.Status), "url", url)
			return cached, nil
		}
		return Result{}, fmt.Errorf("%w: %s", ErrNoLogo, resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := fsutil.WriteFileAtomic(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
