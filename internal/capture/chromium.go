package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the Open Graph card.
// These should match the layout used by the /og/card page.
const (
	DefaultWidth      = 1200
	DefaultHeight     = 630
	DefaultTimeoutSec = 30
)

// ReadySelector is the element the card page exposes once it has rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration

	// ExecPath points at a Chromium binary. Empty means chromedp's lookup.
	ExecPath string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return o
}

// Chromium renders pages to PNG with a headless browser.
type Chromium struct {
	opts Options
}

// NewChromium returns a renderer using opts.
func NewChromium(opts Options) *Chromium {
	return &Chromium{opts: opts.withDefaults()}
}

// Size returns the viewport the renderer captures.
func (c *Chromium) Size() (int, int) {
	return c.opts.Width, c.opts.Height
}

// Screenshot launches a headless Chromium instance via chromedp, navigates
// to url, waits for ReadySelector to become visible and returns a PNG of
// the viewport.
func (c *Chromium) Screenshot(parentCtx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("capture: URL is required")
	}

	allocCtx := parentCtx
	if c.opts.ExecPath != "" {
		opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(c.opts.ExecPath))
		var allocCancel context.CancelFunc
		allocCtx, allocCancel = chromedp.NewExecAllocator(parentCtx, opts...)
		defer allocCancel()
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)),
		chromedp.Navigate(url),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Small extra delay to allow web fonts and images to paint.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}
