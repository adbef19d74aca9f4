// Package browser adapts headless Chrome to the renderer contract used
// by the scrape controller. One Browser owns the shared allocator; each
// attempt leases a fresh tab session and discards it afterwards.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/scrape"
)

// Desktop user agents rotated across sessions.
var userAgents = []string{
	`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`,
	`Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`,
	`Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36`,
	`Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0`,
}

var uaCursor atomic.Uint64

func nextUserAgent() string {
	n := uaCursor.Add(1)
	return userAgents[int(n-1)%len(userAgents)]
}

// Options configures the headless browser.
type Options struct {
	// Headless disables the visible browser window.
	Headless bool
	// NavTimeout bounds a single page navigation.
	NavTimeout time.Duration
	// RenderWait bounds the wait for the site's content selector after
	// navigation.
	RenderWait time.Duration
}

// Browser owns the Chrome exec allocator shared by all sessions.
type Browser struct {
	opts      Options
	log       *zap.Logger
	allocCtx  context.Context
	allocStop context.CancelFunc
	warm      atomic.Bool
}

// New prepares the allocator. Chrome itself is not started until the
// first session runs; call Warmup to fail fast on a broken install.
func New(opts Options, log *zap.Logger) *Browser {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1366, 900),
	)
	allocCtx, allocStop := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &Browser{
		opts:      opts,
		log:       log,
		allocCtx:  allocCtx,
		allocStop: allocStop,
	}
}

// Warmup launches Chrome once so a missing or broken executable surfaces
// at startup instead of on the first request.
func (b *Browser) Warmup(ctx context.Context) error {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	runCtx, cancelRun := context.WithTimeout(tabCtx, b.opts.NavTimeout)
	defer cancelRun()
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Navigate("about:blank")); err != nil {
		if isLaunchFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrRendererUnavailable, err)
		}
		return fmt.Errorf("browser warmup: %w", err)
	}

	b.warm.Store(true)
	b.log.Info("headless browser ready", zap.Bool("headless", b.opts.Headless))
	return nil
}

// Ready reports whether Warmup has succeeded.
func (b *Browser) Ready() bool {
	return b.warm.Load()
}

// Close tears down the allocator and every Chrome process it spawned.
func (b *Browser) Close() {
	b.allocStop()
}

// NewSession leases a fresh tab. The tab is created lazily: Chrome work
// starts when Render runs.
func (b *Browser) NewSession(ctx context.Context) (scrape.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	return &session{
		browser: b,
		ctx:     tabCtx,
		cancel:  cancel,
		ua:      nextUserAgent(),
	}, nil
}

// isLaunchFailure tells a broken Chrome install apart from ordinary
// navigation failures.
func isLaunchFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"executable file not found",
		"no such file or directory",
		"fork/exec",
		"exec format error",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
