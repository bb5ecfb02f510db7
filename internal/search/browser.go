package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// DefaultPageTimeout bounds one results page load in the browser.
const DefaultPageTimeout = 30 * time.Second

// Browser drives a headless Chrome through the results page. Reset tears the
// browser down and starts a fresh one, which clears its cookies and cache.
type Browser struct {
	endpoint    string
	userAgent   string
	execPath    string
	limit       int
	pageTimeout time.Duration

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	Endpoint    string
	UserAgent   string
	ExecPath    string // Chrome executable; empty uses chromedp's lookup
	Limit       int
	PageTimeout time.Duration
}

// NewBrowser starts a headless browser.
func NewBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	b := &Browser{
		endpoint:    cfg.Endpoint,
		userAgent:   cfg.UserAgent,
		execPath:    cfg.ExecPath,
		limit:       cfg.Limit,
		pageTimeout: cfg.PageTimeout,
	}
	if b.endpoint == "" {
		b.endpoint = DefaultEndpoint
	}
	if b.limit <= 0 {
		b.limit = MaxResults
	}
	if b.pageTimeout <= 0 {
		b.pageTimeout = DefaultPageTimeout
	}

	if err := b.start(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Browser) start(parent context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.DisableGPU)
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run launches the browser process.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("starting browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.ctx = ctx
	b.cancel = cancel
	return nil
}

// Search loads the results page for query and returns the result links.
func (b *Browser) Search(ctx context.Context, query string) ([]string, error) {
	if b.ctx == nil {
		return nil, fmt.Errorf("browser is closed")
	}

	tabCtx, cancel := context.WithTimeout(b.ctx, b.pageTimeout)
	defer cancel()

	// Propagate cancellation of the caller's context into the browser run.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(QueryURL(b.endpoint, query))); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("loading results for %q: %w", query, err)
	}

	// Results are rendered by script after the document loads.
	var content string
	err := chromedp.Run(tabCtx,
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &content),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if tabCtx.Err() != nil {
			return nil, fmt.Errorf("waiting for results for %q: %w", query, ErrNoResults)
		}
		return nil, fmt.Errorf("reading results for %q: %w", query, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}
	return ParseResults(doc, b.limit)
}

// Reset restarts the browser.
func (b *Browser) Reset(ctx context.Context) error {
	b.Close()
	return b.start(ctx)
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.ctx, b.cancel, b.allocCancel = nil, nil, nil
	return nil
}
