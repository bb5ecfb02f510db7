package search

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/renyezhang/toppaper/internal/fetch"
)

// HTML queries the results page over plain HTTP. Cookies persist between
// lookups until Reset.
type HTML struct {
	endpoint  string
	userAgent string
	timeout   time.Duration
	limit     int
	client    *fetch.Client
}

// HTMLOption configures an HTML searcher.
type HTMLOption func(*HTML)

// WithEndpoint overrides the results page URL.
func WithEndpoint(u string) HTMLOption {
	return func(h *HTML) { h.endpoint = u }
}

// WithLimit sets how many links a lookup returns.
func WithLimit(n int) HTMLOption {
	return func(h *HTML) { h.limit = n }
}

// WithRequestTimeout bounds each results page request.
func WithRequestTimeout(d time.Duration) HTMLOption {
	return func(h *HTML) { h.timeout = d }
}

// NewHTML creates an HTTP search channel.
func NewHTML(userAgent string, opts ...HTMLOption) *HTML {
	h := &HTML{
		endpoint:  DefaultEndpoint,
		userAgent: userAgent,
		timeout:   fetch.DefaultTimeout,
		limit:     MaxResults,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.client = h.newClient()
	return h
}

func (h *HTML) newClient() *fetch.Client {
	// cookiejar.New only fails for a non-nil options value.
	jar, _ := cookiejar.New(nil)
	return fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Jar: jar, Timeout: h.timeout}),
		fetch.WithUserAgent(h.userAgent),
		fetch.WithRateLimit(0), // lookups are paced by the caller
	)
}

// Search returns the result links for query.
func (h *HTML) Search(ctx context.Context, query string) ([]string, error) {
	doc, err := h.client.GetDocument(ctx, QueryURL(h.endpoint, query))
	if err != nil {
		return nil, err
	}
	return ParseResults(doc, h.limit)
}

// Reset drops the session by starting over with an empty cookie jar.
func (h *HTML) Reset(context.Context) error {
	h.client = h.newClient()
	return nil
}

// Close is a no-op.
func (h *HTML) Close() error { return nil }
