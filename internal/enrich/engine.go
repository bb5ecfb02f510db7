// Package enrich attaches source-code repository links to stored records by
// searching the web for each paper title.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/renyezhang/toppaper/internal/github"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/rs/zerolog"
)

// Searcher returns candidate links for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
	// Reset discards session state (cookies, browser profile).
	Reset(ctx context.Context) error
	Close() error
}

// Verifier checks that a repository link points at something that exists.
type Verifier interface {
	RepoExists(ctx context.Context, link string) (bool, error)
}

// Pacing controls the delay between lookups and how often the searcher
// session is reset.
type Pacing struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	ResetEvery int // 0 never resets
}

// ErrRecordNotFound is returned by Refresh when no record has the title.
var ErrRecordNotFound = errors.New("record not found")

// DefaultHosts are the code hosts accepted when none are configured.
var DefaultHosts = []string{"github.com", "gitlab.com"}

// Stats counts what a run did.
type Stats struct {
	Total     int `json:"total"`
	Skipped   int `json:"skipped"` // already carrying a marker
	Untitled  int `json:"untitled"`
	Processed int `json:"processed"`
	Found     int `json:"found"`
	Missed    int `json:"missed"`
	Failed    int `json:"failed"`
	Resets    int `json:"resets"`
}

// Engine runs enrichment over a store file.
type Engine struct {
	Searcher Searcher
	Pacing   Pacing
	Hosts    []string
	Verifier Verifier // optional
	Logger   zerolog.Logger

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine with the default hosts.
func NewEngine(s Searcher, pacing Pacing, logger zerolog.Logger) *Engine {
	return &Engine{
		Searcher: s,
		Pacing:   pacing,
		Hosts:    DefaultHosts,
		Logger:   logger,
	}
}

// Run looks up every record in the store at path that has never been
// searched. Each result is written through to the store before the next
// lookup, so an interrupted run loses nothing. Records that already carry a
// marker, including an empty one, are never searched again.
func (e *Engine) Run(ctx context.Context, path string) (*Stats, error) {
	e.init()

	recs, err := storage.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	stats := &Stats{Total: len(recs)}
	var pending []int
	for i, rec := range recs {
		switch {
		case rec.HasCode():
			stats.Skipped++
		case strings.TrimSpace(rec.Title) == "":
			stats.Untitled++
		default:
			pending = append(pending, i)
		}
	}

	e.Logger.Info().
		Int("total", stats.Total).
		Int("pending", len(pending)).
		Int("skipped", stats.Skipped).
		Msg("starting enrichment")

	for n, i := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if n > 0 {
			if err := e.sleep(ctx, e.delay()); err != nil {
				return stats, err
			}
			if e.Pacing.ResetEvery > 0 && n%e.Pacing.ResetEvery == 0 {
				stats.Resets++
				if err := e.Searcher.Reset(ctx); err != nil {
					e.Logger.Warn().Err(err).Msg("searcher reset failed, continuing")
				}
			}
		}

		title := recs[i].Title
		link, err := e.lookup(ctx, title)
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err != nil {
			stats.Failed++
			e.Logger.Warn().Err(err).Str("title", title).Msg("lookup failed, will retry on a later run")
			continue
		}

		recs[i].SetCode(link)
		if err := storage.WriteAll(path, recs); err != nil {
			return stats, fmt.Errorf("writing store: %w", err)
		}

		stats.Processed++
		if link != "" {
			stats.Found++
		} else {
			stats.Missed++
		}
		e.Logger.Info().
			Int("n", n+1).
			Int("of", len(pending)).
			Str("title", title).
			Str("code", link).
			Msg("looked up")
	}

	return stats, nil
}

// Refresh searches again for the record whose title matches title,
// replacing whatever marker it carries, and writes the store. It returns the
// updated record.
func (e *Engine) Refresh(ctx context.Context, path, title string) (*record.Record, error) {
	e.init()

	recs, err := storage.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	i, ok := storage.FindByTitle(recs, title)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, title)
	}

	link, err := e.lookup(ctx, recs[i].Title)
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", recs[i].Title, err)
	}
	recs[i].SetCode(link)
	if err := storage.WriteAll(path, recs); err != nil {
		return nil, fmt.Errorf("writing store: %w", err)
	}

	e.Logger.Info().Str("title", recs[i].Title).Str("code", link).Msg("refreshed")
	return &recs[i], nil
}

func (e *Engine) init() {
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.sleep == nil {
		e.sleep = sleep
	}
	if len(e.Hosts) == 0 {
		e.Hosts = DefaultHosts
	}
}

// lookup searches for title and returns the first acceptable code link, or ""
// when there is none.
func (e *Engine) lookup(ctx context.Context, title string) (string, error) {
	links, err := e.Searcher.Search(ctx, title)
	if err != nil {
		return "", err
	}

	for _, link := range links {
		host, ok := MatchHost(link, e.Hosts)
		if !ok {
			continue
		}
		if !isGitHub(host) {
			return link, nil
		}

		canonical, err := github.NormalizeGitHubURL(link)
		if err != nil {
			e.Logger.Debug().Str("link", link).Msg("not a repository link")
			continue
		}
		if e.Verifier != nil {
			exists, err := e.Verifier.RepoExists(ctx, canonical)
			if err != nil {
				return "", fmt.Errorf("verifying %s: %w", canonical, err)
			}
			if !exists {
				e.Logger.Debug().Str("link", canonical).Msg("repository does not exist")
				continue
			}
		}
		return canonical, nil
	}
	return "", nil
}

// MatchHost reports whether link is hosted on one of hosts or a subdomain of
// one, and returns the matched configured host.
func MatchHost(link string, hosts []string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	h := strings.ToLower(u.Hostname())
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		if h == host || strings.HasSuffix(h, "."+host) {
			return host, true
		}
	}
	return "", false
}

func isGitHub(host string) bool {
	return host == "github.com"
}

func (e *Engine) delay() time.Duration {
	lo, hi := e.Pacing.MinDelay, e.Pacing.MaxDelay
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(e.rng.Int63n(int64(hi-lo)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Summary renders stats for humans.
func (s Stats) Summary() string {
	return fmt.Sprintf("%d looked up (%d found, %d without code), %d failed, %d already searched",
		s.Processed, s.Found, s.Missed, s.Failed, s.Skipped)
}
