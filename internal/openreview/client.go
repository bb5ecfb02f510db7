// Package openreview queries the OpenReview notes API in both of its schema
// versions.
package openreview

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/renyezhang/toppaper/internal/fetch"
)

const (
	// V1BaseURL serves venues before the v2 migration.
	V1BaseURL = "https://api.openreview.net"
	// V2BaseURL serves venues after the migration.
	V2BaseURL = "https://api2.openreview.net"

	// DefaultPageSize is the notes page size (the API maximum).
	DefaultPageSize = 1000

	// DefaultLookupTimeout bounds one full paginated lookup.
	DefaultLookupTimeout = 5 * time.Minute
)

// Version selects the API schema.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// Query identifies the notes of one venue. V1 queries by invitation, V2 by
// content.venueid.
type Query struct {
	Version    Version
	Invitation string
	VenueID    string
}

// QueryFor builds the query for a venue id such as "ICLR.cc/2018/Conference".
func QueryFor(venueID string, v2 bool) Query {
	if v2 {
		return Query{Version: V2, VenueID: venueID}
	}
	return Query{Version: V1, Invitation: venueID + "/-/Blind_Submission"}
}

func (q Query) String() string {
	if q.Version == V2 {
		return "v2 venueid=" + q.VenueID
	}
	return "v1 invitation=" + q.Invitation
}

type notesPage struct {
	Notes []Note `json:"notes"`
	Count int    `json:"count"`
}

// Client fetches notes through the shared rate-limited fetcher.
type Client struct {
	fetch    *fetch.Client
	v1Base   string
	v2Base   string
	pageSize int
	timeout  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURLs overrides both API endpoints (for testing).
func WithBaseURLs(v1, v2 string) ClientOption {
	return func(c *Client) {
		c.v1Base = v1
		c.v2Base = v2
	}
}

// WithPageSize sets the pagination page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLookupTimeout bounds one Notes call.
func WithLookupTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates an OpenReview client.
func NewClient(f *fetch.Client, opts ...ClientOption) *Client {
	c := &Client{
		fetch:    f,
		v1Base:   V1BaseURL,
		v2Base:   V2BaseURL,
		pageSize: DefaultPageSize,
		timeout:  DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notes fetches every note matching the query, following offset pagination.
// The whole lookup shares one deadline; callers treat fetch.IsTimeout errors
// as an empty result.
func (c *Client) Notes(ctx context.Context, q Query) ([]Note, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var all []Note
	for offset := 0; ; {
		page, err := c.page(ctx, q, offset)
		if err != nil {
			return all, err
		}
		all = append(all, page.Notes...)
		offset += len(page.Notes)

		if len(page.Notes) < c.pageSize || (page.Count > 0 && offset >= page.Count) {
			return all, nil
		}
	}
}

func (c *Client) page(ctx context.Context, q Query, offset int) (*notesPage, error) {
	params := url.Values{}
	base := c.v1Base
	switch q.Version {
	case V2:
		base = c.v2Base
		params.Set("content.venueid", q.VenueID)
	case V1:
		params.Set("invitation", q.Invitation)
	default:
		return nil, fmt.Errorf("unsupported API version %d", q.Version)
	}
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))

	var page notesPage
	if err := c.fetch.GetJSON(ctx, base+"/notes?"+params.Encode(), &page); err != nil {
		return nil, fmt.Errorf("fetching notes (%s, offset %d): %w", q, offset, err)
	}
	return &page, nil
}
