// Package github normalizes GitHub repository links and checks them against
// the GitHub API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// Client is a GitHub API client for repository lookups.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// RepoMetadata contains metadata fetched from the GitHub API.
type RepoMetadata struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Archived    bool   `json:"archived"`
	Stars       int    `json:"stargazers_count"`
}

// Errors.
var (
	ErrInvalidURL   = errors.New("invalid GitHub URL format")
	ErrRepoNotFound = errors.New("repository not found (404)")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNetworkError = errors.New("network error connecting to GitHub")
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken authenticates requests, raising the API rate limit.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new GitHub API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  "toppaper-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	// Matches github.com/owner/repo with optional scheme, www, .git suffix and
	// any trailing path, query or fragment (tree/main, #readme, ...).
	fullURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?github\.com/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?(?:[/?#].*)?$`)
	// Matches: owner/repo
	shorthandPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)
)

// reservedOwners are first path segments that are GitHub pages, not accounts.
var reservedOwners = map[string]bool{
	"about": true, "apps": true, "collections": true, "enterprise": true,
	"explore": true, "features": true, "login": true, "marketplace": true,
	"orgs": true, "pricing": true, "search": true, "settings": true,
	"site": true, "sponsors": true, "topics": true, "trending": true,
}

// ParseGitHubURL parses a GitHub URL or owner/repo shorthand and returns (owner, repo).
// Supported formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - https://github.com/owner/repo/tree/main/src
//   - github.com/owner/repo
//   - owner/repo
func ParseGitHubURL(input string) (owner, repo string, err error) {
	input = strings.TrimSpace(input)

	if m := fullURLPattern.FindStringSubmatch(input); m != nil {
		owner, repo = m[1], m[2]
	} else if m := shorthandPattern.FindStringSubmatch(input); m != nil {
		owner, repo = m[1], strings.TrimSuffix(m[2], ".git")
	} else {
		return "", "", ErrInvalidURL
	}

	if reservedOwners[strings.ToLower(owner)] || repo == "" || repo == "." || repo == ".." {
		return "", "", ErrInvalidURL
	}
	return owner, repo, nil
}

// NormalizeGitHubURL normalizes a GitHub URL input to the canonical https form.
func NormalizeGitHubURL(input string) (string, error) {
	owner, repo, err := ParseGitHubURL(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo), nil
}

// FetchRepoMetadata fetches repository metadata from the GitHub API.
func (c *Client) FetchRepoMetadata(ctx context.Context, urlOrShorthand string) (*RepoMetadata, error) {
	owner, repo, err := ParseGitHubURL(urlOrShorthand)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusNotFound:
		return nil, ErrRepoNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, ErrRateLimited
		}
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var meta RepoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}

	return &meta, nil
}

// RepoExists reports whether the repository behind a link exists. A
// malformed link or a 404 is a definite no; other failures are returned so
// callers can tell "gone" from "could not check".
func (c *Client) RepoExists(ctx context.Context, link string) (bool, error) {
	_, err := c.FetchRepoMetadata(ctx, link)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRepoNotFound), errors.Is(err, ErrInvalidURL):
		return false, nil
	default:
		return false, err
	}
}
