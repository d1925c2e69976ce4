// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package canvas is a small client for the Canvas LMS REST API: the
// authenticated user, active courses, course files, and announcements.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deadline-tracker/internal/httputil"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// DefaultAPIURL is used when no API URL is configured.
const DefaultAPIURL = "https://canvas.nus.edu.sg/api/v1"

const (
	defaultPerPage           = 100
	defaultAnnouncementLimit = 50
)

// Client talks to one Canvas instance with a personal access token.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	perPage   int
	retries   int
	http      *http.Client
}

// NewClient returns a client for cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg types.CanvasConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.APIURL
	if base == "" {
		base = DefaultAPIURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		token:     cfg.APIToken,
		userAgent: cfg.UserAgent,
		perPage:   perPage,
		retries:   cfg.RateLimitRetries,
		http:      httpClient,
	}
}

// CurrentUser returns the account that owns the token. It doubles as the
// authentication check at the start of a run.
func (c *Client) CurrentUser(ctx context.Context) (types.User, error) {
	var u types.User
	if _, err := c.getJSON(ctx, c.endpoint("/users/self", nil), &u); err != nil {
		return types.User{}, fmt.Errorf("fetching current user: %w", err)
	}
	return u, nil
}

// Courses returns the user's actively enrolled courses.
func (c *Client) Courses(ctx context.Context) ([]types.Course, error) {
	params := url.Values{}
	params.Set("enrollment_state", "active")
	params.Set("per_page", strconv.Itoa(c.perPage))

	courses, err := list[types.Course](ctx, c, c.endpoint("/courses", params), 0)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// Files returns every file in a course.
func (c *Client) Files(ctx context.Context, courseID int64) ([]types.File, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(c.perPage))

	path := fmt.Sprintf("/courses/%d/files", courseID)
	files, err := list[types.File](ctx, c, c.endpoint(path, params), 0)
	if err != nil {
		return nil, fmt.Errorf("listing files for course %d: %w", courseID, err)
	}
	return files, nil
}

// Announcements returns up to limit of the course's most recently active
// announcements. limit <= 0 uses 50.
func (c *Client) Announcements(ctx context.Context, courseID int64, limit int) ([]types.Announcement, error) {
	if limit <= 0 {
		limit = defaultAnnouncementLimit
	}
	params := url.Values{}
	params.Set("only_announcements", "true")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("order_by", "recent_activity")

	path := fmt.Sprintf("/courses/%d/discussion_topics", courseID)
	anns, err := list[types.Announcement](ctx, c, c.endpoint(path, params), limit)
	if err != nil {
		return nil, fmt.Errorf("listing announcements for course %d: %w", courseID, err)
	}
	return anns, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// list follows rel="next" links until the last page, or until limit items
// have been collected when limit > 0.
func list[T any](ctx context.Context, c *Client, first string, limit int) ([]T, error) {
	all := []T{}
	next := first
	for next != "" {
		var page []T
		link, err := c.getJSON(ctx, next, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if len(page) == 0 {
			break
		}
		next = link
	}
	return all, nil
}

// getJSON decodes the response body into out and returns the next-page URL
// from the Link header, if any.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (string, error) {
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return "", fmt.Errorf("GET %s: %w", redact(rawURL), err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("decoding %s: %w", redact(rawURL), err)
	}
	return nextLink(resp.Header.Get("Link")), nil
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header as
// sent by Canvas: <https://…&page=2>; rel="next", <…>; rel="last".
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			p = strings.TrimSpace(p)
			if p == `rel="next"` || p == "rel=next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}

// redact drops the query string, which may carry file verifiers.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
