// Package manychat provides a client for the ManyChat posting history API.
package manychat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the posting history operations the extractor needs.
type Client interface {
	// PostingHistory fetches one page of broadcast posts for a page.
	PostingHistory(ctx context.Context, pageID string, opts ...HistoryOption) (*HistoryResponse, error)
	// AllPosts fetches every post for a page across pagination.
	AllPosts(ctx context.Context, pageID string, opts ...HistoryOption) ([]Post, error)
}

// Post is one broadcast in the posting history. Stats is kept as a raw map so
// that null and absent counters stay distinguishable downstream.
type Post struct {
	ID            string         `json:"id"`
	PostID        string         `json:"post_id"`
	Name          string         `json:"name"`
	Preview       string         `json:"preview"`
	Namespace     string         `json:"namespace"`
	Status        string         `json:"status"`
	Timestamp     int64          `json:"timestamp"`
	ScheduledTime int64          `json:"scheduled_time"`
	CreatedAt     int64          `json:"created_at"`
	Flow          *Flow          `json:"flow,omitempty"`
	Stats         map[string]any `json:"stats"`
}

// Flow is the automation flow a post was sent from.
type Flow struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// CampaignName returns the best available display name for the post, checking
// the flow name first, then the post's own name, preview, and namespace.
func (p Post) CampaignName() string {
	if p.Flow != nil && p.Flow.Name != "" {
		return p.Flow.Name
	}
	if p.Name != "" {
		return p.Name
	}
	if p.Preview != "" {
		return p.Preview
	}
	return p.Namespace
}

// ResolvedID returns the post identifier, preferring post_id over id.
func (p Post) ResolvedID() string {
	if p.PostID != "" {
		return p.PostID
	}
	return p.ID
}

// HistoryResponse is one page of posting history.
type HistoryResponse struct {
	Posts  []Post `json:"posts"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// HistoryOption configures a posting history request.
type HistoryOption func(*historyOpts)

type historyOpts struct {
	offset int
	limit  int
	from   string
	to     string
}

// WithOffset sets the pagination offset.
func WithOffset(offset int) HistoryOption {
	return func(o *historyOpts) { o.offset = offset }
}

// WithLimit sets the page size.
func WithLimit(limit int) HistoryOption {
	return func(o *historyOpts) { o.limit = limit }
}

// WithDateRange restricts history to posts sent between from and to
// (YYYY-MM-DD, inclusive).
func WithDateRange(from, to string) HistoryOption {
	return func(o *historyOpts) {
		o.from = from
		o.to = to
	}
}

// Option configures the ManyChat client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the request throttle in requests per second.
// Zero or negative disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a posting history client. By default requests are
// throttled to 2 req/s.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://app.manychat.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// FBPageID returns the page id with the "fb" prefix the posting API expects.
func FBPageID(pageID string) string {
	if len(pageID) >= 2 && pageID[:2] == "fb" {
		return pageID
	}
	return "fb" + pageID
}

func (c *httpClient) PostingHistory(ctx context.Context, pageID string, opts ...HistoryOption) (*HistoryResponse, error) {
	ho := &historyOpts{limit: 50}
	for _, opt := range opts {
		opt(ho)
	}

	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "manychat: rate limit wait")
	}

	q := url.Values{}
	q.Set("offset", strconv.Itoa(ho.offset))
	q.Set("limit", strconv.Itoa(ho.limit))
	if ho.from != "" {
		q.Set("from", ho.from)
	}
	if ho.to != "" {
		q.Set("to", ho.to)
	}

	reqURL := fmt.Sprintf("%s/%s/posting/history?%s", c.baseURL, FBPageID(pageID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "manychat: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "manychat: posting history for %s", pageID)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "manychat: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("manychat: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result HistoryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "manychat: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) AllPosts(ctx context.Context, pageID string, opts ...HistoryOption) ([]Post, error) {
	var all []Post
	offset := 0
	for {
		page, err := c.PostingHistory(ctx, pageID, append(opts, WithOffset(offset))...)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Posts...)
		offset += len(page.Posts)
		if len(page.Posts) == 0 || (page.Total > 0 && offset >= page.Total) {
			return all, nil
		}
	}
}
