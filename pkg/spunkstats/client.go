// Package spunkstats provides a client for the SpunkStats affiliate reporting API.
package spunkstats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the reporting operations the revenue join needs.
type Client interface {
	// Report fetches the grouped report for a date window. Window names like
	// "yesterday" or explicit YYYY-MM-DD dates are accepted for from and to.
	Report(ctx context.Context, from, to string) ([]ReportRow, error)
}

// ReportRow is one grouped row of the affiliate report. The API sends numeric
// fields as either numbers or strings, so they are decoded tolerantly.
type ReportRow struct {
	Date        string  `json:"dt"`
	Offer       string  `json:"o"`
	UTMSource   string  `json:"utm_s"`
	UTMMedium   string  `json:"utm_m"`
	Payout      float64 `json:"-"`
	Conversions int     `json:"-"`
	Clicks      int     `json:"-"`
	Leads       int     `json:"-"`
}

// UnmarshalJSON decodes a report row, coercing the counter fields from
// whichever of number or string the API sent.
func (r *ReportRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date        string `json:"dt"`
		Offer       string `json:"o"`
		UTMSource   string `json:"utm_s"`
		UTMMedium   string `json:"utm_m"`
		Payout      any    `json:"a"`
		Conversions any    `json:"c"`
		Clicks      any    `json:"cl"`
		Leads       any    `json:"l"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Date = raw.Date
	r.Offer = raw.Offer
	r.UTMSource = raw.UTMSource
	r.UTMMedium = raw.UTMMedium
	r.Payout = coerceFloat(raw.Payout)
	r.Conversions = int(coerceFloat(raw.Conversions))
	r.Clicks = int(coerceFloat(raw.Clicks))
	r.Leads = int(coerceFloat(raw.Leads))
	return nil
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Option configures the SpunkStats client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	userID  string
	baseURL string
	http    *http.Client
}

// NewClient creates a SpunkStats reporting client.
func NewClient(apiKey, userID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		userID:  userID,
		baseURL: "https://dashboard.spunkstats.net",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Report(ctx context.Context, from, to string) ([]ReportRow, error) {
	reqURL := fmt.Sprintf(
		"%s/api/v1/SPK/report/%s/%s/?groupBy=date,offer,utm_source,utm_medium&limit=1000000",
		c.baseURL, from, to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "spunkstats: create request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-user-id", c.userID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "spunkstats: report request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "spunkstats: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("spunkstats: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rows []ReportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "spunkstats: unmarshal report")
	}
	return rows, nil
}
