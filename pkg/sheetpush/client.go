// Package sheetpush provides a client for the spreadsheet upload endpoint.
package sheetpush

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrTimeout marks uploads that exhausted their deadline. Callers check it
// with eris.Is to distinguish slow targets from rejected payloads.
var ErrTimeout = eris.New("sheetpush: upload timed out")

// Request is the upload protocol payload.
type Request struct {
	SheetName string   `json:"sheet_name"`
	Headers   []string `json:"headers"`
	Rows      [][]any  `json:"rows"`
	Append    *bool    `json:"append,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Response is the structured result the endpoint answers with.
type Response struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	SheetName      string `json:"sheet_name"`
	RowsAdded      int    `json:"rows_added"`
	TotalRows      int    `json:"total_rows"`
	SpreadsheetURL string `json:"spreadsheet_url,omitempty"`
	Error          string `json:"error,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Client uploads datasets to the sheet endpoint.
type Client interface {
	// Upload pushes one dataset to the named sheet, retrying transient
	// failures with exponential backoff.
	Upload(ctx context.Context, req Request) (*Response, error)
	// Check probes connectivity with a tiny test payload.
	Check(ctx context.Context) error
}

// Option configures the upload client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetries sets the maximum attempt count per upload.
func WithRetries(attempts int) Option {
	return func(c *httpClient) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.http.Timeout = d }
}

type httpClient struct {
	endpoint    string
	maxAttempts int
	http        *http.Client
}

// NewClient creates an upload client for the given endpoint URL.
func NewClient(endpoint string, opts ...Option) Client {
	c := &httpClient{
		endpoint:    endpoint,
		maxAttempts: 3,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *httpClient) Upload(ctx context.Context, req Request) (*Response, error) {
	if req.RequestID == "" {
		// A stable id across retries keeps replays from double-appending.
		req.RequestID = uuid.NewString()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheetpush: encode payload")
	}

	backoff := 1 * time.Second
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "sheetpush: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			if timedOut(err) {
				lastErr = eris.Wrapf(ErrTimeout, "attempt %d: %v", attempt, err)
			} else {
				lastErr = eris.Wrapf(err, "sheetpush: attempt %d", attempt)
			}
			if attempt < c.maxAttempts {
				if waitErr := sleep(ctx, backoff); waitErr != nil {
					return nil, waitErr
				}
				backoff *= 2
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "sheetpush: read response")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < c.maxAttempts {
			lastErr = eris.Errorf("sheetpush: status %d: %s", resp.StatusCode, string(body))
			if waitErr := sleep(ctx, backoff); waitErr != nil {
				return nil, waitErr
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("sheetpush: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var result Response
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, eris.Wrap(err, "sheetpush: unmarshal response")
		}
		return &result, nil
	}
	return nil, lastErr
}

// Check uploads a one-cell test payload to the reserved "test" sheet.
func (c *httpClient) Check(ctx context.Context) error {
	res, err := c.Upload(ctx, Request{
		SheetName: "test",
		Headers:   []string{"check"},
		Rows:      [][]any{{"ok"}},
	})
	if err != nil {
		return eris.Wrap(err, "sheetpush: connectivity check")
	}
	if !res.Success {
		return eris.Errorf("sheetpush: connectivity check rejected: %s", res.Error)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
