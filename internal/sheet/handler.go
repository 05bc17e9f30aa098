package sheet

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/internal/dataset"
)

// UploadRequest is the upload protocol payload.
type UploadRequest struct {
	SheetName string   `json:"sheet_name"`
	Headers   []string `json:"headers"`
	Rows      [][]any  `json:"rows"`
	// Append defaults to true; false replaces the sheet's data rows.
	Append *bool `json:"append,omitempty"`
	// RequestID, when set, makes the upload idempotent: a replayed id returns
	// the recorded result without appending again.
	RequestID string `json:"request_id,omitempty"`
}

// UploadResult is the upload protocol response.
type UploadResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	SheetName      string `json:"sheet_name"`
	RowsAdded      int    `json:"rows_added"`
	TotalRows      int    `json:"total_rows"`
	SpreadsheetURL string `json:"spreadsheet_url,omitempty"`
	Error          string `json:"error,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Handler executes upload requests against a sheet store.
type Handler struct {
	store          Store
	spreadsheetURL string
	now            func() time.Time
}

// HandlerOption configures the handler.
type HandlerOption func(*Handler)

// WithSpreadsheetURL sets the URL echoed back in successful results.
func WithSpreadsheetURL(url string) HandlerOption {
	return func(h *Handler) { h.spreadsheetURL = url }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates an upload handler backed by the given store.
func NewHandler(store Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Upload runs the upload state machine for one request.
//
// Empty sheet: the incoming headers become row 1 verbatim and data rows
// follow. Populated sheet: incoming headers are reconciled against row 1,
// header changes applied, and each row written through the resulting mapping
// with unmapped positions filled with the empty sentinel. Empty row sets
// still perform header management.
func (h *Handler) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.SheetName == "" {
		return h.failure(req, eris.Wrap(ErrTargetUnavailable, "sheet_name is required"))
	}

	// Idempotent replay of an already processed request.
	if req.RequestID != "" {
		prev, err := h.store.GetResult(ctx, req.RequestID)
		if err != nil {
			return h.failure(req, eris.Wrapf(ErrTargetUnavailable, "lookup request %s: %v", req.RequestID, err))
		}
		if prev != nil {
			zap.L().Info("replayed upload request",
				zap.String("sheet", req.SheetName),
				zap.String("request_id", req.RequestID),
			)
			return prev, nil
		}
	}

	sh, err := h.store.GetSheet(ctx, req.SheetName)
	if err != nil {
		return h.failure(req, eris.Wrapf(ErrTargetUnavailable, "open sheet %s: %v", req.SheetName, err))
	}
	if sh == nil {
		if sh, err = h.store.CreateSheet(ctx, req.SheetName); err != nil {
			return h.failure(req, eris.Wrapf(ErrTargetUnavailable, "create sheet %s: %v", req.SheetName, err))
		}
	}

	outRows, err := h.prepare(ctx, sh, req)
	if err != nil {
		return h.failure(req, err)
	}

	existing := len(sh.Rows)
	if req.Append != nil && !*req.Append {
		if err := h.store.ClearRows(ctx, req.SheetName); err != nil {
			return h.failure(req, eris.Wrapf(ErrTargetUnavailable, "clear sheet %s: %v", req.SheetName, err))
		}
		existing = 0
	}

	written, appendErr := h.store.AppendRows(ctx, req.SheetName, outRows)

	res := &UploadResult{
		Success:        appendErr == nil,
		SheetName:      req.SheetName,
		RowsAdded:      written,
		TotalRows:      existing + written + 1, // header row included
		SpreadsheetURL: h.spreadsheetURL,
		Timestamp:      h.now().UTC().Format(time.RFC3339),
	}

	if appendErr != nil {
		err := eris.Wrapf(ErrPartialWrite, "sheet %s: wrote %d of %d rows: %v", req.SheetName, written, len(outRows), appendErr)
		res.Error = err.Error()
		h.record(ctx, req.RequestID, res)
		return res, err
	}

	res.Message = fmt.Sprintf("added %d rows to %s", written, req.SheetName)

	// Observability annotation; failure here does not fail the upload.
	if err := h.store.Annotate(ctx, req.SheetName, Meta{LastWrite: h.now(), LastRowCount: written}); err != nil {
		zap.L().Warn("sheet annotation failed", zap.String("sheet", req.SheetName), zap.Error(err))
	}

	h.record(ctx, req.RequestID, res)

	zap.L().Info("upload complete",
		zap.String("sheet", req.SheetName),
		zap.Int("rows_added", res.RowsAdded),
		zap.Int("total_rows", res.TotalRows),
	)
	return res, nil
}

// prepare resolves headers and remaps rows for the sheet's current state.
func (h *Handler) prepare(ctx context.Context, sh *Sheet, req UploadRequest) ([][]any, error) {
	if len(sh.Headers) == 0 {
		// Empty sheet: headers written verbatim, nothing to reconcile.
		if err := h.store.SetHeaders(ctx, req.SheetName, req.Headers); err != nil {
			return nil, eris.Wrapf(ErrTargetUnavailable, "write headers to %s: %v", req.SheetName, err)
		}
		identity := make([]int, len(req.Headers))
		for i := range identity {
			identity[i] = i
		}
		return remapRows(req.Rows, identity, len(req.Headers)), nil
	}

	updated, mapping, actions := Reconcile(sh.Headers, req.Headers)
	if len(actions) > 0 {
		if err := h.store.SetHeaders(ctx, req.SheetName, updated); err != nil {
			return nil, eris.Wrapf(ErrTargetUnavailable, "update headers on %s: %v", req.SheetName, err)
		}
		zap.L().Info("sheet schema reconciled",
			zap.String("sheet", req.SheetName),
			zap.Int("columns", len(updated)),
			zap.Any("actions", actions),
		)
	}
	return remapRows(req.Rows, mapping, len(updated)), nil
}

// remapRows places each incoming column's value at its mapped position and
// fills unmapped positions with the empty sentinel. Values are sanitized a
// second time at the boundary; JSON null arrives as nil.
func remapRows(rows [][]any, mapping []int, width int) [][]any {
	out := make([][]any, len(rows))
	for r, row := range rows {
		mapped := make([]any, width)
		for i := range mapped {
			mapped[i] = dataset.Empty
		}
		for i, pos := range mapping {
			if i < len(row) && pos < width {
				mapped[pos] = dataset.SanitizeValue(row[i])
			}
		}
		out[r] = mapped
	}
	return out
}

// failure packages err as a structured failure result. The error is also
// returned so callers can branch on its kind.
func (h *Handler) failure(req UploadRequest, err error) (*UploadResult, error) {
	return &UploadResult{
		Success:   false,
		SheetName: req.SheetName,
		Error:     err.Error(),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}, err
}

// record stores the result under the request id when one was supplied.
func (h *Handler) record(ctx context.Context, requestID string, res *UploadResult) {
	if requestID == "" {
		return
	}
	if err := h.store.PutResult(ctx, requestID, res); err != nil {
		zap.L().Warn("failed to record upload result", zap.String("request_id", requestID), zap.Error(err))
	}
}
