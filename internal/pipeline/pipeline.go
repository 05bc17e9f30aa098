// Package pipeline wires extraction, dataset building, file emission, and
// uploads into the subcommand flows.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/veerababu74/spunkads/internal/config"
	"github.com/veerababu74/spunkads/internal/dataset"
	"github.com/veerababu74/spunkads/internal/report"
	"github.com/veerababu74/spunkads/pkg/manychat"
	"github.com/veerababu74/spunkads/pkg/sheetpush"
	"github.com/veerababu74/spunkads/pkg/spunkstats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the extract/upload flows against the configured services.
type Pipeline struct {
	cfg      *config.Config
	registry *report.Registry
	manychat manychat.Client
	spunk    spunkstats.Client
	push     sheetpush.Client
	now      func() time.Time
}

// Option overrides a pipeline collaborator, mainly for tests.
type Option func(*Pipeline)

// WithManyChat sets the posting history client.
func WithManyChat(c manychat.Client) Option {
	return func(p *Pipeline) { p.manychat = c }
}

// WithSpunkStats sets the revenue reporting client.
func WithSpunkStats(c spunkstats.Client) Option {
	return func(p *Pipeline) { p.spunk = c }
}

// WithPush sets the sheet upload client.
func WithPush(c sheetpush.Client) Option {
	return func(p *Pipeline) { p.push = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline from configuration. The page registry is loaded
// eagerly so a broken pages file fails before any API call.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	reg, err := report.LoadRegistry(cfg.ManyChat.PagesFile)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		registry: reg,
		manychat: manychat.NewClient(cfg.ManyChat.Token,
			manychat.WithBaseURL(cfg.ManyChat.BaseURL),
			manychat.WithRateLimit(cfg.ManyChat.RateLimit)),
		spunk: spunkstats.NewClient(cfg.SpunkStats.APIKey, cfg.SpunkStats.UserID,
			spunkstats.WithBaseURL(cfg.SpunkStats.BaseURL)),
		push: sheetpush.NewClient(cfg.Sheets.WebAppURL,
			sheetpush.WithRetries(cfg.Sheets.RetryAttempts),
			sheetpush.WithTimeout(time.Duration(cfg.Sheets.TimeoutSecs)*time.Second)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result carries the built datasets and any files written for them.
type Result struct {
	Detailed *dataset.Dataset
	Summary  *dataset.Dataset
	Files    []string
}

// pageExtract is one page's fetched posting history.
type pageExtract struct {
	page  report.Page
	posts []manychat.Post
}

// Extract fetches posting history for every registry page, joins revenue, and
// builds the detailed and summary datasets. Page fetches run concurrently,
// bounded by manychat.max_concurrent.
func (p *Pipeline) Extract(ctx context.Context) (*Result, error) {
	from, to := p.cfg.Extract.DateRange(p.now())
	pages := p.registry.Pages()

	zap.L().Info("extracting posting history",
		zap.Int("pages", len(pages)),
		zap.String("from", from),
		zap.String("to", to))

	extracts := make([]pageExtract, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.ManyChat.MaxConcurrent, 1))
	for i, page := range pages {
		g.Go(func() error {
			posts, err := p.manychat.AllPosts(gctx, page.ID, manychat.WithDateRange(from, to))
			if err != nil {
				return eris.Wrapf(err, "pipeline: fetch posts for page %s", page.Name)
			}
			extracts[i] = pageExtract{page: page, posts: posts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	revenueRows, err := p.spunk.Report(ctx, from, to)
	if err != nil {
		// Revenue is an enrichment, not the dataset itself. Pages keep empty
		// attribution when the report call fails.
		zap.L().Warn("revenue report unavailable", zap.Error(err))
		revenueRows = nil
	}
	revenue := report.JoinRevenue(revenueRows, p.registry)
	unmatched := report.UnmatchedSources(revenueRows, p.registry)

	now := p.now()
	var detailed, summary []dataset.Record
	for _, ex := range extracts {
		detailed = append(detailed, report.DetailedRows(ex.page, ex.posts, p.cfg.ManyChat.ExcludeCampaigns)...)
		rev, ok := revenue[ex.page.Name]
		if !ok {
			rev = report.EmptyRevenue()
		}
		summary = append(summary, report.SummaryRow(ex.page, ex.posts, rev, now))
	}
	summary = append(summary, report.SyntheticRows(unmatched, now)...)

	detailedDS, err := dataset.Build(report.DetailedColumns, detailed)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build detailed dataset")
	}
	summaryDS, err := dataset.Build(report.SummaryColumns, summary)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build summary dataset")
	}

	zap.L().Info("datasets built",
		zap.Int("detailed_rows", len(detailedDS.Rows)),
		zap.Int("summary_rows", len(summaryDS.Rows)))

	return &Result{Detailed: detailedDS, Summary: summaryDS}, nil
}

// WriteFiles emits the configured CSV (and optionally XLSX) files for the
// result and records their paths on it.
func (p *Pipeline) WriteFiles(res *Result) error {
	out := p.cfg.Output
	if err := os.MkdirAll(out.CSVDir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create output dir %s", out.CSVDir)
	}

	now := p.now()
	write := func(ds *dataset.Dataset, kind, sheetName string) error {
		path := filepath.Join(out.CSVDir, report.Filename(kind, "csv", now))
		if err := dataset.WriteCSV(ds, path); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
		zap.L().Info("wrote dataset", zap.String("path", path), zap.Int("rows", len(ds.Rows)))

		if out.WriteXLSX {
			xp := filepath.Join(out.CSVDir, report.Filename(kind, "xlsx", now))
			if err := dataset.WriteXLSX(ds, xp, sheetName); err != nil {
				return err
			}
			res.Files = append(res.Files, xp)
		}
		return nil
	}

	if out.IncludeDetailed {
		if err := write(res.Detailed, "detailed", p.cfg.Sheets.DetailedSheet); err != nil {
			return err
		}
	}
	if out.IncludeSummary {
		if err := write(res.Summary, "summary", p.cfg.Sheets.SummarySheet); err != nil {
			return err
		}
	}
	return nil
}

// Upload pushes both datasets to the sheet endpoint. Both sheets are
// attempted; the first error is returned after both finish.
func (p *Pipeline) Upload(ctx context.Context, res *Result) error {
	var firstErr error
	upload := func(ds *dataset.Dataset, sheetName string) {
		r, err := p.push.Upload(ctx, sheetpush.Request{
			SheetName: sheetName,
			Headers:   ds.Columns,
			Rows:      ds.Rows,
		})
		if err != nil {
			zap.L().Error("upload failed", zap.String("sheet", sheetName), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		zap.L().Info("uploaded dataset",
			zap.String("sheet", r.SheetName),
			zap.Int("rows_added", r.RowsAdded),
			zap.Int("total_rows", r.TotalRows))
	}

	if p.cfg.Output.IncludeDetailed {
		upload(res.Detailed, p.cfg.Sheets.DetailedSheet)
	}
	if p.cfg.Output.IncludeSummary {
		upload(res.Summary, p.cfg.Sheets.SummarySheet)
	}
	return firstErr
}

// ClearFiles removes the emitted files after a fully successful upload.
func (p *Pipeline) ClearFiles(res *Result) {
	for _, path := range res.Files {
		if err := os.Remove(path); err != nil {
			zap.L().Warn("could not remove file", zap.String("path", path), zap.Error(err))
		}
	}
	res.Files = nil
}

// UploadFiles reads previously emitted CSV files from the output directory
// and pushes each to its sheet, chosen by the file's kind segment. Unknown
// files are skipped.
func (p *Pipeline) UploadFiles(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(p.cfg.Output.CSVDir, "manychat_*.csv"))
	if err != nil {
		return eris.Wrap(err, "pipeline: list csv files")
	}
	if len(matches) == 0 {
		return eris.Errorf("pipeline: no csv files in %s", p.cfg.Output.CSVDir)
	}

	var firstErr error
	for _, path := range matches {
		var sheetName string
		switch {
		case strings.HasPrefix(filepath.Base(path), "manychat_detailed_"):
			sheetName = p.cfg.Sheets.DetailedSheet
		case strings.HasPrefix(filepath.Base(path), "manychat_summary_"):
			sheetName = p.cfg.Sheets.SummarySheet
		default:
			zap.L().Warn("skipping unrecognized file", zap.String("path", path))
			continue
		}

		ds, err := dataset.ReadCSV(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r, err := p.push.Upload(ctx, sheetpush.Request{
			SheetName: sheetName,
			Headers:   ds.Columns,
			Rows:      ds.Rows,
		})
		if err != nil {
			zap.L().Error("upload failed", zap.String("path", path), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		zap.L().Info("uploaded file",
			zap.String("path", path),
			zap.String("sheet", r.SheetName),
			zap.Int("rows_added", r.RowsAdded))
	}
	return firstErr
}

// Sync runs the full flow: extract, write files, upload, optional cleanup.
func (p *Pipeline) Sync(ctx context.Context) error {
	res, err := p.Extract(ctx)
	if err != nil {
		return err
	}
	if err := p.WriteFiles(res); err != nil {
		return err
	}
	if err := p.Upload(ctx, res); err != nil {
		return err
	}
	if p.cfg.Output.ClearFiles {
		p.ClearFiles(res)
	}
	return nil
}

// Check probes the sheet endpoint with a test payload.
func (p *Pipeline) Check(ctx context.Context) error {
	return p.push.Check(ctx)
}
