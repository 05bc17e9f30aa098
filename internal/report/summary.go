package report

import (
	"sort"
	"time"

	"github.com/veerababu74/spunkads/internal/config"
	"github.com/veerababu74/spunkads/internal/dataset"
	"github.com/veerababu74/spunkads/pkg/manychat"
)

// SummaryColumns is the column order of the per-page summary dataset.
var SummaryColumns = []string{
	"pagename", "page_id", "timestamp",
	"totalCampaigns", "totalSent", "totalDelivered", "totalRead", "totalClicked",
	"account_name", "user", "tl",
	"revenue", "revenue_timestamp",
}

// SummaryRow folds a page's posts into one totals record. The summary carries
// the page id with its "fb" prefix, matching how the posting API addresses
// pages.
func SummaryRow(page Page, posts []manychat.Post, revenue RevenueInfo, now time.Time) dataset.Record {
	totals := dataset.NewTotals(dataset.StatSpecs)
	for _, post := range posts {
		totals = dataset.Accumulate(totals, dataset.Record(post.Stats), dataset.StatSpecs)
	}

	return dataset.Record{
		"pagename":          page.Name,
		"page_id":           manychat.FBPageID(page.ID),
		"timestamp":         now.In(config.ReportZone).Format(config.TimestampLayout),
		"totalCampaigns":    int64(len(posts)),
		"totalSent":         totals["sent"],
		"totalDelivered":    totals["delivered"],
		"totalRead":         totals["read"],
		"totalClicked":      totals["clicked"],
		"account_name":      page.AccountName,
		"user":              page.User,
		"tl":                page.TL,
		"revenue":           revenue.Revenue,
		"revenue_timestamp": revenue.Timestamp,
	}
}

// SyntheticRows builds summary records for utm sources that matched no
// registry page. They carry the attributed revenue with zeroed campaign
// counters, sorted by source name for stable output.
func SyntheticRows(unmatched map[string]RevenueInfo, now time.Time) []dataset.Record {
	sources := make([]string, 0, len(unmatched))
	for src := range unmatched {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	stamp := now.In(config.ReportZone).Format(config.TimestampLayout)
	rows := make([]dataset.Record, 0, len(sources))
	for _, src := range sources {
		info := unmatched[src]
		rows = append(rows, dataset.Record{
			"pagename":          src,
			"page_id":           dataset.Empty,
			"timestamp":         stamp,
			"totalCampaigns":    int64(0),
			"totalSent":         int64(0),
			"totalDelivered":    int64(0),
			"totalRead":         int64(0),
			"totalClicked":      int64(0),
			"account_name":      "SpunkStats Only",
			"user":              "Unknown",
			"tl":                "Unknown",
			"revenue":           info.Revenue,
			"revenue_timestamp": info.Timestamp,
		})
	}
	return rows
}
