package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/veerababu74/spunkads/internal/config"
	"github.com/veerababu74/spunkads/internal/dataset"
	"github.com/veerababu74/spunkads/pkg/manychat"
	"go.uber.org/zap"
)

// DetailedColumns is the column order of the per-campaign dataset.
var DetailedColumns = []string{
	"pagename", "page_id", "campaign_name", "timestamp", "time_scheduled",
	"sent", "delivered", "read", "clicked",
	"account_name", "user", "tl",
	"post_id", "post_url", "status",
}

// PostURL renders the ManyChat posting history URL for a post.
func PostURL(pageID, postID string) string {
	return fmt.Sprintf("https://app.manychat.com/%s/posting/history/%s",
		manychat.FBPageID(pageID), postID)
}

// FormatUnix renders a unix timestamp in the report timezone. Zero renders
// empty.
func FormatUnix(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).In(config.ReportZone).Format(config.TimestampLayout)
}

// Excluded reports whether a campaign name matches the exclusion list by
// case-insensitive substring.
func Excluded(name string, excludes []string) bool {
	lower := strings.ToLower(name)
	for _, ex := range excludes {
		if ex == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(ex)) {
			return true
		}
	}
	return false
}

// NormalizeStatus maps the API's status vocabulary onto the report's. Sent
// broadcasts are reported as published.
func NormalizeStatus(status string) string {
	if status == "" {
		return "unknown"
	}
	if status == "sent" {
		return "published"
	}
	return status
}

// DetailedRows builds one dataset record per post for a page, skipping
// excluded campaigns. The returned records are unsanitized; callers run them
// through dataset.Build which sanitizes per cell.
func DetailedRows(page Page, posts []manychat.Post, excludes []string) []dataset.Record {
	rows := make([]dataset.Record, 0, len(posts))
	for _, post := range posts {
		name := post.CampaignName()
		if Excluded(name, excludes) {
			zap.L().Debug("campaign excluded",
				zap.String("page", page.Name),
				zap.String("campaign", name))
			continue
		}

		timestamp := FormatUnix(post.Timestamp)
		scheduled := FormatUnix(post.ScheduledTime)
		if scheduled == "" {
			scheduled = FormatUnix(post.CreatedAt)
		}
		if scheduled == "" {
			scheduled = timestamp
		}

		stats := dataset.Record(post.Stats)
		counters := dataset.Accumulate(dataset.NewTotals(dataset.StatSpecs), stats, dataset.StatSpecs)

		postID := post.ResolvedID()
		rows = append(rows, dataset.Record{
			"pagename":       page.Name,
			"page_id":        page.ID,
			"campaign_name":  name,
			"timestamp":      timestamp,
			"time_scheduled": scheduled,
			"sent":           counters["sent"],
			"delivered":      counters["delivered"],
			"read":           counters["read"],
			"clicked":        counters["clicked"],
			"account_name":   page.AccountName,
			"user":           page.User,
			"tl":             page.TL,
			"post_id":        postID,
			"post_url":       PostURL(page.ID, postID),
			"status":         NormalizeStatus(post.Status),
		})
	}
	return rows
}
