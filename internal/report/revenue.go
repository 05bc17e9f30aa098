package report

import (
	"fmt"
	"strconv"

	"github.com/veerababu74/spunkads/pkg/spunkstats"
)

// RevenueInfo is the per-page revenue attribution joined from the SpunkStats
// report. Revenue is kept as pre-rendered text so that "0.00" survives the
// spreadsheet round trip.
type RevenueInfo struct {
	Revenue     string
	Timestamp   string
	Offer       string
	UTMMedium   string
	Conversions int
	Clicks      int
	Leads       int
}

// EmptyRevenue is the attribution for pages with no matching report rows.
func EmptyRevenue() RevenueInfo {
	return RevenueInfo{Revenue: "0.00", Timestamp: "N/A"}
}

// fold adds one report row into the attribution. Payouts sum; the first
// row's offer, utm medium, and date stick.
func (i RevenueInfo) fold(row spunkstats.ReportRow) RevenueInfo {
	i.Revenue = fmt.Sprintf("%.2f", parsePayout(i.Revenue)+row.Payout)
	i.Conversions += row.Conversions
	i.Clicks += row.Clicks
	i.Leads += row.Leads
	if i.Offer == "" {
		i.Offer = row.Offer
	}
	if i.UTMMedium == "" {
		i.UTMMedium = row.UTMMedium
	}
	if i.Timestamp == "N/A" && row.Date != "" {
		i.Timestamp = row.Date
	}
	return i
}

// JoinRevenue matches report rows to pages by utm_source == page name and sums
// payouts across matching rows. Every registry page gets an entry; pages with
// no match get an empty attribution.
func JoinRevenue(rows []spunkstats.ReportRow, reg *Registry) map[string]RevenueInfo {
	out := make(map[string]RevenueInfo)
	for _, page := range reg.Pages() {
		out[page.Name] = EmptyRevenue()
	}
	for _, row := range rows {
		if row.UTMSource == "" || !reg.Known(row.UTMSource) {
			continue
		}
		out[row.UTMSource] = out[row.UTMSource].fold(row)
	}
	return out
}

// UnmatchedSources collects report rows whose utm_source matches no registry
// page, aggregated per source. These surface in the summary as synthetic rows
// so attributed revenue is never silently dropped.
func UnmatchedSources(rows []spunkstats.ReportRow, reg *Registry) map[string]RevenueInfo {
	out := make(map[string]RevenueInfo)
	for _, row := range rows {
		if row.UTMSource == "" || reg.Known(row.UTMSource) {
			continue
		}
		info, ok := out[row.UTMSource]
		if !ok {
			info = EmptyRevenue()
		}
		out[row.UTMSource] = info.fold(row)
	}
	return out
}

func parsePayout(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
