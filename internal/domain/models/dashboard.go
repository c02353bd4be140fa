package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoDataPlaceholder is shown instead of a chart that has nothing to rank.
const NoDataPlaceholder = "Sem dados"

// Dashboard is everything the presentation layer needs for one branch
// selection.
type Dashboard struct {
	Selection   string          `json:"selection"`
	Branches    []string        `json:"branches"`
	Pending     *PendingSummary `json:"pending,omitempty"`
	EntrySeries []MonthlyPoint  `json:"entry_series"`
	ExitSeries  []MonthlyPoint  `json:"exit_series"`
	TopEntries  ProductRanking  `json:"top_entries"`
	TopExits    ProductRanking  `json:"top_exits"`
	Entries     DetailTable     `json:"entries"`
	Exits       DetailTable     `json:"exits"`
	PendingRows DetailTable     `json:"pending_rows"`
	Warnings    []string        `json:"warnings,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// PendingSummary holds the write-off counters.
type PendingSummary struct {
	Total          decimal.Decimal `json:"total"`
	TotalLabel     string          `json:"total_label"`
	OpenNotes      int             `json:"open_notes"`
	ActiveBranches int             `json:"active_branches"`
}

// MonthlyPoint is one bar of a time series.
type MonthlyPoint struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Label string          `json:"label"`
}

// RankedProduct is one bar of a top-N chart.
type RankedProduct struct {
	Product    string          `json:"product"`
	Total      decimal.Decimal `json:"total"`
	TotalLabel string          `json:"total_label"`
}

// ProductRanking is a top-N chart, or a placeholder when NoData is set.
type ProductRanking struct {
	NoData      bool            `json:"no_data"`
	Placeholder string          `json:"placeholder,omitempty"`
	Items       []RankedProduct `json:"items"`
}

// DetailTable is a pre-formatted grid of cells.
type DetailTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has nothing to show.
func (d DetailTable) Empty() bool {
	return len(d.Rows) == 0
}
