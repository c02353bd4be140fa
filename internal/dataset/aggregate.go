package dataset

import (
	"sort"

	"github.com/shopspring/decimal"
)

// GroupTotal is the summed value of one group.
type GroupTotal struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
}

// Ranking is the result of TopN. NoData is set when the input could not be
// ranked at all (empty table or missing columns), which callers render as a
// placeholder instead of an empty chart.
type Ranking struct {
	NoData bool         `json:"no_data"`
	Items  []GroupTotal `json:"items"`
}

// MonthTotal is the summed value of one calendar month, labelled YYYY-MM.
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// TopN groups rows by groupColumn, sums valueColumn and keeps the n largest
// groups in descending order. Equal totals keep ascending key order.
func TopN(t *Table, groupColumn, valueColumn string, n int) Ranking {
	if t == nil || t.IsEmpty() {
		return Ranking{NoData: true}
	}
	g, okG := t.index[groupColumn]
	v, okV := t.index[valueColumn]
	if !okG || !okV || t.columns[v].Kind != KindNumber {
		return Ranking{NoData: true}
	}

	groups := groupSums(t, func(row []Value) (string, bool) {
		return row[g].String(), true
	}, v)

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total.GreaterThan(groups[j].Total)
	})
	if n < 0 {
		n = 0
	}
	if len(groups) > n {
		groups = groups[:n]
	}
	return Ranking{Items: groups}
}

// MonthlyTotals sums valueColumn per calendar month of dateColumn, oldest
// month first. Rows with a missing date are left out.
func MonthlyTotals(t *Table, dateColumn, valueColumn string) []MonthTotal {
	if t == nil || t.IsEmpty() {
		return nil
	}
	d, okD := t.index[dateColumn]
	v, okV := t.index[valueColumn]
	if !okD || !okV || t.columns[d].Kind != KindDate || t.columns[v].Kind != KindNumber {
		return nil
	}

	groups := groupSums(t, func(row []Value) (string, bool) {
		if row[d].MissingDate() {
			return "", false
		}
		return row[d].Time.Format("2006-01"), true
	}, v)

	out := make([]MonthTotal, len(groups))
	for i, grp := range groups {
		out[i] = MonthTotal{Month: grp.Key, Total: grp.Total}
	}
	return out
}

// Sum adds up a numeric column. Missing or non-numeric columns sum to zero.
func Sum(t *Table, column string) decimal.Decimal {
	total := decimal.Zero
	if t == nil {
		return total
	}
	c, ok := t.index[column]
	if !ok || t.columns[c].Kind != KindNumber {
		return total
	}
	for _, row := range t.rows {
		total = total.Add(row[c].Number)
	}
	return total
}

// CountDistinct returns the number of distinct values in column.
func CountDistinct(t *Table, column string) int {
	if t == nil {
		return 0
	}
	c, ok := t.index[column]
	if !ok {
		return 0
	}
	seen := make(map[string]struct{})
	for _, row := range t.rows {
		seen[row[c].String()] = struct{}{}
	}
	return len(seen)
}

// groupSums sums column v per key, returning groups sorted by key.
func groupSums(t *Table, key func(row []Value) (string, bool), v int) []GroupTotal {
	totals := make(map[string]decimal.Decimal)
	for _, row := range t.rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		if cur, seen := totals[k]; seen {
			totals[k] = cur.Add(row[v].Number)
		} else {
			totals[k] = row[v].Number
		}
	}

	out := make([]GroupTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, GroupTotal{Key: k, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
