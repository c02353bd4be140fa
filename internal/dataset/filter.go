package dataset

import "sort"

// AllBranches is the selection that disables branch filtering.
const AllBranches = "all"

// FilterByBranch keeps the rows whose column equals selection.
//
// An empty table, or the AllBranches selection, is returned as is. Any other
// selection yields a new table, possibly empty, that can be modified without
// touching t. A missing column matches nothing.
func FilterByBranch(t *Table, column, selection string) *Table {
	if t == nil {
		return Empty()
	}
	if t.IsEmpty() || selection == AllBranches {
		return t
	}

	idx, ok := t.index[column]
	if !ok {
		return t.shell()
	}

	return t.Filter(func(row []Value) bool {
		return row[idx].String() == selection
	})
}

// Branches returns the sorted set of distinct values of column across tables.
// Tables without the column are skipped.
func Branches(column string, tables ...*Table) []string {
	seen := make(map[string]struct{})
	for _, t := range tables {
		if t == nil {
			continue
		}
		idx, ok := t.index[column]
		if !ok {
			continue
		}
		for _, row := range t.rows {
			seen[row[idx].String()] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
