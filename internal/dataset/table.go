package dataset

import (
	"errors"
	"fmt"
)

// ErrDuplicateColumn is returned when two columns share a name.
var ErrDuplicateColumn = errors.New("duplicate column")

// Column describes one named, typed field of a Table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Table is an ordered sequence of rows sharing the same columns.
// A zero Table (or one returned by Empty) has no columns and no rows.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// New creates a table with the given columns and no rows.
func New(columns []Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		t.columns[i] = c
		t.index[c.Name] = i
	}
	return t, nil
}

// Append adds a row. The row must carry one value per column.
func (t *Table) Append(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, append([]Value(nil), row...))
	return nil
}

// Columns returns a copy of the column definitions in order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column definition by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no columns or no rows.
func (t *Table) IsEmpty() bool {
	return len(t.columns) == 0 || len(t.rows) == 0
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (Value, bool) {
	c, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[i][c], true
}

// Filter returns a new table holding the rows for which keep returns true.
// The result shares no row storage with t.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	out := t.shell()
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.Filter(func([]Value) bool { return true })
}

// shell copies the column layout without rows.
func (t *Table) shell() *Table {
	out := &Table{
		columns: append([]Column(nil), t.columns...),
		index:   make(map[string]int, len(t.columns)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}
