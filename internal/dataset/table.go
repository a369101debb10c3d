package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SalesTable is the logical name the default dataset is registered under.
const SalesTable = "sales"

// SalesColumns is the column set plan generation assumes for SalesTable.
var SalesColumns = []string{"date", "product", "region", "channel", "units", "price", "revenue", "customer_id"}

// Table is an ordered set of named columns over ordered rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with that exact name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Column returns the values of a column in row order.
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Clone returns a deep copy of the row slices. Cell values are shared.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := New(t.Columns...)
	c.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]any(nil), row...)
	}
	return c
}

// MarshalJSON always emits rows as an array, even when empty.
func (t *Table) MarshalJSON() ([]byte, error) {
	type wire Table
	w := wire(*t)
	if w.Columns == nil {
		w.Columns = []string{}
	}
	if w.Rows == nil {
		w.Rows = [][]any{}
	}
	return json.Marshal(w)
}

// ToFloat converts a numeric cell value. Strings are parsed.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}

// FormatValue renders a cell for display.
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "NULL"
	case string:
		return n
	case []byte:
		return string(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
