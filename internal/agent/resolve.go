package agent

import "github.com/rahul/insightforge/internal/dataset"

// Where a plot step's table came from.
const (
	SourceDataSource   = "data_source"
	SourceLastTable    = "last_table"
	SourceColumnSearch = "column_search"
	SourceDefault      = "default"
)

// resolvePlotTable picks the table a plot step charts, first match wins:
//  1. args.data_source names a produced table
//  2. the last produced table, unless args.x is not one of its columns and an
//     earlier table (in production order) has it
//  3. the default dataset
func resolvePlotTable(args Args, ec *executionContext, fallback *dataset.Table) (*dataset.Table, string) {
	if ds, ok := args.String("data_source"); ok {
		if t, ok := ec.lookup(ds); ok {
			return t, SourceDataSource
		}
	}

	if ec.last != nil {
		if x, ok := args.String("x"); ok && !ec.last.HasColumn(x) {
			if t, ok := ec.firstWithColumn(x); ok {
				return t, SourceColumnSearch
			}
		}
		return ec.last, SourceLastTable
	}

	return fallback, SourceDefault
}
