package agent

import "github.com/rahul/insightforge/internal/dataset"

// executionContext is the per-run table state. It is owned by one run and
// discarded when the run ends.
type executionContext struct {
	order  []string
	tables map[string]*dataset.Table
	last   *dataset.Table
}

func newExecutionContext() *executionContext {
	return &executionContext{tables: make(map[string]*dataset.Table)}
}

// store records the result of a sql step. A repeated name replaces the table
// but keeps its original position.
func (ec *executionContext) store(name string, t *dataset.Table) {
	if _, ok := ec.tables[name]; !ok {
		ec.order = append(ec.order, name)
	}
	ec.tables[name] = t
	ec.last = t
}

func (ec *executionContext) lookup(name string) (*dataset.Table, bool) {
	t, ok := ec.tables[name]
	return t, ok
}

// firstWithColumn searches produced tables in insertion order.
func (ec *executionContext) firstWithColumn(col string) (*dataset.Table, bool) {
	for _, name := range ec.order {
		if t := ec.tables[name]; t.HasColumn(col) {
			return t, true
		}
	}
	return nil, false
}
