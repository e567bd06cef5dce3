// Package snapshot supplies dataset snapshots to the expectation engine.
// A snapshot is a column-oriented, read-only copy of the rows sampled
// from the configured source at evaluation time.
package snapshot

import "fmt"

// Table is a columnar snapshot backed by plain slices. It satisfies
// expectation.Snapshot.
type Table struct {
	cols []string
	data map[string][]any
}

// NewTable builds a snapshot from column names and per-column values.
// Columns without data are treated as all-null.
func NewTable(cols []string, data map[string][]any) *Table {
	return &Table{cols: cols, data: data}
}

func (t *Table) Columns() []string { return t.cols }

func (t *Table) Column(name string) ([]any, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("column %q not in snapshot", name)
	}
	return vals, nil
}

// Rows reports the snapshot's row count, taken from its widest column.
func (t *Table) Rows() int {
	max := 0
	for _, vals := range t.data {
		if len(vals) > max {
			max = len(vals)
		}
	}
	return max
}
