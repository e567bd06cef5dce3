package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// DefaultSampleLimit bounds how many rows one snapshot pulls from the
// warehouse. Checks run on the sample, not the full table.
const DefaultSampleLimit = 10000

// Dataset names become table identifiers, so they are restricted to a
// safe charset instead of being interpolated freely.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// SQLProvider snapshots datasets from any database/sql source. The same
// provider works for the postgres and snowflake drivers.
type SQLProvider struct {
	db    *sql.DB
	limit int
}

// NewSQLProvider wraps an open connection. limit <= 0 falls back to
// DefaultSampleLimit.
func NewSQLProvider(db *sql.DB, limit int) *SQLProvider {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	return &SQLProvider{db: db, limit: limit}
}

// Snapshot reads up to the sample limit of rows from the dataset's table
// and pivots them into columnar form.
func (p *SQLProvider) Snapshot(ctx context.Context, dataset string) (expectation.Snapshot, error) {
	if !identPattern.MatchString(dataset) {
		return nil, fmt.Errorf("invalid dataset identifier %q", dataset)
	}

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT %d", dataset, p.limit))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", dataset, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s columns: %w", dataset, err)
	}

	data := make(map[string][]any, len(cols))
	count := 0
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("snapshot %s scan: %w", dataset, err)
		}
		for i, c := range cols {
			data[c] = append(data[c], cells[i])
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot %s rows: %w", dataset, err)
	}
	for _, c := range cols {
		if data[c] == nil {
			data[c] = []any{}
		}
	}

	logger.Debug("dataset snapshot taken", "dataset", dataset, "rows", count)
	return NewTable(cols, data), nil
}
