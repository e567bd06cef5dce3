package snapshot

import (
	"context"
	"fmt"

	"github.com/ignite/quality-monitor/internal/expectation"
)

// StaticProvider serves fixed sample datasets. It is the default source
// in dev mode so the pipeline produces realistic outcomes without a
// warehouse connection.
type StaticProvider struct {
	tables map[string]*Table
}

// NewStaticProvider creates a provider with the bundled sample datasets:
// a clean products table, a users table with null and duplicate emails,
// and an orders table with negative amounts and missing user references.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{tables: map[string]*Table{
		"users":    sampleUsers(),
		"products": sampleProducts(),
		"orders":   sampleOrders(),
	}}
}

// Register adds or replaces a sample dataset. Used by tests to shape
// specific failure scenarios.
func (p *StaticProvider) Register(dataset string, t *Table) {
	p.tables[dataset] = t
}

func (p *StaticProvider) Snapshot(_ context.Context, dataset string) (expectation.Snapshot, error) {
	t, ok := p.tables[dataset]
	if !ok {
		return nil, fmt.Errorf("no sample data for dataset %q", dataset)
	}
	return t, nil
}

func sampleUsers() *Table {
	return NewTable(
		[]string{"id", "email", "signup_date", "age"},
		map[string][]any{
			"id": {1, 2, 3, 4, 5, 6, 7, 8},
			"email": {
				"ana@example.com", "bo@example.com", "cy@example.com",
				"ana@example.com", // duplicate
				nil,               // missing
				"dee@example.com", "ed@example", // malformed
				"fay@example.com",
			},
			"signup_date": {
				"2024-01-02", "2024-01-05", "2024-01-09", "2024-01-11",
				"2024-01-12", "2024-01-15", "2024-01-18", "2024-01-20",
			},
			"age": {34, 28, 45, 34, 52, 19, 41, 37},
		},
	)
}

func sampleProducts() *Table {
	return NewTable(
		[]string{"sku", "name", "price"},
		map[string][]any{
			"sku":   {"P-100", "P-101", "P-102", "P-103", "P-104"},
			"name":  {"anvil", "rope", "dynamite", "magnet", "spring"},
			"price": {19.99, 4.5, 42.0, 12.25, 7.8},
		},
	)
}

func sampleOrders() *Table {
	return NewTable(
		[]string{"order_id", "user_id", "amount", "status"},
		map[string][]any{
			"order_id": {"o-1", "o-2", "o-3", "o-4", "o-5", "o-5", "o-7"}, // o-5 duplicated
			"user_id":  {1, 2, nil, 4, 5, 5, nil},                        // missing references
			"amount":   {25.0, -3.5, 18.0, 99.95, 12.0, 12.0, -1.0},      // negative amounts
			"status":   {"paid", "paid", "pending", "paid", "refunded", "refunded", "pending"},
		},
	)
}
