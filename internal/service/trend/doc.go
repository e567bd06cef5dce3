// Package trend implements the success-rate trend store.
//
// The store is an append-only time series of per-dataset success rates,
// idempotent per (dataset, date): recording the same key twice keeps the
// latest value. Queries return series sorted ascending by date for
// charting. Retention and compaction are external concerns; there is no
// deletion API.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package trend
