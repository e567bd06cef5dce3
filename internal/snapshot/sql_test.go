package snapshot

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLProviderSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"order_id", "amount"}).
		AddRow("o-1", 25.0).
		AddRow("o-2", nil).
		AddRow("o-3", -3.5)
	mock.ExpectQuery("SELECT \\* FROM orders LIMIT 10000").WillReturnRows(rows)

	p := NewSQLProvider(db, 0)
	snap, err := p.Snapshot(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, []string{"order_id", "amount"}, snap.Columns())
	amounts, err := snap.Column("amount")
	require.NoError(t, err)
	require.Len(t, amounts, 3)
	assert.Nil(t, amounts[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProviderEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM users LIMIT 50").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	p := NewSQLProvider(db, 50)
	snap, err := p.Snapshot(context.Background(), "users")
	require.NoError(t, err)

	emails, err := snap.Column("email")
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestSQLProviderRejectsBadIdentifier(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := NewSQLProvider(db, 0)
	_, err = p.Snapshot(context.Background(), "users; DROP TABLE users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dataset identifier")
}

func TestStaticProviderDatasets(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	for _, dataset := range []string{"users", "products", "orders"} {
		snap, err := p.Snapshot(ctx, dataset)
		require.NoError(t, err, dataset)
		require.NotEmpty(t, snap.Columns(), dataset)
	}

	_, err := p.Snapshot(ctx, "ghost")
	require.Error(t, err)
}

func TestStaticOrdersHaveSeededIssues(t *testing.T) {
	p := NewStaticProvider()
	snap, err := p.Snapshot(context.Background(), "orders")
	require.NoError(t, err)

	userIDs, err := snap.Column("user_id")
	require.NoError(t, err)
	nulls := 0
	for _, v := range userIDs {
		if v == nil {
			nulls++
		}
	}
	assert.Equal(t, 2, nulls, "sample orders seed two missing user references")

	amounts, err := snap.Column("amount")
	require.NoError(t, err)
	negative := 0
	for _, v := range amounts {
		if f, ok := v.(float64); ok && f < 0 {
			negative++
		}
	}
	assert.Equal(t, 2, negative, "sample orders seed two negative amounts")
}
