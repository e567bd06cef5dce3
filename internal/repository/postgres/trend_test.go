package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO quality_trends").
		WithArgs("orders", day, 70.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTrendRepo(db)
	err = repo.Upsert(context.Background(), domain.TrendPoint{
		Dataset: "orders", Date: day, SuccessRate: 70.0,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrendQuerySingleDataset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"dataset", "trend_date", "success_rate"}).
		AddRow("users", from, 83.3).
		AddRow("users", from.AddDate(0, 0, 1), 100.0)

	mock.ExpectQuery("SELECT dataset, trend_date, success_rate").
		WithArgs(from, to, "users").
		WillReturnRows(rows)

	repo := NewTrendRepo(db)
	points, err := repo.Query(context.Background(), "users", from, to)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 83.3, points[0].SuccessRate)
	assert.Equal(t, "users", points[1].Dataset)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrendQueryAllDatasets(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"dataset", "trend_date", "success_rate"}).
		AddRow("orders", from, 70.0).
		AddRow("users", from, 83.3)

	mock.ExpectQuery("SELECT dataset, trend_date, success_rate").
		WithArgs(from, to).
		WillReturnRows(rows)

	repo := NewTrendRepo(db)
	points, err := repo.Query(context.Background(), "", from, to)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
