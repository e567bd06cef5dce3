package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"                  // postgres driver
	_ "github.com/snowflakedb/gosnowflake" // snowflake driver

	"github.com/ignite/quality-monitor/internal/config"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// NewProvider builds the snapshot provider selected by configuration.
// The returned close function releases any underlying connection pool and
// is a no-op for the static source.
func NewProvider(ctx context.Context, cfg config.SnapshotConfig) (expectation.Provider, func() error, error) {
	switch cfg.Source {
	case "static", "":
		return NewStaticProvider(), func() error { return nil }, nil

	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("snapshot source postgres requires a dsn")
		}
		db, err := openAndPing(ctx, "postgres", cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLProvider(db, 0), db.Close, nil

	case "snowflake":
		db, err := openAndPing(ctx, "snowflake", cfg.Snowflake.DSN())
		if err != nil {
			return nil, nil, err
		}
		return NewSQLProvider(db, 0), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot source %q", cfg.Source)
	}
}

func openAndPing(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s snapshot source: %w", driver, err)
	}
	db.SetMaxOpenConns(4)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s snapshot source: %w", driver, err)
	}
	logger.Info("snapshot source connected", "driver", driver)
	return db, nil
}
