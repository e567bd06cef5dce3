// Command validate runs every configured expectation suite once and
// prints the results. Exit code 1 means at least one dataset came back
// critical, so it slots into CI and cron health checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ignite/quality-monitor/internal/aggregate"
	"github.com/ignite/quality-monitor/internal/config"
	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dataset := flag.String("dataset", "", "validate a single dataset (default: all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-dataset evaluation timeout")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	registry, err := expectation.NewRegistry(cfg.Suites)
	if err != nil {
		log.Fatalf("Invalid expectation suite config: %v", err)
	}

	ctx := context.Background()
	provider, closeProvider, err := snapshot.NewProvider(ctx, cfg.Snapshots)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot provider: %v", err)
	}
	defer closeProvider()

	agg := aggregate.New(aggregate.Thresholds{CriticalBelow: cfg.Thresholds.CriticalBelow})

	datasets := registry.Datasets()
	if *dataset != "" {
		if _, ok := registry.Suite(*dataset); !ok {
			log.Fatalf("Dataset %q is not configured", *dataset)
		}
		datasets = []string{*dataset}
	}

	anyCritical := false
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSTATUS\tRATE\tPASSED\tDETAILS")

	for _, ds := range datasets {
		suite, _ := registry.Suite(ds)
		outcome, err := evaluate(ctx, provider, agg, suite, *timeout)
		if err != nil {
			anyCritical = true
			fmt.Fprintf(w, "%s\tERROR\t-\t-\t%v\n", ds, err)
			continue
		}
		if outcome.Status == domain.OutcomeCritical {
			anyCritical = true
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d/%d\t\n",
			ds, outcome.Status, outcome.SuccessRate, outcome.Successful, outcome.Total)
		for _, f := range outcome.Failures() {
			fmt.Fprintf(w, "\t\t\t\t%s %s: %s\n",
				f.Expectation.Type, f.Expectation.Column, f.Details)
		}
	}
	w.Flush()

	if anyCritical {
		os.Exit(1)
	}
}

func evaluate(
	ctx context.Context,
	provider expectation.Provider,
	agg *aggregate.Aggregator,
	suite domain.Suite,
	timeout time.Duration,
) (domain.RunOutcome, error) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now().UTC()
	snap, err := provider.Snapshot(dctx, suite.Dataset)
	if err != nil {
		return domain.RunOutcome{}, fmt.Errorf("snapshot: %w", err)
	}
	results := expectation.EvaluateSuite(snap, suite)
	return agg.Aggregate(suite.Dataset, results, start, time.Now().UTC()), nil
}
