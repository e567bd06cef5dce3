package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// Service implements run history business logic. It coordinates between
// the repository layer and the retention policy.
type Service struct {
	repo      Repository
	retention time.Duration
}

// NewService creates a history service. retentionDays bounds how long run
// history rows are kept; zero disables pruning.
func NewService(repo Repository, retentionDays int) *Service {
	return &Service{
		repo:      repo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// RecordCycle appends one history entry summarizing a dispatch cycle and
// returns the stored entry with its generated ID.
func (s *Service) RecordCycle(ctx context.Context, date time.Time, status domain.RunStatus, duration time.Duration, issues int) (domain.RunHistoryEntry, error) {
	e := domain.RunHistoryEntry{
		ID:            uuid.New().String(),
		Date:          date.UTC(),
		OverallStatus: status,
		DurationMs:    duration.Milliseconds(),
		IssuesFound:   issues,
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return domain.RunHistoryEntry{}, fmt.Errorf("append history entry: %w", err)
	}
	return e, nil
}

// List returns history entries within [from, to], newest first.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]domain.RunHistoryEntry, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	entries, err := s.repo.ListEntries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// SaveOutcome records a dataset's outcome for its run date.
func (s *Service) SaveOutcome(ctx context.Context, o domain.RunOutcome) error {
	if err := s.repo.SaveOutcome(ctx, o); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// LatestOutcome returns a dataset's most recent outcome.
func (s *Service) LatestOutcome(ctx context.Context, dataset string) (*domain.RunOutcome, error) {
	return s.repo.LatestOutcome(ctx, dataset)
}

// Prune removes history entries past the retention window. A zero
// retention keeps everything.
func (s *Service) Prune(ctx context.Context, now time.Time) {
	if s.retention == 0 {
		return
	}
	cutoff := now.Add(-s.retention)
	removed, err := s.repo.PruneEntries(ctx, cutoff)
	if err != nil {
		logger.Warn("history prune failed", "error", err.Error())
		return
	}
	if removed > 0 {
		logger.Info("history pruned", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
}
