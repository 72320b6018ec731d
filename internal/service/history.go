// Package service provides run-history business logic, delegating
// persistence to a RunRepository.
package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/researchhive/internal/models"
	"github.com/google/uuid"
)

// MaxRecent caps how many runs Recent returns.
const MaxRecent = 100

// RunRepository defines the persistence operations required by the
// history service.
type RunRepository interface {
	// Record stores run, replacing an earlier row with the same ID.
	Record(ctx context.Context, run models.Run) error
	// Recent returns the latest runs of username, newest first.
	Recent(ctx context.Context, username string, limit int) ([]models.Run, error)
	// Forget deletes the given runs of username.
	Forget(ctx context.Context, username string, ids []string) (int64, error)
}

// HistoryService journals pipeline runs.
type HistoryService struct {
	repo RunRepository
}

// NewHistoryService constructs a HistoryService over repo.
func NewHistoryService(repo RunRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Record stores a finished run. Runs without an ID are rejected.
func (s *HistoryService) Record(ctx context.Context, run models.Run) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	return s.repo.Record(ctx, run)
}

// Recent returns up to limit runs, clamped to [1, MaxRecent]; a
// non-positive limit means the repository default.
func (s *HistoryService) Recent(ctx context.Context, username string, limit int) ([]models.Run, error) {
	if limit > MaxRecent {
		limit = MaxRecent
	}
	return s.repo.Recent(ctx, username, limit)
}

// Forget deletes runs by ID. Every ID must be a UUID; nothing is deleted
// otherwise.
func (s *HistoryService) Forget(ctx context.Context, username string, ids []string) (int64, error) {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, fmt.Errorf("invalid run id %q", id)
		}
	}
	return s.repo.Forget(ctx, username, ids)
}
