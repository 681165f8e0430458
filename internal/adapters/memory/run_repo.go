package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// RunRepo is an in-process ports.RunRepository for the CLI and tests.
type RunRepo struct {
	mu       sync.RWMutex
	runs     map[string]domain.ClipRun
	sections map[string][]domain.Section
}

// NewRunRepo creates an empty RunRepo.
func NewRunRepo() *RunRepo {
	return &RunRepo{
		runs:     make(map[string]domain.ClipRun),
		sections: make(map[string][]domain.Section),
	}
}

func (r *RunRepo) Save(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	r.sections[run.ID] = append([]domain.Section(nil), kept...)
	return nil
}

func (r *RunRepo) GetByID(ctx context.Context, id string) (*domain.ClipRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ClipRun, error) {
	r.mu.RLock()
	runs := make([]domain.ClipRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *RunRepo) Sections(ctx context.Context, runID string) ([]domain.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.runs[runID]; !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Section(nil), r.sections[runID]...), nil
}

func (r *RunRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.runs, id)
	delete(r.sections, id)
	return nil
}
