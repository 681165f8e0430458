package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	runs       []domain.ClipRun
	simplified []string
}

func (m *mockPublisher) PublishRunCompleted(ctx context.Context, run *domain.ClipRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockPublisher) PublishBoundarySimplified(ctx context.Context, region string, before, after int) error {
	m.simplified = append(m.simplified, region)
	return nil
}

// --- Mock RunRepository ---

type mockRunRepo struct {
	saveFn       func(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error
	getByIDFn    func(ctx context.Context, id string) (*domain.ClipRun, error)
	listRecentFn func(ctx context.Context, limit int) ([]domain.ClipRun, error)
	sectionsFn   func(ctx context.Context, runID string) ([]domain.Section, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockRunRepo) Save(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, run, kept)
	}
	return nil
}

func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*domain.ClipRun, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ClipRun, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRunRepo) Sections(ctx context.Context, runID string) ([]domain.Section, error) {
	if m.sectionsFn != nil {
		return m.sectionsFn(ctx, runID)
	}
	return nil, nil
}

func (m *mockRunRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Fixtures ---

func ring(xy ...float64) []domain.Point {
	out := make([]domain.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, domain.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

// lShape is a 10x10 square with the upper right 6x6 quadrant cut out.
func lShape() *domain.Boundary {
	return &domain.Boundary{
		Name: "L",
		Ring: ring(0, 0, 10, 0, 10, 4, 4, 4, 4, 10, 0, 10, 0, 0),
	}
}

func section(id string, xy ...float64) domain.Section {
	return domain.Section{ID: id, Coordinates: ring(xy...)}
}

func sectionIDs(secs []domain.Section) []string {
	ids := make([]string, len(secs))
	for i, s := range secs {
		ids[i] = s.ID
	}
	return ids
}
