package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
)

func clipSections() []domain.Section {
	return []domain.Section{
		section("a", 1, 1, 2, 2),
		section("b", 7, 7, 9, 9),
		section("c", 7, 7, 8, 2),
		section("d", 5, 5, 12, 5),
		section("e"),
	}
}

func TestClipService_Clip(t *testing.T) {
	pub := &mockPublisher{}
	var saved []domain.Section
	runs := &mockRunRepo{
		saveFn: func(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error {
			saved = kept
			return nil
		},
	}
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), runs, pub, 2)

	res, err := svc.Clip(context.Background(), usecases.ClipRequest{
		Region:    "L-Land",
		Boundary:  lShape(),
		Sections:  clipSections(),
		Tolerance: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := sectionIDs(res.Kept); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("expected kept [a c], got %v", got)
	}
	if res.Run.SectionsTotal != 5 || res.Run.SectionsInBBox != 3 || res.Run.SectionsKept != 2 {
		t.Errorf("unexpected counts: %+v", res.Run)
	}
	if res.Run.BoundaryPoints != 7 {
		t.Errorf("expected 7 boundary points, got %d", res.Run.BoundaryPoints)
	}
	if res.Run.SimplifiedPoints != len(res.Simplified.Ring) {
		t.Errorf("simplified count %d does not match ring %d", res.Run.SimplifiedPoints, len(res.Simplified.Ring))
	}
	if res.Run.KeptLengthKm <= 0 {
		t.Errorf("expected positive kept length, got %v", res.Run.KeptLengthKm)
	}
	if res.Run.ID == "" || res.Run.Region != "L-Land" || res.Simplified.Name != "L-Land" {
		t.Errorf("unexpected run identity: %+v", res.Run)
	}
	if len(saved) != 2 {
		t.Errorf("expected 2 saved sections, got %d", len(saved))
	}
	if len(pub.runs) != 1 || pub.runs[0].ID != res.Run.ID {
		t.Errorf("expected one run event, got %v", pub.runs)
	}
}

func TestClipService_Clip_ExplicitBBox(t *testing.T) {
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), nil, nil, 1)

	res, err := svc.Clip(context.Background(), usecases.ClipRequest{
		Boundary: lShape(),
		Sections: clipSections(),
		BBox:     domain.Bounds{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sectionIDs(res.Kept); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected kept [a], got %v", got)
	}
	if res.Run.Region != "L" {
		t.Errorf("expected region to default to boundary name, got %q", res.Run.Region)
	}
}

func TestClipService_Clip_PreservesOrderAcrossWorkers(t *testing.T) {
	var sections []domain.Section
	var want []string
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("s%03d", i)
		if i%3 == 0 {
			// in the notch: inside bbox, outside polygon
			sections = append(sections, section(id, 6, 6, 8, 8))
		} else {
			sections = append(sections, section(id, 1, 1, 3, 3))
			want = append(want, id)
		}
	}

	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), nil, nil, 8)
	res, err := svc.Clip(context.Background(), usecases.ClipRequest{
		Boundary: lShape(),
		Sections: sections,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sectionIDs(res.Kept); !reflect.DeepEqual(got, want) {
		t.Fatalf("kept sections out of order or wrong: got %d, want %d", len(got), len(want))
	}
}

func TestClipService_Clip_Errors(t *testing.T) {
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), nil, nil, 1)

	_, err := svc.Clip(context.Background(), usecases.ClipRequest{})
	if !errors.Is(err, usecases.ErrEmptyBoundary) {
		t.Errorf("expected ErrEmptyBoundary, got %v", err)
	}

	_, err = svc.Clip(context.Background(), usecases.ClipRequest{Boundary: lShape(), Tolerance: -1})
	if !errors.Is(err, usecases.ErrInvalidTolerance) {
		t.Errorf("expected ErrInvalidTolerance, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Clip(ctx, usecases.ClipRequest{Boundary: lShape(), Sections: clipSections()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClipService_Clip_SaveFailure(t *testing.T) {
	pub := &mockPublisher{}
	runs := &mockRunRepo{
		saveFn: func(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error {
			return errors.New("db down")
		},
	}
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), runs, pub, 1)

	_, err := svc.Clip(context.Background(), usecases.ClipRequest{Boundary: lShape(), Sections: clipSections()})
	if err == nil {
		t.Fatal("expected error when saving fails")
	}
	if len(pub.runs) != 0 {
		t.Errorf("expected no event for a failed run, got %d", len(pub.runs))
	}
}

func TestClipService_Contains(t *testing.T) {
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), nil, nil, 1)

	got, err := svc.Contains(context.Background(), lShape(), 0, ring(2, 8, 8, 2, 7, 7, 11, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []bool{true, true, false, false}) {
		t.Errorf("unexpected containment: %v", got)
	}

	if _, err := svc.Contains(context.Background(), nil, 0, nil); !errors.Is(err, usecases.ErrEmptyBoundary) {
		t.Errorf("expected ErrEmptyBoundary, got %v", err)
	}
}

func TestClipService_ListRuns_ClampLimit(t *testing.T) {
	var gotLimits []int
	runs := &mockRunRepo{
		listRecentFn: func(ctx context.Context, limit int) ([]domain.ClipRun, error) {
			gotLimits = append(gotLimits, limit)
			return nil, nil
		},
	}
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), runs, nil, 1)

	for _, in := range []int{0, -5, 50, 500} {
		if _, err := svc.ListRuns(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !reflect.DeepEqual(gotLimits, []int{20, 20, 50, 100}) {
		t.Errorf("unexpected limits: %v", gotLimits)
	}
}

func TestClipService_GetRun(t *testing.T) {
	runs := &mockRunRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.ClipRun, error) {
			if id == "r1" {
				return &domain.ClipRun{ID: "r1", Region: "Thüringen"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), runs, nil, 1)

	run, err := svc.GetRun(context.Background(), "r1")
	if err != nil || run.Region != "Thüringen" {
		t.Fatalf("expected run r1, got %v, %v", run, err)
	}
	if _, err := svc.GetRun(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	noHistory := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), nil, nil, 1)
	if _, err := noHistory.GetRun(context.Background(), "r1"); !errors.Is(err, usecases.ErrNoRunHistory) {
		t.Errorf("expected ErrNoRunHistory, got %v", err)
	}
}

func TestClipService_RunSections(t *testing.T) {
	runs := &mockRunRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.ClipRun, error) {
			if id == "r1" {
				return &domain.ClipRun{ID: "r1"}, nil
			}
			return nil, domain.ErrNotFound
		},
		sectionsFn: func(ctx context.Context, runID string) ([]domain.Section, error) {
			return []domain.Section{section("a", 1, 1, 2, 2)}, nil
		},
	}
	svc := usecases.NewClipService(usecases.NewSimplifyService(nil, nil), runs, nil, 1)

	secs, err := svc.RunSections(context.Background(), "r1")
	if err != nil || len(secs) != 1 {
		t.Fatalf("expected one section, got %v, %v", secs, err)
	}
	if _, err := svc.RunSections(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
