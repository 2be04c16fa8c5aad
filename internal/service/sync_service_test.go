package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/model"
)

// fakeResultReader simulates the result mirror, optionally failing every
// read.
type fakeResultReader struct {
	fail    bool
	history []model.ExamResultRecord
	perf    map[string]model.CategoryScore
	wrong   []string
}

var errMirrorDown = errors.New("connection refused")

func (f *fakeResultReader) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.ExamResultRecord, error) {
	if f.fail {
		return nil, errMirrorDown
	}
	return f.history, nil
}

func (f *fakeResultReader) BySession(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResultRecord, error) {
	if f.fail {
		return nil, errMirrorDown
	}
	return nil, nil
}

func (f *fakeResultReader) Summary(ctx context.Context, userID uuid.UUID) (*model.StatsSummary, error) {
	if f.fail {
		return nil, errMirrorDown
	}
	return &model.StatsSummary{TotalExams: len(f.history)}, nil
}

func (f *fakeResultReader) CategoryPerformance(ctx context.Context, userID uuid.UUID) (map[string]model.CategoryScore, error) {
	if f.fail {
		return nil, errMirrorDown
	}
	return f.perf, nil
}

func (f *fakeResultReader) WrongAnswerIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if f.fail {
		return nil, errMirrorDown
	}
	return f.wrong, nil
}

func newTestSyncService(reader ResultReader) *SyncService {
	return NewSyncService(nil, reader, zerolog.Nop())
}

func TestReadsFailClosedWhenMirrorUnreachable(t *testing.T) {
	svc := newTestSyncService(&fakeResultReader{fail: true})
	ctx := context.Background()
	userID := uuid.New()

	history := svc.History(ctx, userID, 20)
	if history == nil || len(history) != 0 {
		t.Errorf("History() = %v, want empty slice", history)
	}

	summary := svc.Summary(ctx, userID)
	if summary == nil {
		t.Fatal("Summary() = nil, want zero summary")
	}
	if summary.TotalExams != 0 || summary.AvgScore != 0 {
		t.Errorf("Summary() = %+v, want zero value", summary)
	}

	perf := svc.CategoryPerformance(ctx, userID)
	if perf == nil || len(perf) != 0 {
		t.Errorf("CategoryPerformance() = %v, want empty map", perf)
	}

	weak := svc.WeakAreas(ctx, userID, 60, 3)
	if weak == nil || len(weak) != 0 {
		t.Errorf("WeakAreas() = %v, want empty slice", weak)
	}

	wrong := svc.WrongAnswerIDs(ctx, userID)
	if wrong == nil || len(wrong) != 0 {
		t.Errorf("WrongAnswerIDs() = %v, want empty slice", wrong)
	}
}

func TestReadsNormalizeNilResults(t *testing.T) {
	svc := newTestSyncService(&fakeResultReader{})
	ctx := context.Background()
	userID := uuid.New()

	if history := svc.History(ctx, userID, 20); history == nil {
		t.Error("History() = nil, want empty slice for a fresh user")
	}
	if perf := svc.CategoryPerformance(ctx, userID); perf == nil {
		t.Error("CategoryPerformance() = nil, want empty map for a fresh user")
	}
}

func TestWeakAreasRanksWeakestFirst(t *testing.T) {
	reader := &fakeResultReader{perf: map[string]model.CategoryScore{
		"Algebra":    {Correct: 1, Total: 4},  // 25%
		"Geometry":   {Correct: 2, Total: 4},  // 50%
		"Statistics": {Correct: 9, Total: 10}, // above threshold
		"Arithmetic": {Correct: 0, Total: 2},  // under min attempts
	}}
	svc := newTestSyncService(reader)

	weak := svc.WeakAreas(context.Background(), uuid.New(), 60, 3)
	if len(weak) != 2 {
		t.Fatalf("len(weak) = %d, want 2", len(weak))
	}
	if weak[0].Category != "Algebra" || weak[1].Category != "Geometry" {
		t.Errorf("order = [%s %s], want [Algebra Geometry]", weak[0].Category, weak[1].Category)
	}
}
