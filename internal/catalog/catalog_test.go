package catalog

import (
	"errors"
	"testing"

	"github.com/quantprep/backend/internal/model"
)

func makeQuestions(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:            string(rune('a' + i)),
			SubCategory:   "Algebra",
			Difficulty:    model.DifficultyEasy,
			Mode:          model.ModePractice,
			CorrectAnswer: "A",
		}
	}
	return out
}

func TestFilterMatchesAllPresentCriteria(t *testing.T) {
	qs := []model.Question{
		{ID: "1", SubCategory: "Algebra", Difficulty: model.DifficultyEasy, Mode: model.ModePractice},
		{ID: "2", SubCategory: "Geometry", Difficulty: model.DifficultyEasy, Mode: model.ModePractice},
		{ID: "3", SubCategory: "Algebra", Difficulty: model.DifficultyHard, Mode: model.ModePractice},
		{ID: "4", SubCategory: "Algebra", Difficulty: model.DifficultyEasy, Mode: model.ModeMock},
	}

	got := Filter(qs, Criteria{SubCategory: "Algebra", Difficulty: model.DifficultyEasy, Mode: model.ModePractice})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected [1], got %v", ids(got))
	}

	// Absent criteria impose no constraint.
	got = Filter(qs, Criteria{SubCategory: "Algebra"})
	if len(got) != 3 {
		t.Fatalf("expected 3 Algebra questions, got %d", len(got))
	}
	// Input order preserved.
	if got[0].ID != "1" || got[1].ID != "3" || got[2].ID != "4" {
		t.Errorf("order not preserved: %v", ids(got))
	}

	if got := Filter(qs, Criteria{}); len(got) != 4 {
		t.Errorf("empty criteria should pass everything, got %d", len(got))
	}
}

func TestSampleFullPoolReturnsEverything(t *testing.T) {
	qs := makeQuestions(10)
	got := Sample(qs, 10)
	if len(got) != 10 {
		t.Fatalf("expected all 10, got %d", len(got))
	}
	seen := make(map[string]bool)
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("duplicate id %s in sample", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSampleTruncatesToPoolSize(t *testing.T) {
	got := Sample(makeQuestions(5), 10)
	if len(got) != 5 {
		t.Fatalf("expected min(10,5)=5, got %d", len(got))
	}
}

func TestSampleExactRejectsInsufficientPool(t *testing.T) {
	_, err := SampleExact(makeQuestions(5), 10)
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}

	got, err := SampleExact(makeQuestions(10), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10, got %d", len(got))
	}
}

func TestUniqueSubCategoriesFirstSeenOrder(t *testing.T) {
	qs := []model.Question{
		{ID: "1", SubCategory: "Geometry"},
		{ID: "2", SubCategory: "Algebra"},
		{ID: "3", SubCategory: "Geometry"},
		{ID: "4", SubCategory: "Statistics"},
	}
	got := UniqueSubCategories(qs)
	want := []string{"Geometry", "Algebra", "Statistics"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestByIDsCatalogOrder(t *testing.T) {
	qs := []model.Question{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	got := ByIDs(qs, []string{"4", "2", "missing"})
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "4" {
		t.Fatalf("expected catalog order [2 4], got %v", ids(got))
	}
}

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
