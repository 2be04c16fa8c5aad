package model

import (
	"encoding/json"
	"testing"
)

func TestAnswerSetPreservesInsertionOrder(t *testing.T) {
	s := NewAnswerSet()
	s.Put(UserAnswer{QuestionID: "q3", SelectedAnswer: "A", IsCorrect: true})
	s.Put(UserAnswer{QuestionID: "q1", IsFlagged: true})
	s.Put(UserAnswer{QuestionID: "q2", SelectedAnswer: "B"})

	// Overwrite q3: order must not change, content must.
	s.Put(UserAnswer{QuestionID: "q3", SelectedAnswer: "C", IsCorrect: false})

	entries := s.Entries()
	wantOrder := []string{"q3", "q1", "q2"}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, id := range wantOrder {
		if entries[i].QuestionID != id {
			t.Errorf("entry %d: expected %s, got %s", i, id, entries[i].QuestionID)
		}
	}
	if entries[0].SelectedAnswer != "C" || entries[0].IsCorrect {
		t.Errorf("overwrite not applied: %+v", entries[0])
	}
}

func TestAnswerSetJSONRoundTrip(t *testing.T) {
	s := NewAnswerSet()
	s.Put(UserAnswer{QuestionID: "q2", SelectedAnswer: "D", IsCorrect: true, TimeTaken: 42})
	s.Put(UserAnswer{QuestionID: "q1", IsFlagged: true})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := NewAnswerSet()
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", restored.Len())
	}
	got := restored.Entries()
	if got[0].QuestionID != "q2" || got[1].QuestionID != "q1" {
		t.Errorf("order not preserved: %s, %s", got[0].QuestionID, got[1].QuestionID)
	}
	a, ok := restored.Get("q2")
	if !ok || a.SelectedAnswer != "D" || !a.IsCorrect || a.TimeTaken != 42 {
		t.Errorf("q2 did not round-trip: %+v", a)
	}
	b, ok := restored.Get("q1")
	if !ok || !b.IsFlagged || b.SelectedAnswer != "" {
		t.Errorf("q1 did not round-trip: %+v", b)
	}
}

func TestAnswerSetEmptyMarshalsToArray(t *testing.T) {
	raw, err := json.Marshal(NewAnswerSet())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("expected [], got %s", raw)
	}
}
