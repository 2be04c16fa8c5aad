package model

import "encoding/json"

// UserAnswer records one interaction with a question: a selected option,
// a flag, or both. At most one UserAnswer exists per question per session.
type UserAnswer struct {
	QuestionID string `json:"question_id"`
	// SelectedAnswer is an option key (A-E) or "" when the question was
	// flagged without being answered.
	SelectedAnswer string `json:"selected_answer"`
	// IsCorrect is derived at selection time by key equality against the
	// catalog's correct answer, never recomputed afterwards.
	IsCorrect bool `json:"is_correct"`
	IsFlagged bool `json:"is_flagged"`
	// TimeTaken is whole seconds elapsed since session start at the moment
	// of selection. Zero for flag-only stubs.
	TimeTaken int `json:"time_taken,omitempty"`
}

// AnswerSet is an ordered mapping from question id to UserAnswer. Insertion
// order is preserved and the JSON form is an explicit array of entries, so
// snapshots round-trip through the session store exactly.
type AnswerSet struct {
	entries []UserAnswer
	index   map[string]int
}

// NewAnswerSet returns an empty AnswerSet.
func NewAnswerSet() *AnswerSet {
	return &AnswerSet{index: make(map[string]int)}
}

// Get returns the answer recorded for a question id, if any.
func (s *AnswerSet) Get(questionID string) (UserAnswer, bool) {
	i, ok := s.index[questionID]
	if !ok {
		return UserAnswer{}, false
	}
	return s.entries[i], true
}

// Put inserts or overwrites the answer for its question id. First insertion
// order is kept on overwrite.
func (s *AnswerSet) Put(a UserAnswer) {
	if i, ok := s.index[a.QuestionID]; ok {
		s.entries[i] = a
		return
	}
	s.index[a.QuestionID] = len(s.entries)
	s.entries = append(s.entries, a)
}

// Len returns the number of recorded answers.
func (s *AnswerSet) Len() int {
	return len(s.entries)
}

// Entries returns the recorded answers in insertion order. The returned
// slice is a copy.
func (s *AnswerSet) Entries() []UserAnswer {
	out := make([]UserAnswer, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON encodes the set as an array of entries in insertion order.
func (s *AnswerSet) MarshalJSON() ([]byte, error) {
	if s.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON rebuilds the set from an array of entries. A duplicated
// question id keeps the last entry but the first position.
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	var entries []UserAnswer
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = nil
	s.index = make(map[string]int, len(entries))
	for _, e := range entries {
		s.Put(e)
	}
	return nil
}
