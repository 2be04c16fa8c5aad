// Package catalog loads and queries the static question bank. The catalog
// is read once per process and never mutated; all query functions operate on
// plain slices and preserve catalog order unless documented otherwise.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/quantprep/backend/internal/model"
)

// ErrInsufficientPool signals that a filtered pool is smaller than the
// requested sample size. Callers surface it as an adjust-your-filters
// prompt, not a server error.
var ErrInsufficientPool = errors.New("not enough questions in pool")

// Criteria are optional equality filters. A nil/zero field imposes no
// constraint.
type Criteria struct {
	SubCategory string
	Difficulty  model.Difficulty
	Mode        model.Mode
}

// Filter returns the questions matching every present criterion, in input
// order.
func Filter(questions []model.Question, c Criteria) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if c.SubCategory != "" && q.SubCategory != c.SubCategory {
			continue
		}
		if c.Difficulty != "" && q.Difficulty != c.Difficulty {
			continue
		}
		if c.Mode != "" && q.Mode != c.Mode {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Sample returns min(n, len(questions)) records chosen by uniform random
// permutation without replacement.
func Sample(questions []model.Question, n int) []model.Question {
	shuffled := make([]model.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// SampleExact returns exactly n records or ErrInsufficientPool when the pool
// is too small. The pool check happens before any sampling.
func SampleExact(questions []model.Question, n int) ([]model.Question, error) {
	if len(questions) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPool, len(questions), n)
	}
	return Sample(questions, n), nil
}

// UniqueSubCategories returns distinct subcategory values in first-seen order.
func UniqueSubCategories(questions []model.Question) []string {
	return unique(questions, func(q model.Question) string { return q.SubCategory })
}

// UniqueCategories returns distinct category values in first-seen order.
func UniqueCategories(questions []model.Question) []string {
	return unique(questions, func(q model.Question) string { return q.Category })
}

// UniqueDifficulties returns distinct difficulty values in first-seen order.
func UniqueDifficulties(questions []model.Question) []string {
	return unique(questions, func(q model.Question) string { return string(q.Difficulty) })
}

func unique(questions []model.Question, field func(model.Question) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range questions {
		v := field(q)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ByIDs returns the subset of questions whose id appears in ids, in catalog
// order.
func ByIDs(questions []model.Question, ids []string) []model.Question {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, q := range questions {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out
}
