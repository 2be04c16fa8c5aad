package exam

import (
	"testing"

	"github.com/quantprep/backend/internal/model"
)

func question(id, subCategory, correct string) model.Question {
	return model.Question{
		ID:            id,
		Category:      "Math",
		SubCategory:   subCategory,
		Difficulty:    model.DifficultyEasy,
		Mode:          model.ModePractice,
		CorrectAnswer: correct,
	}
}

func TestScoreEmptySequence(t *testing.T) {
	r := Score(nil, model.NewAnswerSet())
	if r.TotalQuestions != 0 || r.Score != 0 {
		t.Fatalf("expected zero results, got %+v", r)
	}
	if r.CorrectAnswers != 0 || r.IncorrectAnswers != 0 || r.UnansweredQuestions != 0 {
		t.Fatalf("expected zero counts, got %+v", r)
	}
}

func TestScoreEndToEndScenario(t *testing.T) {
	// 3 questions: Algebra x2, Geometry x1. Q1 correct, Q2 wrong, Q3 blank.
	questions := []model.Question{
		question("q1", "Algebra", "A"),
		question("q2", "Algebra", "B"),
		question("q3", "Geometry", "C"),
	}
	answers := model.NewAnswerSet()
	answers.Put(model.UserAnswer{QuestionID: "q1", SelectedAnswer: "A", IsCorrect: true})
	answers.Put(model.UserAnswer{QuestionID: "q2", SelectedAnswer: "C", IsCorrect: false})

	r := Score(questions, answers)

	if r.TotalQuestions != 3 || r.CorrectAnswers != 1 || r.IncorrectAnswers != 1 || r.UnansweredQuestions != 1 {
		t.Fatalf("counts wrong: %+v", r)
	}
	if r.Score != 33.3 {
		t.Errorf("expected score 33.3, got %v", r.Score)
	}

	alg := r.Breakdown["Algebra"]
	if alg.Correct != 1 || alg.Total != 2 {
		t.Errorf("Algebra breakdown wrong: %+v", alg)
	}
	geo := r.Breakdown["Geometry"]
	if geo.Correct != 0 || geo.Total != 1 {
		t.Errorf("Geometry breakdown wrong: %+v", geo)
	}
}

func TestScoreCountsAlwaysSumToTotal(t *testing.T) {
	questions := []model.Question{
		question("q1", "Algebra", "A"),
		question("q2", "Algebra", "A"),
		question("q3", "Ratios", "A"),
		question("q4", "Geometry", "A"),
	}
	answers := model.NewAnswerSet()
	answers.Put(model.UserAnswer{QuestionID: "q1", SelectedAnswer: "A", IsCorrect: true})
	answers.Put(model.UserAnswer{QuestionID: "q2", SelectedAnswer: "B", IsCorrect: false})
	answers.Put(model.UserAnswer{QuestionID: "q3", SelectedAnswer: "A", IsCorrect: true})
	answers.Put(model.UserAnswer{QuestionID: "q4", SelectedAnswer: "E", IsCorrect: false})

	r := Score(questions, answers)
	if sum := r.CorrectAnswers + r.IncorrectAnswers + r.UnansweredQuestions; sum != r.TotalQuestions {
		t.Fatalf("counts sum %d != total %d", sum, r.TotalQuestions)
	}
	if r.UnansweredQuestions != 0 {
		t.Errorf("full coverage should leave 0 unanswered, got %d", r.UnansweredQuestions)
	}
	// Breakdown totals agree with the top-level totals.
	var bTotal, bCorrect int
	for _, b := range r.Breakdown {
		bTotal += b.Total
		bCorrect += b.Correct
	}
	if bTotal != r.TotalQuestions || bCorrect != r.CorrectAnswers {
		t.Errorf("breakdown totals inconsistent: %d/%d vs %d/%d", bCorrect, bTotal, r.CorrectAnswers, r.TotalQuestions)
	}
}

func TestScoreIgnoresForeignAnswerIDs(t *testing.T) {
	questions := []model.Question{question("q1", "Algebra", "A")}
	answers := model.NewAnswerSet()
	answers.Put(model.UserAnswer{QuestionID: "q1", SelectedAnswer: "A", IsCorrect: true})
	answers.Put(model.UserAnswer{QuestionID: "stray", SelectedAnswer: "A", IsCorrect: true})

	r := Score(questions, answers)
	if r.TotalQuestions != 1 || r.CorrectAnswers != 1 {
		t.Fatalf("stray answer inflated totals: %+v", r)
	}
	if r.Score != 100 {
		t.Errorf("expected 100, got %v", r.Score)
	}
}

func TestScoreFlagOnlyStubCountsAsUnanswered(t *testing.T) {
	questions := []model.Question{question("q1", "Algebra", "A")}
	answers := model.NewAnswerSet()
	answers.Put(model.UserAnswer{QuestionID: "q1", IsFlagged: true})

	r := Score(questions, answers)
	if r.UnansweredQuestions != 1 || r.IncorrectAnswers != 0 {
		t.Fatalf("flag-only stub misclassified: %+v", r)
	}
}

func TestScoreRoundsHalfUpToOneDecimal(t *testing.T) {
	// 1 of 16 = 6.25% → 6.3 (half rounds up).
	questions := make([]model.Question, 16)
	for i := range questions {
		questions[i] = question(string(rune('a'+i)), "Algebra", "A")
	}
	answers := model.NewAnswerSet()
	answers.Put(model.UserAnswer{QuestionID: "a", SelectedAnswer: "A", IsCorrect: true})

	r := Score(questions, answers)
	if r.Score != 6.3 {
		t.Errorf("expected 6.3, got %v", r.Score)
	}
}
