package exam

import (
	"math"

	"github.com/quantprep/backend/internal/model"
)

// Score reduces a question sequence and an answer set to graded results.
// Pure: no side effects, safe on an empty sequence. Answers for question ids
// outside the sequence are ignored and never inflate totals.
func Score(questions []model.Question, answers *model.AnswerSet) model.ExamResults {
	results := model.ExamResults{
		TotalQuestions: len(questions),
		Breakdown:      make(map[string]model.CategoryScore, len(questions)),
	}

	for _, q := range questions {
		bucket := results.Breakdown[q.SubCategory]
		bucket.Total++

		var answer model.UserAnswer
		var answered bool
		if answers != nil {
			if a, ok := answers.Get(q.ID); ok && a.SelectedAnswer != "" {
				answer, answered = a, true
			}
		}

		switch {
		case !answered:
			results.UnansweredQuestions++
		case answer.IsCorrect:
			results.CorrectAnswers++
			bucket.Correct++
		default:
			results.IncorrectAnswers++
		}

		results.Breakdown[q.SubCategory] = bucket
	}

	if results.TotalQuestions > 0 {
		pct := float64(results.CorrectAnswers) / float64(results.TotalQuestions) * 100
		results.Score = math.Round(pct*10) / 10
	}

	return results
}
