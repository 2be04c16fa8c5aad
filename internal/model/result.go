package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamResultRecord is the remote mirror of a completed session: one durable
// row per submission, written once and never mutated. The full answer list
// is retained so a session's selections are reconstructable cross-device.
type ExamResultRecord struct {
	ID             uuid.UUID                `json:"id"`
	UserID         uuid.UUID                `json:"user_id"`
	SessionID      string                   `json:"session_id"`
	Mode           SessionMode              `json:"exam_type"`
	Questions      []Question               `json:"questions"`
	Answers        []UserAnswer             `json:"answers"`
	WrongAnswers   []string                 `json:"wrong_answers"`
	CategoryScores map[string]CategoryScore `json:"category_scores"`
	TotalQuestions int                      `json:"total_questions"`
	CorrectAnswers int                      `json:"correct_answers"`
	Score          float64                  `json:"score"`
	TimeTaken      int                      `json:"time_taken"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// StatsSummary aggregates a user's exam history for the dashboard.
type StatsSummary struct {
	TotalExams     int     `json:"total_exams"`
	AvgScore       float64 `json:"avg_score"`
	TotalQuestions int     `json:"total_questions"`
	TotalCorrect   int     `json:"total_correct"`
	Accuracy       float64 `json:"accuracy"`
}

// WeakArea is a subcategory with accuracy below the dashboard threshold.
type WeakArea struct {
	Category           string  `json:"category"`
	Accuracy           float64 `json:"accuracy"`
	QuestionsAttempted int     `json:"questions_attempted"`
}
