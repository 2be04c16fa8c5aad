package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates exam session states. A session never leaves
// Submitted once it gets there.
type SessionState string

const (
	SessionNotStarted SessionState = "NOT_STARTED"
	SessionInProgress SessionState = "IN_PROGRESS"
	SessionSubmitted  SessionState = "SUBMITTED"
)

// SessionMode is the run kind: untimed filterable practice, or a timed
// fixed-length mock exam with solutions withheld until submission.
type SessionMode string

const (
	SessionModePractice SessionMode = "practice"
	SessionModeMock     SessionMode = "mock"
)

// SessionSnapshot is the durable serialized form of an exam session. It is
// written on every autosave checkpoint and finalized (with results) on
// submission, so an interrupted run can be resumed from the last checkpoint
// and a completed run can render results without waiting on the mirror.
type SessionSnapshot struct {
	SessionID string       `json:"session_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Mode      SessionMode  `json:"mode"`
	State     SessionState `json:"state"`
	Questions []Question   `json:"questions"`
	Answers   *AnswerSet   `json:"answers"`
	Index     int          `json:"index"`
	StartTime time.Time    `json:"start_time"`
	// DurationSeconds is the mock countdown length; 0 for untimed practice.
	DurationSeconds int  `json:"duration_seconds,omitempty"`
	ShowSolutions   bool `json:"show_solutions"`
	// Results is set only once the session is Submitted.
	Results *ExamResults `json:"results,omitempty"`
	// TimeTaken is seconds from start to submission; set with Results.
	TimeTaken int `json:"time_taken,omitempty"`
}

// CategoryScore is a per-subcategory correct/total tally.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ExamResults is the graded breakdown computed at submission time. The four
// count fields always sum to TotalQuestions.
type ExamResults struct {
	TotalQuestions       int                      `json:"total_questions"`
	CorrectAnswers       int                      `json:"correct_answers"`
	IncorrectAnswers     int                      `json:"incorrect_answers"`
	UnansweredQuestions  int                      `json:"unanswered_questions"`
	Score                float64                  `json:"score"`
	TimeTaken            int                      `json:"time_taken"`
	Breakdown            map[string]CategoryScore `json:"breakdown"`
}

// StartPracticeRequest is the payload for starting a practice session.
type StartPracticeRequest struct {
	SubCategory string `json:"sub_category" binding:"omitempty,max=100"`
	Difficulty  string `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Count       int    `json:"count" binding:"omitempty,min=1,max=50"`
	// ReviewMistakes restricts the pool to previously wrong questions.
	ReviewMistakes bool `json:"review_mistakes"`
}

// SelectAnswerRequest is the payload for answering the current question.
type SelectAnswerRequest struct {
	Option string `json:"option" binding:"required,oneof=A B C D E"`
}

// NavigateRequest moves the current-question pointer. Exactly one of
// Direction or Index must be provided.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=next previous"`
	Index     *int   `json:"index" binding:"omitempty,min=0"`
}
