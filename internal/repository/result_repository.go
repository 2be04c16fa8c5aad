package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantprep/backend/internal/model"
)

var ErrResultNotFound = errors.New("exam result not found")

// ResultRepository handles the durable exam result mirror. Rows are written
// once at submission time and read back for history, dashboards, and
// cross-device result recovery.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Record inserts the result row and credits the earned points in one
// transaction, so a session can never be mirrored without its points or
// vice versa. Re-recording the same session ID is a no-op, which keeps the
// mirror queue safe to retry.
func (r *ResultRepository) Record(ctx context.Context, rec *model.ExamResultRecord, points int) error {
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	categoryScores, err := json.Marshal(rec.CategoryScores)
	if err != nil {
		return fmt.Errorf("marshal category scores: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO exam_results
			(user_id, session_id, exam_type, questions, answers, wrong_answers,
			 category_scores, total_questions, correct_answers, score, time_taken, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (session_id) DO NOTHING`,
		rec.UserID, rec.SessionID, rec.Mode, questions, answers, rec.WrongAnswers,
		categoryScores, rec.TotalQuestions, rec.CorrectAnswers, rec.Score, rec.TimeTaken, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	// Points are only credited on the first successful insert.
	if tag.RowsAffected() > 0 && points > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET points = points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			points, rec.UserID,
		); err != nil {
			return fmt.Errorf("credit points: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// BySession retrieves a single mirrored result, scoped to its owner.
func (r *ResultRepository) BySession(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResultRecord, error) {
	rec := &model.ExamResultRecord{}
	var questions, answers, categoryScores []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, exam_type, questions, answers, wrong_answers,
		        category_scores, total_questions, correct_answers, score, time_taken, completed_at
		 FROM exam_results WHERE user_id = $1 AND session_id = $2`,
		userID, sessionID,
	).Scan(&rec.ID, &rec.UserID, &rec.SessionID, &rec.Mode, &questions, &answers, &rec.WrongAnswers,
		&categoryScores, &rec.TotalQuestions, &rec.CorrectAnswers, &rec.Score, &rec.TimeTaken, &rec.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalResultColumns(rec, questions, answers, categoryScores); err != nil {
		return nil, err
	}
	return rec, nil
}

// History retrieves the user's most recent results, newest first.
func (r *ResultRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.ExamResultRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, exam_type, questions, answers, wrong_answers,
		        category_scores, total_questions, correct_answers, score, time_taken, completed_at
		 FROM exam_results
		 WHERE user_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResultRecord
	for rows.Next() {
		var rec model.ExamResultRecord
		var questions, answers, categoryScores []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SessionID, &rec.Mode, &questions, &answers, &rec.WrongAnswers,
			&categoryScores, &rec.TotalQuestions, &rec.CorrectAnswers, &rec.Score, &rec.TimeTaken, &rec.CompletedAt); err != nil {
			return nil, err
		}
		if err := unmarshalResultColumns(&rec, questions, answers, categoryScores); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if results == nil {
		results = []model.ExamResultRecord{}
	}
	return results, rows.Err()
}

// Summary aggregates lifetime counts for the user's dashboard.
func (r *ResultRepository) Summary(ctx context.Context, userID uuid.UUID) (*model.StatsSummary, error) {
	s := &model.StatsSummary{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(score), 0),
		        COALESCE(SUM(total_questions), 0),
		        COALESCE(SUM(correct_answers), 0)
		 FROM exam_results WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalExams, &s.AvgScore, &s.TotalQuestions, &s.TotalCorrect)
	if err != nil {
		return nil, err
	}
	if s.TotalQuestions > 0 {
		s.Accuracy = float64(s.TotalCorrect) / float64(s.TotalQuestions) * 100
	}
	return s, nil
}

// CategoryPerformance returns per-subcategory accuracy across the user's
// mirrored history, computed from the stored answer lists.
func (r *ResultRepository) CategoryPerformance(ctx context.Context, userID uuid.UUID) (map[string]model.CategoryScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_scores FROM exam_results WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merged := make(map[string]model.CategoryScore)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var scores map[string]model.CategoryScore
		if err := json.Unmarshal(payload, &scores); err != nil {
			return nil, fmt.Errorf("unmarshal category scores: %w", err)
		}
		for cat, sc := range scores {
			agg := merged[cat]
			agg.Correct += sc.Correct
			agg.Total += sc.Total
			merged[cat] = agg
		}
	}
	return merged, rows.Err()
}

// WrongAnswerIDs returns the distinct question IDs the user has answered
// incorrectly, across their whole history. Feeds mistake-review sessions.
func (r *ResultRepository) WrongAnswerIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT unnest(wrong_answers)
		 FROM exam_results WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func unmarshalResultColumns(rec *model.ExamResultRecord, questions, answers, categoryScores []byte) error {
	if err := json.Unmarshal(questions, &rec.Questions); err != nil {
		return fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := json.Unmarshal(answers, &rec.Answers); err != nil {
		return fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(categoryScores, &rec.CategoryScores); err != nil {
		return fmt.Errorf("unmarshal category scores: %w", err)
	}
	return nil
}
