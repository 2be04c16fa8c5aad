package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/model"
)

// ResultReader is the read side of the durable result mirror.
type ResultReader interface {
	History(ctx context.Context, userID uuid.UUID, limit int) ([]model.ExamResultRecord, error)
	BySession(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResultRecord, error)
	Summary(ctx context.Context, userID uuid.UUID) (*model.StatsSummary, error)
	CategoryPerformance(ctx context.Context, userID uuid.UUID) (map[string]model.CategoryScore, error)
	WrongAnswerIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// SyncService bridges in-memory sessions and the durable result mirror.
// Writes go through a Redis queue drained by the sync worker, so submission
// never blocks on PostgreSQL. Aggregate reads fail closed: when the mirror
// is unreachable they log the error and return an empty or zero-valued
// payload, never a failure the dashboard would surface.
type SyncService struct {
	rdb     *redis.Client
	results ResultReader
	log     zerolog.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(rdb *redis.Client, results ResultReader, log zerolog.Logger) *SyncService {
	return &SyncService{
		rdb:     rdb,
		results: results,
		log:     log.With().Str("component", "sync_service").Logger(),
	}
}

// Enqueue pushes a submitted session onto the mirror queue.
func (s *SyncService) Enqueue(ctx context.Context, snap *model.SessionSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.MirrorResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// History returns the user's mirrored results, newest first, or an empty
// slice when the mirror cannot be read.
func (s *SyncService) History(ctx context.Context, userID uuid.UUID, limit int) []model.ExamResultRecord {
	history, err := s.results.History(ctx, userID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("history read failed")
		return []model.ExamResultRecord{}
	}
	if history == nil {
		history = []model.ExamResultRecord{}
	}
	return history
}

// ResultBySession returns one mirrored result, scoped to its owner.
func (s *SyncService) ResultBySession(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResultRecord, error) {
	return s.results.BySession(ctx, userID, sessionID)
}

// Summary aggregates the user's lifetime stats, or a zero summary when the
// mirror cannot be read.
func (s *SyncService) Summary(ctx context.Context, userID uuid.UUID) *model.StatsSummary {
	summary, err := s.results.Summary(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("summary read failed")
		return &model.StatsSummary{}
	}
	return summary
}

// CategoryPerformance merges per-subcategory accuracy across history, or an
// empty map when the mirror cannot be read.
func (s *SyncService) CategoryPerformance(ctx context.Context, userID uuid.UUID) map[string]model.CategoryScore {
	perf, err := s.results.CategoryPerformance(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("category read failed")
		return map[string]model.CategoryScore{}
	}
	if perf == nil {
		perf = map[string]model.CategoryScore{}
	}
	return perf
}

// WeakAreas lists subcategories whose accuracy falls below threshold,
// weakest first. Subcategories with fewer than minAttempts attempts are
// skipped so one unlucky question doesn't brand a topic weak.
func (s *SyncService) WeakAreas(ctx context.Context, userID uuid.UUID, threshold float64, minAttempts int) []model.WeakArea {
	perf := s.CategoryPerformance(ctx, userID)

	var weak []model.WeakArea
	for cat, score := range perf {
		if score.Total < minAttempts {
			continue
		}
		accuracy := float64(score.Correct) / float64(score.Total) * 100
		if accuracy < threshold {
			weak = append(weak, model.WeakArea{
				Category:           cat,
				Accuracy:           accuracy,
				QuestionsAttempted: score.Total,
			})
		}
	}
	sort.Slice(weak, func(i, j int) bool { return weak[i].Accuracy < weak[j].Accuracy })
	if weak == nil {
		weak = []model.WeakArea{}
	}
	return weak
}

// WrongAnswerIDs returns distinct question IDs the user got wrong, or an
// empty slice when the mirror cannot be read.
func (s *SyncService) WrongAnswerIDs(ctx context.Context, userID uuid.UUID) []string {
	ids, err := s.results.WrongAnswerIDs(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("wrong answers read failed")
		return []string{}
	}
	return ids
}
