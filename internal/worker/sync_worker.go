package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/repository"
	"github.com/quantprep/backend/internal/service"
)

// SyncWorker consumes the mirror queue and writes each submitted session to
// PostgreSQL, crediting points in the same transaction. Submission enqueues
// and moves on; this loop is the only writer to the durable mirror.
type SyncWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewSyncWorker creates a new SyncWorker.
func NewSyncWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "sync_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SyncWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.MirrorResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.mirror(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Mirror error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.MirrorResultsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SyncWorker) mirror(ctx context.Context, payload []byte) error {
	var snap model.SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		// A payload that cannot parse will never succeed; drop it loudly.
		w.log.Error().Err(err).Msg("Unparseable mirror payload dropped")
		return nil
	}
	if snap.Results == nil {
		w.log.Error().Str("session_id", snap.SessionID).Msg("Mirror payload has no results, dropped")
		return nil
	}

	rec := buildRecord(&snap)
	points := service.PointsEarned(rec.Score, snap.Mode)

	if err := w.resultRepo.Record(ctx, rec, points); err != nil {
		return err
	}

	w.log.Info().
		Str("session_id", rec.SessionID).
		Str("user_id", rec.UserID.String()).
		Float64("score", rec.Score).
		Int("points", points).
		Msg("Session mirrored")
	return nil
}

// buildRecord flattens a finalized snapshot into its durable mirror row.
func buildRecord(snap *model.SessionSnapshot) *model.ExamResultRecord {
	var answers []model.UserAnswer
	if snap.Answers != nil {
		answers = snap.Answers.Entries()
	}

	wrong := []string{}
	for _, a := range answers {
		if a.SelectedAnswer != "" && !a.IsCorrect {
			wrong = append(wrong, a.QuestionID)
		}
	}

	return &model.ExamResultRecord{
		UserID:         snap.UserID,
		SessionID:      snap.SessionID,
		Mode:           snap.Mode,
		Questions:      snap.Questions,
		Answers:        answers,
		WrongAnswers:   wrong,
		CategoryScores: snap.Results.Breakdown,
		TotalQuestions: snap.Results.TotalQuestions,
		CorrectAnswers: snap.Results.CorrectAnswers,
		Score:          snap.Results.Score,
		TimeTaken:      snap.Results.TimeTaken,
		CompletedAt:    time.Now(),
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *SyncWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.MirrorResultsQueue).Result()
		if err != nil {
			break
		}

		if err := w.mirror(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain mirror error")
			w.rdb.RPush(ctx, config.WorkerKey.MirrorResultsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
