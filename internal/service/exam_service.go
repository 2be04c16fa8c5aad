package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/exam"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/repository"
	"github.com/quantprep/backend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("exam session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")
)

// defaultPracticeCount is used when a practice request omits count.
const defaultPracticeCount = 10

// PremiumRequiredError reports an attempt to use a premium-gated feature
// from a free account.
type PremiumRequiredError struct {
	Feature model.Feature
}

func (e *PremiumRequiredError) Error() string {
	return fmt.Sprintf("feature %s requires a premium subscription", e.Feature)
}

// ExamService owns the live exam engines. Each active session is one engine
// in the registry; sessions not in memory are revived from their Redis
// checkpoint on first touch, which is how a session follows the user across
// restarts and instances.
type ExamService struct {
	cfg       *config.Config
	questions []model.Question
	sessions  *store.SessionStore
	sync      *SyncService
	log       zerolog.Logger

	mu      sync.Mutex
	engines map[string]*exam.Engine
}

// NewExamService creates an ExamService over an already loaded catalog.
func NewExamService(
	cfg *config.Config,
	questions []model.Question,
	sessions *store.SessionStore,
	syncSvc *SyncService,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		cfg:       cfg,
		questions: questions,
		sessions:  sessions,
		sync:      syncSvc,
		log:       log.With().Str("component", "exam_service").Logger(),
		engines:   make(map[string]*exam.Engine),
	}
}

// StartPractice builds an untimed practice session from the catalog. Hard
// difficulty and mistake review are premium features.
func (s *ExamService) StartPractice(ctx context.Context, user *model.User, req model.StartPracticeRequest) (*exam.Engine, error) {
	if req.Difficulty == string(model.DifficultyHard) || req.ReviewMistakes {
		if !model.CanAccess(user.Subscription, model.FeatureHardQuestions) {
			return nil, &PremiumRequiredError{Feature: model.FeatureHardQuestions}
		}
	}

	count := req.Count
	if count == 0 {
		count = defaultPracticeCount
	}

	pool := catalog.Filter(s.questions, catalog.Criteria{
		SubCategory: req.SubCategory,
		Difficulty:  model.Difficulty(req.Difficulty),
		Mode:        model.ModePractice,
	})

	if req.ReviewMistakes {
		pool = catalog.ByIDs(pool, s.sync.WrongAnswerIDs(ctx, user.ID))
	}

	questions, err := catalog.SampleExact(pool, count)
	if err != nil {
		return nil, err
	}

	return s.launch(ctx, exam.Options{
		SessionID:     uuid.New().String(),
		UserID:        user.ID,
		Mode:          model.SessionModePractice,
		Questions:     questions,
		ShowSolutions: true,
	})
}

// StartMock builds a timed mock exam with the configured question count and
// duration. Solutions stay hidden until submission.
func (s *ExamService) StartMock(ctx context.Context, user *model.User) (*exam.Engine, error) {
	if !model.CanAccess(user.Subscription, model.FeatureMockExam) {
		return nil, &PremiumRequiredError{Feature: model.FeatureMockExam}
	}

	pool := catalog.Filter(s.questions, catalog.Criteria{Mode: model.ModeMock})
	questions, err := catalog.SampleExact(pool, s.cfg.MockQuestionCount)
	if err != nil {
		return nil, err
	}

	return s.launch(ctx, exam.Options{
		SessionID: uuid.New().String(),
		UserID:    user.ID,
		Mode:      model.SessionModeMock,
		Questions: questions,
		Duration:  s.cfg.MockDuration,
	})
}

func (s *ExamService) launch(ctx context.Context, opts exam.Options) (*exam.Engine, error) {
	opts.AutosaveInterval = s.cfg.AutosaveInterval
	opts.Store = s.sessions
	opts.Sync = s.sync
	opts.Log = s.log

	e, err := exam.New(opts)
	if err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.engines[e.SessionID()] = e
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", e.SessionID()).
		Str("user_id", e.UserID().String()).
		Str("mode", string(e.Mode())).
		Int("questions", len(e.Questions())).
		Msg("Session started")
	return e, nil
}

// Engine returns the live engine for a session, reviving it from its
// checkpoint if the process restarted since the session began. A submitted
// session is never revived as live.
func (s *ExamService) Engine(ctx context.Context, userID uuid.UUID, sessionID string) (*exam.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engines[sessionID]; ok {
		if e.UserID() != userID {
			return nil, ErrNotSessionOwner
		}
		return e, nil
	}

	snap, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if snap.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	if snap.State == model.SessionSubmitted {
		return nil, exam.ErrSessionSubmitted
	}

	e, err := exam.Resume(snap, exam.Options{
		AutosaveInterval: s.cfg.AutosaveInterval,
		Store:            s.sessions,
		Sync:             s.sync,
		Log:              s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	s.engines[sessionID] = e
	s.log.Info().Str("session_id", sessionID).Msg("Session resumed from checkpoint")
	return e, nil
}

// SelectAnswer records the answer for the session's current question.
func (s *ExamService) SelectAnswer(ctx context.Context, userID uuid.UUID, sessionID, option string) (model.UserAnswer, error) {
	e, err := s.Engine(ctx, userID, sessionID)
	if err != nil {
		return model.UserAnswer{}, err
	}
	return e.SelectAnswer(option)
}

// ToggleFlag flips the review flag on the session's current question.
func (s *ExamService) ToggleFlag(ctx context.Context, userID uuid.UUID, sessionID string) (bool, error) {
	e, err := s.Engine(ctx, userID, sessionID)
	if err != nil {
		return false, err
	}
	return e.ToggleFlag()
}

// Navigate moves the current-question pointer and returns the new index.
func (s *ExamService) Navigate(ctx context.Context, userID uuid.UUID, sessionID string, req model.NavigateRequest) (int, error) {
	e, err := s.Engine(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}

	if req.Index != nil {
		if err := e.JumpTo(*req.Index); err != nil {
			return 0, err
		}
		return e.Index(), nil
	}

	delta := 1
	if req.Direction == "previous" {
		delta = -1
	}
	return e.Advance(delta), nil
}

// Submit finalizes the session and returns its results. Submitting an
// already submitted session returns the same results again.
func (s *ExamService) Submit(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResults, error) {
	e, err := s.Engine(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	results, err := e.Submit(ctx)
	if err != nil {
		return nil, err
	}

	// The finalized snapshot stays loadable; the live engine is done.
	s.mu.Lock()
	delete(s.engines, sessionID)
	s.mu.Unlock()
	e.Close()

	return results, nil
}

// State returns the session's current snapshot: live engine first, then the
// last checkpoint. Works for in-progress and submitted sessions alike.
func (s *ExamService) State(ctx context.Context, userID uuid.UUID, sessionID string) (*model.SessionSnapshot, error) {
	s.mu.Lock()
	e, live := s.engines[sessionID]
	s.mu.Unlock()

	if live {
		if e.UserID() != userID {
			return nil, ErrNotSessionOwner
		}
		return e.Snapshot(), nil
	}

	snap, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if snap.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return snap, nil
}

// Results returns the graded results for a submitted session. Resolution
// order: live engine, local checkpoint, then the durable mirror. A session
// that exists but has not been submitted yet reports not found.
func (s *ExamService) Results(ctx context.Context, userID uuid.UUID, sessionID string) (*model.ExamResults, error) {
	snap, err := s.State(ctx, userID, sessionID)
	if err == nil && snap.Results != nil {
		return snap.Results, nil
	}
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	rec, err := s.sync.ResultBySession(ctx, userID, sessionID)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mirrored result: %w", err)
	}
	return &model.ExamResults{
		TotalQuestions:      rec.TotalQuestions,
		CorrectAnswers:      rec.CorrectAnswers,
		IncorrectAnswers:    rec.TotalQuestions - rec.CorrectAnswers - unansweredCount(rec),
		UnansweredQuestions: unansweredCount(rec),
		Score:               rec.Score,
		TimeTaken:           rec.TimeTaken,
		Breakdown:           rec.CategoryScores,
	}, nil
}

func unansweredCount(rec *model.ExamResultRecord) int {
	answered := 0
	for _, a := range rec.Answers {
		if a.SelectedAnswer != "" {
			answered++
		}
	}
	return rec.TotalQuestions - answered
}

// CloseAll tears down every live engine. Called on shutdown after each
// engine has had its final checkpoint.
func (s *ExamService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.engines {
		e.Close()
		delete(s.engines, id)
	}
}
