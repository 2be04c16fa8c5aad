// Package exam implements the test-taking core: the per-session state
// machine driving question presentation, answer capture, flagging,
// navigation and timing, plus the pure scoring reduction.
package exam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantprep/backend/internal/model"
	"github.com/rs/zerolog"
)

// Engine state errors. Bad transitions are programming errors on the caller
// side and are rejected loudly, never silently ignored.
var (
	ErrNoQuestions      = errors.New("exam requires at least one question")
	ErrSessionSubmitted = errors.New("exam session is already submitted")
	ErrNotStarted       = errors.New("exam session has not started")
	ErrInvalidOption    = errors.New("selected option is not one of A-E")
	ErrIndexOutOfRange  = errors.New("question index out of range")
)

// SnapshotSaver persists session checkpoints. Implemented by the Redis
// session store.
type SnapshotSaver interface {
	Save(ctx context.Context, snap *model.SessionSnapshot) error
}

// Mirror receives the finalized session for best-effort remote replication.
// Enqueue must be cheap; delivery happens out of band and its failure can
// never reach back into a submitted engine.
type Mirror interface {
	Enqueue(ctx context.Context, snap *model.SessionSnapshot) error
}

// Options configures a new engine. Questions is frozen at construction:
// its order defines navigation order for the life of the session.
type Options struct {
	SessionID string
	UserID    uuid.UUID
	Mode      model.SessionMode
	Questions []model.Question
	// Duration is the mock-mode countdown; zero means untimed.
	Duration time.Duration
	// ShowSolutions reveals a question's solution immediately after it is
	// answered (practice mode). Mock mode withholds until submission.
	ShowSolutions bool
	// AutosaveInterval is the checkpoint cadence while in progress. Zero
	// or negative falls back to defaultAutosaveInterval.
	AutosaveInterval time.Duration
	Store            SnapshotSaver
	Sync             Mirror
	Log              zerolog.Logger
}

// defaultAutosaveInterval applies when Options leaves the cadence unset, so
// a zero-valued interval never produces a ticker panic.
const defaultAutosaveInterval = 30 * time.Second

// Engine is the single owner of one session's live state. All mutating
// operations serialize on the internal mutex; timers and HTTP handlers are
// the only callers and never hold the lock across I/O to the mirror queue.
type Engine struct {
	mu sync.Mutex

	sessionID string
	userID    uuid.UUID
	mode      model.SessionMode
	questions []model.Question

	state     model.SessionState
	answers   *model.AnswerSet
	index     int
	startTime time.Time
	duration  int // seconds; 0 = untimed
	remaining int

	showSolutions bool
	results       *model.ExamResults
	timeTaken     int

	autosaveEvery time.Duration
	store         SnapshotSaver
	sync          Mirror
	log           zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// New creates an engine in the NotStarted state.
func New(opts Options) (*Engine, error) {
	if len(opts.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if opts.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = defaultAutosaveInterval
	}

	e := &Engine{
		sessionID:     opts.SessionID,
		userID:        opts.UserID,
		mode:          opts.Mode,
		questions:     opts.Questions,
		state:         model.SessionNotStarted,
		answers:       model.NewAnswerSet(),
		duration:      int(opts.Duration.Seconds()),
		remaining:     int(opts.Duration.Seconds()),
		showSolutions: opts.ShowSolutions,
		autosaveEvery: opts.AutosaveInterval,
		store:         opts.Store,
		sync:          opts.Sync,
		log: opts.Log.With().
			Str("component", "exam_engine").
			Str("session_id", opts.SessionID).
			Logger(),
		done: make(chan struct{}),
		now:  time.Now,
	}
	return e, nil
}

// Resume reconstructs an engine from a checkpoint snapshot. The answer set
// and question sequence come back exactly as saved; for a timed session the
// remaining countdown is recomputed from the original start time.
func Resume(snap *model.SessionSnapshot, opts Options) (*Engine, error) {
	e, err := New(Options{
		SessionID:        snap.SessionID,
		UserID:           snap.UserID,
		Mode:             snap.Mode,
		Questions:        snap.Questions,
		Duration:         time.Duration(snap.DurationSeconds) * time.Second,
		ShowSolutions:    snap.ShowSolutions,
		AutosaveInterval: opts.AutosaveInterval,
		Store:            opts.Store,
		Sync:             opts.Sync,
		Log:              opts.Log,
	})
	if err != nil {
		return nil, err
	}

	e.state = snap.State
	e.startTime = snap.StartTime
	e.index = clamp(snap.Index, 0, len(snap.Questions)-1)
	if snap.Answers != nil {
		e.answers = snap.Answers
	}
	e.results = snap.Results
	e.timeTaken = snap.TimeTaken

	if snap.DurationSeconds > 0 && snap.State == model.SessionInProgress {
		elapsed := int(e.now().Sub(snap.StartTime).Seconds())
		e.remaining = snap.DurationSeconds - elapsed
		if e.remaining < 0 {
			e.remaining = 0
		}
	}
	return e, nil
}

// Start transitions to InProgress and launches the engine's two timed
// behaviors: the one-second countdown (timed sessions only) and the
// periodic autosave. Both stop together when the engine is torn down or
// reaches Submitted.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case model.SessionSubmitted:
		e.mu.Unlock()
		return ErrSessionSubmitted
	case model.SessionNotStarted:
		e.state = model.SessionInProgress
		e.startTime = e.now()
	}
	e.mu.Unlock()

	go e.run(ctx)
	return nil
}

func (e *Engine) run(ctx context.Context) {
	autosave := time.NewTicker(e.autosaveEvery)
	defer autosave.Stop()

	var countdown <-chan time.Time
	if e.duration > 0 {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		countdown = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-countdown:
			e.Tick()
		case <-autosave.C:
			e.checkpoint(ctx)
		}
	}
}

// Close tears the engine down: timers stop, no further mutation happens.
// The last checkpoint stays loadable; an abandoned session has no
// obligation to reach Submitted.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

// SelectAnswer records or overwrites the answer for the current question.
// Correctness is computed against the question at the current index right
// now, so pointer movement between calls can never grade against a stale
// question. An existing flag on the question is preserved.
func (e *Engine) SelectAnswer(option string) (model.UserAnswer, error) {
	if !model.ValidOptionKey(option) {
		return model.UserAnswer{}, fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInProgress(); err != nil {
		return model.UserAnswer{}, err
	}

	q := e.questions[e.index]
	answer := model.UserAnswer{
		QuestionID:     q.ID,
		SelectedAnswer: option,
		IsCorrect:      option == q.CorrectAnswer,
		TimeTaken:      int(e.now().Sub(e.startTime).Seconds()),
	}
	if prev, ok := e.answers.Get(q.ID); ok {
		answer.IsFlagged = prev.IsFlagged
	}
	e.answers.Put(answer)

	return answer, nil
}

// ToggleFlag flips the flag on the current question, creating an unanswered
// stub when the question has no UserAnswer yet. Flagging never alters the
// selection or its correctness.
func (e *Engine) ToggleFlag() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInProgress(); err != nil {
		return false, err
	}

	q := e.questions[e.index]
	if a, ok := e.answers.Get(q.ID); ok {
		a.IsFlagged = !a.IsFlagged
		e.answers.Put(a)
		return a.IsFlagged, nil
	}

	e.answers.Put(model.UserAnswer{
		QuestionID: q.ID,
		IsFlagged:  true,
	})
	return true, nil
}

// Advance moves the pointer by delta, clamped to [0, len-1]. Moving past
// either boundary is a no-op, never a wraparound.
func (e *Engine) Advance(delta int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index = clamp(e.index+delta, 0, len(e.questions)-1)
	return e.index
}

// JumpTo sets the pointer to any in-range index; navigation is free, not
// linear-only.
func (e *Engine) JumpTo(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.questions) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(e.questions))
	}
	e.index = index
	return nil
}

// Tick decrements the countdown by one second. Reaching zero forces exactly
// one submission; repeated zero-ticks are no-ops. Untimed sessions ignore
// ticks.
func (e *Engine) Tick() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.duration == 0 || e.state != model.SessionInProgress {
		return e.remaining
	}

	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining == 0 {
		if _, err := e.submitLocked(context.Background()); err != nil {
			e.log.Error().Err(err).Msg("Timeout auto-submit failed")
		}
	}
	return e.remaining
}

// Submit finalizes the session: scores it, persists the finalized snapshot
// synchronously so the results view renders immediately, and hands the
// session to the mirror queue. Idempotent: a second call returns the same
// results with no repeated side effects.
func (e *Engine) Submit(ctx context.Context) (*model.ExamResults, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(ctx)
}

func (e *Engine) submitLocked(ctx context.Context) (*model.ExamResults, error) {
	switch e.state {
	case model.SessionSubmitted:
		return e.results, nil
	case model.SessionNotStarted:
		return nil, ErrNotStarted
	}

	e.timeTaken = int(e.now().Sub(e.startTime).Seconds())
	results := Score(e.questions, e.answers)
	results.TimeTaken = e.timeTaken

	e.state = model.SessionSubmitted
	e.results = &results

	snap := e.snapshotLocked()
	if err := e.store.Save(ctx, snap); err != nil {
		// One immediate retry; past that the in-memory engine still serves
		// the results view and the mirror carries the durable copy.
		if err2 := e.store.Save(ctx, snap); err2 != nil {
			e.log.Error().Err(err2).Msg("Finalized snapshot save failed")
		}
	}

	if e.sync != nil {
		if err := e.sync.Enqueue(ctx, snap); err != nil {
			e.log.Warn().Err(err).Msg("Result mirror enqueue failed, local record kept")
		}
	}

	e.closeOnce.Do(func() { close(e.done) })

	e.log.Info().
		Float64("score", results.Score).
		Int("answered", results.CorrectAnswers+results.IncorrectAnswers).
		Msg("Session submitted")

	return e.results, nil
}

// checkpoint writes the in-progress snapshot. Failures are logged and
// retried on the next interval; the in-memory session is never affected.
func (e *Engine) checkpoint(ctx context.Context) {
	e.mu.Lock()
	if e.state != model.SessionInProgress {
		e.mu.Unlock()
		return
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.store.Save(ctx, snap); err != nil {
		e.log.Warn().Err(err).Msg("Autosave failed, will retry next interval")
	}
}

// Snapshot returns the current durable form of the session.
func (e *Engine) Snapshot() *model.SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *model.SessionSnapshot {
	answers := model.NewAnswerSet()
	for _, a := range e.answers.Entries() {
		answers.Put(a)
	}
	return &model.SessionSnapshot{
		SessionID:       e.sessionID,
		UserID:          e.userID,
		Mode:            e.mode,
		State:           e.state,
		Questions:       e.questions,
		Answers:         answers,
		Index:           e.index,
		StartTime:       e.startTime,
		DurationSeconds: e.duration,
		ShowSolutions:   e.showSolutions,
		Results:         e.results,
		TimeTaken:       e.timeTaken,
	}
}

func (e *Engine) requireInProgress() error {
	switch e.state {
	case model.SessionSubmitted:
		return ErrSessionSubmitted
	case model.SessionNotStarted:
		return ErrNotStarted
	}
	return nil
}

// SessionID returns the session's identifier.
func (e *Engine) SessionID() string { return e.sessionID }

// UserID returns the owning user.
func (e *Engine) UserID() uuid.UUID { return e.userID }

// Mode returns the session mode.
func (e *Engine) Mode() model.SessionMode { return e.mode }

// State returns the current lifecycle state.
func (e *Engine) State() model.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Index returns the current-question pointer.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Remaining returns the countdown seconds left; 0 for untimed sessions.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Results returns the graded results once Submitted, nil before.
func (e *Engine) Results() *model.ExamResults {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// CurrentQuestion returns the question at the pointer.
func (e *Engine) CurrentQuestion() model.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions[e.index]
}

// Questions returns the frozen question sequence.
func (e *Engine) Questions() []model.Question { return e.questions }

// Answers returns the recorded answers in insertion order.
func (e *Engine) Answers() []model.UserAnswer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Entries()
}

// SolutionRevealed reports whether a question's solution is visible to the
// client right now: always after submission, and once answered when the
// session reveals solutions immediately.
func (e *Engine) SolutionRevealed(questionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == model.SessionSubmitted {
		return true
	}
	if !e.showSolutions {
		return false
	}
	a, ok := e.answers.Get(questionID)
	return ok && a.SelectedAnswer != ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
