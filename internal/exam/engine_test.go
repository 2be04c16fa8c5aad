package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantprep/backend/internal/model"
	"github.com/rs/zerolog"
)

// memStore is an in-memory SnapshotSaver that counts saves.
type memStore struct {
	mu    sync.Mutex
	saves int
	last  *model.SessionSnapshot
	fail  bool
}

func (m *memStore) Save(_ context.Context, snap *model.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	m.saves++
	m.last = snap
	return nil
}

// memMirror records enqueued snapshots.
type memMirror struct {
	mu       sync.Mutex
	enqueued int
	fail     bool
}

func (m *memMirror) Enqueue(_ context.Context, _ *model.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("queue unavailable")
	}
	m.enqueued++
	return nil
}

func testQuestions(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:            string(rune('a' + i)),
			SubCategory:   "Algebra",
			CorrectAnswer: "A",
			Mode:          model.ModePractice,
		}
	}
	return out
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *memStore, *memMirror) {
	t.Helper()
	store := &memStore{}
	mirror := &memMirror{}
	if opts.SessionID == "" {
		opts.SessionID = "sess-1"
	}
	if opts.Questions == nil {
		opts.Questions = testQuestions(3)
	}
	if opts.Mode == "" {
		opts.Mode = model.SessionModePractice
	}
	if opts.AutosaveInterval == 0 {
		opts.AutosaveInterval = time.Hour // keep timers quiet in tests
	}
	if opts.UserID == uuid.Nil {
		opts.UserID = uuid.New()
	}
	opts.Store = store
	opts.Sync = mirror
	opts.Log = zerolog.Nop()

	e, err := New(opts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(e.Close)
	return e, store, mirror
}

func TestNewRejectsEmptySequence(t *testing.T) {
	_, err := New(Options{SessionID: "s", Questions: nil})
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestNewDefaultsAutosaveInterval(t *testing.T) {
	e, err := New(Options{
		SessionID: "sess-default",
		UserID:    uuid.New(),
		Mode:      model.SessionModePractice,
		Questions: testQuestions(2),
		Store:     &memStore{},
		Sync:      &memMirror{},
		Log:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.autosaveEvery != defaultAutosaveInterval {
		t.Fatalf("autosaveEvery = %v, want %v", e.autosaveEvery, defaultAutosaveInterval)
	}

	// Starting the timer goroutine must not panic on the defaulted cadence.
	e.Start(context.Background())
	e.Close()
}

func TestNavigationClamping(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{Questions: testQuestions(3)})

	if got := e.Advance(-1); got != 0 {
		t.Errorf("backward at 0 should clamp to 0, got %d", got)
	}
	if got := e.Advance(1); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := e.Advance(1); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := e.Advance(1); got != 2 {
		t.Errorf("forward at last index should clamp to 2, got %d", got)
	}

	if err := e.JumpTo(0); err != nil {
		t.Errorf("jump to 0: %v", err)
	}
	if err := e.JumpTo(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := e.JumpTo(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if e.Index() != 0 {
		t.Errorf("failed jumps must not move pointer, at %d", e.Index())
	}
}

func TestSelectAnswerGradesAgainstCurrentQuestion(t *testing.T) {
	qs := testQuestions(2)
	qs[1].CorrectAnswer = "B"
	e, _, _ := newTestEngine(t, Options{Questions: qs})

	a, err := e.SelectAnswer("A")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !a.IsCorrect || a.QuestionID != qs[0].ID {
		t.Errorf("expected correct answer for q0, got %+v", a)
	}

	e.Advance(1)
	a, err = e.SelectAnswer("A")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if a.IsCorrect || a.QuestionID != qs[1].ID {
		t.Errorf("A is wrong for q1 (correct B), got %+v", a)
	}

	// Overwrite on the same question.
	a, err = e.SelectAnswer("B")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !a.IsCorrect {
		t.Errorf("overwrite with correct key should grade correct, got %+v", a)
	}
	if len(e.Answers()) != 2 {
		t.Errorf("overwrite must not add entries, have %d", len(e.Answers()))
	}

	if _, err := e.SelectAnswer("F"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
}

func TestFlagAndAnswerIndependence(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})

	flagged, err := e.ToggleFlag()
	if err != nil || !flagged {
		t.Fatalf("first toggle should flag: %v %v", flagged, err)
	}
	answers := e.Answers()
	if len(answers) != 1 || answers[0].SelectedAnswer != "" || answers[0].IsCorrect {
		t.Fatalf("flag stub malformed: %+v", answers[0])
	}

	// Answering must preserve the flag.
	a, err := e.SelectAnswer("A")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !a.IsFlagged {
		t.Error("answering cleared an existing flag")
	}
	if !a.IsCorrect {
		t.Error("answer correctness lost")
	}

	// Unflagging must preserve the answer.
	flagged, err = e.ToggleFlag()
	if err != nil || flagged {
		t.Fatalf("second toggle should unflag: %v %v", flagged, err)
	}
	got := e.Answers()[0]
	if got.SelectedAnswer != "A" || !got.IsCorrect {
		t.Errorf("unflagging altered the answer: %+v", got)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	e, store, mirror := newTestEngine(t, Options{})

	if _, err := e.SelectAnswer("A"); err != nil {
		t.Fatalf("select: %v", err)
	}

	r1, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	r2, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if r1 != r2 {
		t.Error("second submit should return the same results")
	}

	if store.saves != 1 {
		t.Errorf("expected exactly one finalized save, got %d", store.saves)
	}
	if mirror.enqueued != 1 {
		t.Errorf("expected exactly one mirror enqueue, got %d", mirror.enqueued)
	}
	if e.State() != model.SessionSubmitted {
		t.Errorf("expected Submitted, got %s", e.State())
	}
}

func TestOperationsRejectedAfterSubmit(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{})
	if _, err := e.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := e.SelectAnswer("A"); !errors.Is(err, ErrSessionSubmitted) {
		t.Errorf("select after submit: expected ErrSessionSubmitted, got %v", err)
	}
	if _, err := e.ToggleFlag(); !errors.Is(err, ErrSessionSubmitted) {
		t.Errorf("flag after submit: expected ErrSessionSubmitted, got %v", err)
	}
}

func TestMirrorFailureDoesNotBlockSubmit(t *testing.T) {
	store := &memStore{}
	mirror := &memMirror{fail: true}
	e, err := New(Options{
		SessionID:        "sess-m",
		UserID:           uuid.New(),
		Mode:             model.SessionModePractice,
		Questions:        testQuestions(2),
		AutosaveInterval: time.Hour,
		Store:            store,
		Sync:             mirror,
		Log:              zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Close()

	results, err := e.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit must not fail on mirror error: %v", err)
	}
	if results == nil || e.State() != model.SessionSubmitted {
		t.Error("local submission must complete despite mirror failure")
	}
	if store.saves != 1 {
		t.Errorf("local snapshot must still be saved, got %d saves", store.saves)
	}
}

func TestCountdownAutoSubmitsExactlyOnce(t *testing.T) {
	qs := testQuestions(10)
	store := &memStore{}
	mirror := &memMirror{}
	e, err := New(Options{
		SessionID:        "sess-t",
		UserID:           uuid.New(),
		Mode:             model.SessionModeMock,
		Questions:        qs,
		Duration:         900 * time.Second,
		AutosaveInterval: time.Hour,
		Store:            store,
		Sync:             mirror,
		Log:              zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Close()

	// Answer 2 of 10 questions.
	if _, err := e.SelectAnswer("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	e.Advance(1)
	if _, err := e.SelectAnswer("B"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Run the clock out, then past zero.
	for i := 0; i < 905; i++ {
		e.Tick()
	}

	if e.State() != model.SessionSubmitted {
		t.Fatal("countdown at zero must force submission")
	}
	if store.saves != 1 || mirror.enqueued != 1 {
		t.Errorf("repeated zero-ticks must not duplicate side effects: saves=%d enqueues=%d", store.saves, mirror.enqueued)
	}

	r := e.Results()
	if r == nil {
		t.Fatal("no results after auto-submit")
	}
	if r.TotalQuestions != 10 || r.UnansweredQuestions != 8 {
		t.Errorf("expected 8 of 10 unanswered, got %+v", r)
	}
	if r.CorrectAnswers != 1 || r.IncorrectAnswers != 1 {
		t.Errorf("expected 1 correct 1 incorrect, got %+v", r)
	}
}

func TestResumeRestoresAnswerState(t *testing.T) {
	e, _, _ := newTestEngine(t, Options{Questions: testQuestions(3)})

	if _, err := e.SelectAnswer("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	e.Advance(1)
	if _, err := e.ToggleFlag(); err != nil {
		t.Fatalf("flag: %v", err)
	}
	e.Advance(1)

	snap := e.Snapshot()
	e.Close() // simulate crash/tab close

	restored, err := Resume(snap, Options{
		AutosaveInterval: time.Hour,
		Store:            &memStore{},
		Sync:             &memMirror{},
		Log:              zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer restored.Close()

	if restored.State() != model.SessionInProgress {
		t.Errorf("expected InProgress, got %s", restored.State())
	}
	answers := restored.Answers()
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers after resume, got %d", len(answers))
	}
	if answers[0].SelectedAnswer != "A" || !answers[0].IsCorrect {
		t.Errorf("answer lost on resume: %+v", answers[0])
	}
	if !answers[1].IsFlagged || answers[1].SelectedAnswer != "" {
		t.Errorf("flag stub lost on resume: %+v", answers[1])
	}
	if restored.Index() != 2 {
		t.Errorf("pointer not restored, at %d", restored.Index())
	}
}

func TestResumeRecomputesMockCountdown(t *testing.T) {
	snap := &model.SessionSnapshot{
		SessionID:       "sess-r",
		UserID:          uuid.New(),
		Mode:            model.SessionModeMock,
		State:           model.SessionInProgress,
		Questions:       testQuestions(5),
		Answers:         model.NewAnswerSet(),
		StartTime:       time.Now().Add(-10 * time.Minute),
		DurationSeconds: 900,
	}

	restored, err := Resume(snap, Options{
		AutosaveInterval: time.Hour,
		Store:            &memStore{},
		Sync:             &memMirror{},
		Log:              zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer restored.Close()

	remaining := restored.Remaining()
	if remaining > 300 || remaining < 295 {
		t.Errorf("expected ~300s remaining after 600s elapsed, got %d", remaining)
	}
}

func TestSolutionRevealedOnlyWhenConfigured(t *testing.T) {
	// Practice: solutions revealed once answered.
	practice, _, _ := newTestEngine(t, Options{ShowSolutions: true})
	qid := practice.CurrentQuestion().ID
	if practice.SolutionRevealed(qid) {
		t.Error("solution visible before answering")
	}
	if _, err := practice.SelectAnswer("B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !practice.SolutionRevealed(qid) {
		t.Error("practice mode should reveal after answering")
	}

	// Mock: withheld until submission.
	mock, _, _ := newTestEngine(t, Options{SessionID: "sess-2", Mode: model.SessionModeMock})
	qid = mock.CurrentQuestion().ID
	if _, err := mock.SelectAnswer("B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if mock.SolutionRevealed(qid) {
		t.Error("mock mode must withhold solutions until submission")
	}
	if _, err := mock.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !mock.SolutionRevealed(qid) {
		t.Error("solutions must be visible after submission")
	}
}

func TestAutosaveFailureIsRetriedNextInterval(t *testing.T) {
	store := &memStore{fail: true}
	e, err := New(Options{
		SessionID:        "sess-a",
		UserID:           uuid.New(),
		Mode:             model.SessionModePractice,
		Questions:        testQuestions(2),
		AutosaveInterval: time.Hour,
		Store:            store,
		Sync:             &memMirror{},
		Log:              zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Close()

	e.checkpoint(context.Background())
	if e.State() != model.SessionInProgress {
		t.Error("autosave failure must not affect the in-memory session")
	}

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()

	e.checkpoint(context.Background())
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.saves != 1 {
		t.Errorf("expected the retry to save once, got %d", store.saves)
	}
}
