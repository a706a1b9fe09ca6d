// Package commit submits a reviewed selection, reports progress while the
// backend applies it and reconciles the result into a Summary.
package commit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"qbank-admin/pkg/progress"
	"qbank-admin/pkg/readcache"
	"qbank-admin/pkg/review"
	"qbank-admin/pkg/staging"
)

// ErrInFlight is returned when a commit is started while another one runs.
var ErrInFlight = errors.New("commit: another commit is in flight")

// UploadFunc receives transport progress in bytes.
type UploadFunc func(sent, total int64)

type QuestionCommitter interface {
	CommitQuestions(ctx context.Context, req staging.QuestionCommitRequest, saveCopy bool, onUpload UploadFunc) (*staging.QuestionCommitResult, error)
}

type AnswerCommitter interface {
	CommitAnswers(ctx context.Context, req staging.AnswerCommitRequest, onUpload UploadFunc) (*staging.AnswerCommitResult, error)
}

// Invalidator is the slice of the read cache the coordinator needs.
type Invalidator interface {
	Invalidate(pred readcache.Predicate) int
}

// sealable is what both review kinds expose to the coordinator.
type sealable interface {
	SubjectID() int64
	IncludedCount() int
	Seal() error
	Unseal()
	MarkExpired()
}

// Coordinator runs one commit at a time. The in-flight request is never
// aborted; Dismissible only reports whether the caller may close its view.
type Coordinator struct {
	questions QuestionCommitter
	answers   AnswerCommitter
	cache     Invalidator
	scheduler progress.Scheduler
	now       func() time.Time
	logger    *zap.Logger
	listeners []func(progress.Snapshot)

	mu       sync.Mutex
	inFlight bool
	tracker  *progress.Tracker
}

type Option func(*Coordinator)

func WithInvalidator(c Invalidator) Option {
	return func(co *Coordinator) { co.cache = c }
}

func WithScheduler(s progress.Scheduler) Option {
	return func(co *Coordinator) { co.scheduler = s }
}

func WithClock(now func() time.Time) Option {
	return func(co *Coordinator) { co.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// OnProgress subscribes fn to the tracker of every commit.
func OnProgress(fn func(progress.Snapshot)) Option {
	return func(co *Coordinator) { co.listeners = append(co.listeners, fn) }
}

func NewCoordinator(questions QuestionCommitter, answers AnswerCommitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		questions: questions,
		answers:   answers,
		scheduler: progress.NewTimerScheduler(0),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dismissible is false while a commit request is outstanding.
func (c *Coordinator) Dismissible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight
}

// Progress returns the state of the current or last commit.
func (c *Coordinator) Progress() progress.Snapshot {
	c.mu.Lock()
	t := c.tracker
	c.mu.Unlock()
	if t == nil {
		return progress.Snapshot{State: progress.StateIdle}
	}
	return t.Snapshot()
}

func (c *Coordinator) CommitQuestions(ctx context.Context, r *review.QuestionReview, saveCopy bool) (Summary, error) {
	var result *staging.QuestionCommitResult
	err := c.run(ctx, r, progress.QuestionRampDuration, func(ctx context.Context, onUpload UploadFunc) error {
		var err error
		result, err = c.questions.CommitQuestions(ctx, r.CommitRequest(), saveCopy, onUpload)
		return err
	})
	if err != nil {
		return Failure(staging.KindQuestionImport, err), err
	}
	s := ReconcileQuestions(*result)
	c.logger.Info("question commit reconciled",
		zap.String("sessionId", r.SessionID()),
		zap.Stringer("outcome", s.Outcome),
		zap.Int("success", s.Succeeded),
		zap.Int("total", s.Total))
	return s, nil
}

func (c *Coordinator) CommitAnswers(ctx context.Context, r *review.AnswerReview) (Summary, error) {
	var result *staging.AnswerCommitResult
	err := c.run(ctx, r, progress.AnswerRampDuration, func(ctx context.Context, onUpload UploadFunc) error {
		var err error
		result, err = c.answers.CommitAnswers(ctx, r.CommitRequest(), onUpload)
		return err
	})
	if err != nil {
		return Failure(staging.KindAnswerImport, err), err
	}
	s := ReconcileAnswers(*result)
	c.logger.Info("answer commit reconciled",
		zap.String("sessionId", r.SessionID()),
		zap.Stringer("outcome", s.Outcome),
		zap.Int("success", s.Succeeded),
		zap.Int("notFound", s.NotFound))
	return s, nil
}

func (c *Coordinator) run(ctx context.Context, r sealable, ramp time.Duration, call func(context.Context, UploadFunc) error) error {
	if r.IncludedCount() == 0 {
		return staging.NewValidationError("select at least one block before committing",
			staging.FieldError{Field: "blocks", Error: "no block is included"})
	}

	tracker, err := c.begin(ramp)
	if err != nil {
		return err
	}
	defer c.end()

	if err := r.Seal(); err != nil {
		return err
	}

	tracker.Start(c.now())
	progress.Drive(tracker, c.scheduler)

	if err := call(ctx, tracker.Upload); err != nil {
		tracker.Fail()
		if errors.Is(err, staging.ErrSessionExpired) {
			r.MarkExpired()
		} else {
			r.Unseal()
		}
		c.logger.Warn("commit failed", zap.Int64("subjectId", r.SubjectID()), zap.Error(err))
		return err
	}
	tracker.Complete()

	if c.cache != nil {
		n := c.cache.Invalidate(readcache.SubjectFragment(r.SubjectID()))
		c.logger.Debug("invalidated cached listings", zap.Int64("subjectId", r.SubjectID()), zap.Int("entries", n))
	}
	return nil
}

func (c *Coordinator) begin(ramp time.Duration) (*progress.Tracker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return nil, ErrInFlight
	}
	t := progress.NewTracker(ramp)
	for _, l := range c.listeners {
		t.Subscribe(l)
	}
	c.inFlight = true
	c.tracker = t
	return t, nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}
