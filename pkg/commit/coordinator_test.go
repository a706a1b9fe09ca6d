package commit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank-admin/pkg/progress"
	"qbank-admin/pkg/readcache"
	"qbank-admin/pkg/review"
	"qbank-admin/pkg/staging"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeBackend struct {
	calls       int
	questionReq staging.QuestionCommitRequest
	answerReq   staging.AnswerCommitRequest
	saveCopy    bool
	during      func(onUpload UploadFunc)
	qResult     *staging.QuestionCommitResult
	aResult     *staging.AnswerCommitResult
	err         error
}

func (f *fakeBackend) CommitQuestions(_ context.Context, req staging.QuestionCommitRequest, saveCopy bool, onUpload UploadFunc) (*staging.QuestionCommitResult, error) {
	f.calls++
	f.questionReq = req
	f.saveCopy = saveCopy
	if f.during != nil {
		f.during(onUpload)
	}
	return f.qResult, f.err
}

func (f *fakeBackend) CommitAnswers(_ context.Context, req staging.AnswerCommitRequest, onUpload UploadFunc) (*staging.AnswerCommitResult, error) {
	f.calls++
	f.answerReq = req
	if f.during != nil {
		f.during(onUpload)
	}
	return f.aResult, f.err
}

type fakeCache struct {
	keys    []string
	evicted []string
}

func (c *fakeCache) Invalidate(pred readcache.Predicate) int {
	var kept []string
	for _, k := range c.keys {
		if pred(k) {
			c.evicted = append(c.evicted, k)
		} else {
			kept = append(kept, k)
		}
	}
	c.keys = kept
	return len(c.evicted)
}

func questionReview() *review.QuestionReview {
	return review.NewQuestionReview(&staging.QuestionSession{
		SessionID:   "sess-1",
		SubjectID:   7,
		TotalBlocks: 2,
		Blocks: []*staging.QuestionBlock{
			{Index: 0, QuestionType: staging.QuestionTypeEssay, Content: "first"},
			{Index: 1, QuestionType: staging.QuestionTypeEssay, Content: "second"},
		},
	})
}

func newCoordinator(b *fakeBackend, opts ...Option) (*Coordinator, *progress.ManualScheduler) {
	sched := &progress.ManualScheduler{}
	opts = append([]Option{WithScheduler(sched), WithClock(func() time.Time { return t0 })}, opts...)
	return NewCoordinator(b, b, opts...), sched
}

func TestCommitRefusesEmptySelection(t *testing.T) {
	b := &fakeBackend{}
	c, _ := newCoordinator(b)
	r := questionReview()
	require.NoError(t, r.SelectAll(review.ScopeNone))

	s, err := c.CommitQuestions(context.Background(), r, false)
	assert.ErrorIs(t, err, staging.ErrValidation)
	assert.Equal(t, OutcomeFailed, s.Outcome)
	assert.Equal(t, 0, b.calls)
	assert.True(t, c.Dismissible())
	assert.Equal(t, progress.StateIdle, c.Progress().State)

	_, err = r.ToggleInclude(0)
	assert.NoError(t, err, "review must stay editable")
}

func TestCommitQuestionsSuccess(t *testing.T) {
	cache := &fakeCache{keys: []string{
		`{"epoch":0,"page":1,"size":20,"subjectId":7}`,
		`{"epoch":0,"page":2,"size":20,"subjectId":7}`,
		`{"epoch":0,"page":1,"size":20,"subjectId":70}`,
	}}
	var seen []progress.Snapshot
	b := &fakeBackend{qResult: &staging.QuestionCommitResult{Total: 1, Success: 1}}
	c, _ := newCoordinator(b, WithInvalidator(cache), OnProgress(func(s progress.Snapshot) { seen = append(seen, s) }))

	b.during = func(onUpload UploadFunc) {
		assert.False(t, c.Dismissible())
		onUpload(50, 100)
		assert.InDelta(t, 15.0, c.Progress().Percent, 1e-9)
	}

	r := questionReview()
	_, _ = r.ToggleInclude(1)
	s, err := c.CommitQuestions(context.Background(), r, true)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, s.Outcome)
	assert.Equal(t, "Imported 1 of 1 questions.", s.Message)
	assert.True(t, b.saveCopy)
	require.Len(t, b.questionReq.Blocks, 2)
	assert.True(t, b.questionReq.Blocks[0].Include)
	assert.False(t, b.questionReq.Blocks[1].Include)

	assert.True(t, c.Dismissible())
	assert.Equal(t, progress.Snapshot{State: progress.StateCompleted, Percent: 100}, c.Progress())
	require.NotEmpty(t, seen)
	assert.Equal(t, 100.0, seen[len(seen)-1].Percent)

	assert.Equal(t, []string{`{"epoch":0,"page":1,"size":20,"subjectId":70}`}, cache.keys)

	_, err = r.ToggleInclude(0)
	assert.ErrorIs(t, err, review.ErrSealed, "a consumed session cannot be edited")
}

func TestCommitTransportFailureKeepsEdits(t *testing.T) {
	cache := &fakeCache{keys: []string{`{"subjectId":7}`}}
	b := &fakeBackend{err: &staging.RemoteError{Kind: staging.ErrTransport, Status: 502, Message: "bad gateway"}}
	c, _ := newCoordinator(b, WithInvalidator(cache))
	r := questionReview()
	require.NoError(t, r.EditField(0, review.FieldContent, "edited"))

	s, err := c.CommitQuestions(context.Background(), r, false)
	require.ErrorIs(t, err, staging.ErrTransport)
	assert.Equal(t, OutcomeFailed, s.Outcome)
	assert.Contains(t, s.Message, "bad gateway")

	snap := c.Progress()
	assert.Equal(t, progress.StateFailed, snap.State)
	assert.False(t, snap.Known())
	assert.True(t, c.Dismissible())
	assert.Len(t, cache.keys, 1)

	blk, _ := r.Block(0)
	assert.Equal(t, "edited", blk.Content)
	assert.False(t, r.Expired())
	assert.NoError(t, r.EditField(0, review.FieldContent, "again"))
}

func TestCommitSessionExpiredForcesReupload(t *testing.T) {
	b := &fakeBackend{err: &staging.RemoteError{Kind: staging.ErrSessionExpired, Status: 410, Message: "session expired"}}
	c, _ := newCoordinator(b)
	r := questionReview()

	_, err := c.CommitQuestions(context.Background(), r, false)
	require.ErrorIs(t, err, staging.ErrSessionExpired)
	assert.True(t, r.Expired())

	_, err = c.CommitQuestions(context.Background(), r, false)
	assert.ErrorIs(t, err, staging.ErrSessionExpired)
	assert.Equal(t, 1, b.calls)
}

func TestCommitRejectsConcurrentCommit(t *testing.T) {
	b := &fakeBackend{qResult: &staging.QuestionCommitResult{Total: 2, Success: 2}}
	c, _ := newCoordinator(b)

	var nested error
	b.during = func(UploadFunc) {
		_, nested = c.CommitQuestions(context.Background(), questionReview(), false)
	}
	_, err := c.CommitQuestions(context.Background(), questionReview(), false)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrInFlight)
	assert.Equal(t, 1, b.calls)
}

func TestCommitRampIsDrivenByScheduler(t *testing.T) {
	b := &fakeBackend{qResult: &staging.QuestionCommitResult{Total: 2, Success: 2}}
	c, sched := newCoordinator(b)

	b.during = func(UploadFunc) {
		require.Equal(t, 1, sched.Fire(t0.Add(progress.QuestionRampDuration/2)))
		assert.InDelta(t, progress.RampCeiling/2, c.Progress().Percent, 1e-9)
		require.Equal(t, 1, sched.Fire(t0.Add(time.Hour)))
		assert.Equal(t, progress.RampCeiling, c.Progress().Percent)
	}
	_, err := c.CommitQuestions(context.Background(), questionReview(), false)
	require.NoError(t, err)

	sched.Fire(t0.Add(2 * time.Hour))
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 100.0, c.Progress().Percent)
}

func TestCommitAnswersPartial(t *testing.T) {
	id := uuid.New()
	b := &fakeBackend{aResult: &staging.AnswerCommitResult{TotalBlocks: 2, TotalQuestions: 3, Success: 2, NotFound: 1}}
	c, _ := newCoordinator(b)
	r := review.NewAnswerReview(&staging.AnswerSession{
		SessionID: "ans-1",
		SubjectID: 7,
		Blocks: []*staging.AnswerBlock{
			{Index: 0, TargetQuestionIDs: map[string]*uuid.UUID{"a": &id, "b": &id}, NewAnswers: map[string]string{"a": "x", "b": "y"}, IsValid: true, Include: true},
			{Index: 1, TargetQuestionIDs: map[string]*uuid.UUID{"": nil}, NewAnswers: map[string]string{"": "C"}, Include: true},
		},
	})

	s, err := c.CommitAnswers(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []staging.AnswerCommitBlock{{Index: 0, Include: true}, {Index: 1, Include: true}}, b.answerReq.Blocks)
	assert.Equal(t, OutcomePartial, s.Outcome)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.NotFound)
	assert.Equal(t, "Updated 2 of 3 answers; 1 not found.", s.Message)
}

func TestReconcileQuestions(t *testing.T) {
	tests := []struct {
		name    string
		in      staging.QuestionCommitResult
		outcome Outcome
		message string
	}{
		{
			name:    "all imported",
			in:      staging.QuestionCommitResult{Total: 4, Success: 4},
			outcome: OutcomeSucceeded,
			message: "Imported 4 of 4 questions.",
		},
		{
			name:    "short with errors",
			in:      staging.QuestionCommitResult{Total: 5, Success: 3, Errors: []string{"block content empty", "image missing"}},
			outcome: OutcomePartial,
			message: "Imported 3 of 5 questions; 2 failed, 2 errors.",
		},
		{
			name:    "full count but an error",
			in:      staging.QuestionCommitResult{Total: 2, Success: 2, Errors: []string{"archive copy failed"}},
			outcome: OutcomePartial,
			message: "Imported 2 of 2 questions; 1 error.",
		},
		{
			name:    "nothing imported",
			in:      staging.QuestionCommitResult{Total: 2, Errors: []string{"db down"}},
			outcome: OutcomeFailed,
			message: "No questions were imported; 2 failed, 1 error.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ReconcileQuestions(tt.in)
			assert.Equal(t, tt.outcome, s.Outcome)
			assert.Equal(t, tt.message, s.Message)
			assert.Equal(t, tt.in.Success, s.Succeeded)
			assert.Equal(t, tt.in.Total, s.Total)
			if tt.in.Success < tt.in.Total || len(tt.in.Errors) > 0 {
				assert.NotEqual(t, OutcomeSucceeded, s.Outcome)
			}
		})
	}
}

func TestFailureSummary(t *testing.T) {
	s := Failure(staging.KindAnswerImport, fmt.Errorf("wrap: %w", errors.New("boom")))
	assert.Equal(t, OutcomeFailed, s.Outcome)
	assert.Equal(t, "Commit failed: wrap: boom", s.Message)
}
