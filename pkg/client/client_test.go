package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank-admin/pkg/commit"
	"qbank-admin/pkg/progress"
	"qbank-admin/pkg/readcache"
	"qbank-admin/pkg/review"
	"qbank-admin/pkg/staging"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 300,
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func TestPreviewQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/questions/preview", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("subjectId"))
		assert.Equal(t, "true", r.FormValue("saveCopy"))
		assert.Equal(t, "exam,practice", r.FormValue("labels"))

		writeEnvelope(w, http.StatusOK, "preview ready", staging.QuestionSession{
			SessionID:   "sess-1",
			SubjectID:   7,
			TotalBlocks: 1,
			Blocks:      []*staging.QuestionBlock{{Index: 0, QuestionType: staging.QuestionTypeEssay, Content: "why", Include: true}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("secret"))
	s, err := c.PreviewQuestions(context.Background(), Upload{Name: "bank.docx", Data: []byte("doc")},
		QuestionPreviewOptions{SubjectID: 7, SaveCopy: true, Labels: []string{"practice", "exam"}})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", s.SessionID)
	require.Len(t, s.Blocks, 1)
}

func TestPreviewPrecheckSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.PreviewQuestions(context.Background(), Upload{Name: "bank.pdf", Data: []byte("x")}, QuestionPreviewOptions{SubjectID: 1})
	assert.ErrorIs(t, err, staging.ErrValidation)
	_, err = c.PreviewAnswers(context.Background(), Upload{Name: "key.docx"}, 1)
	assert.ErrorIs(t, err, staging.ErrValidation)
	_, err = c.PreviewQuestions(context.Background(), Upload{Name: "bank.docx", Data: []byte("x")}, QuestionPreviewOptions{Labels: []string{"homework"}})
	assert.ErrorIs(t, err, staging.ErrValidation)
	assert.Zero(t, hits.Load())
}

func TestPreviewParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnprocessableEntity, "document contains no questions", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL).PreviewAnswers(context.Background(), Upload{Name: "key.docx", Data: []byte("x")}, 3)
	require.ErrorIs(t, err, staging.ErrParse)
	assert.False(t, staging.IsRetryable(err))

	var remote *staging.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "document contains no questions", remote.Message)
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/questions/image/sess-1/0":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/api/questions/image/sess-1/1":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := New(srv.URL)

	data, ct, err := c.FetchImage(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Len(t, data, 4)

	_, _, err = c.FetchImage(context.Background(), "sess-1", 1)
	assert.ErrorIs(t, err, staging.ErrImageNotFound)
	_, _, err = c.FetchImage(context.Background(), "gone", 0)
	assert.ErrorIs(t, err, staging.ErrImageNotFound)
}

func TestCommitExpiredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusGone, "staging session expired", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CommitAnswers(context.Background(), staging.AnswerCommitRequest{SessionID: "x"}, nil)
	assert.ErrorIs(t, err, staging.ErrSessionExpired)
}

func TestCommitReportsUploadProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("saveCopy"))
		var req staging.QuestionCommitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeEnvelope(w, http.StatusOK, "committed", staging.QuestionCommitResult{Total: len(req.Blocks), Success: len(req.Blocks)})
	}))
	defer srv.Close()

	var last, total int64
	res, err := New(srv.URL).CommitQuestions(context.Background(),
		staging.QuestionCommitRequest{SessionID: "s", Blocks: []staging.QuestionCommitBlock{{Index: 0, Include: true, Content: "x"}}},
		true,
		func(sent, t int64) { last, total = sent, t })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Positive(t, total)
	assert.Equal(t, total, last)
}

func TestListFilesIsCachedAndInvalidatedByCommit(t *testing.T) {
	var listCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/files":
			listCalls.Add(1)
			writeEnvelope(w, http.StatusOK, "ok", FilePage{Page: 1, Size: 20, Total: int64(listCalls.Load())})
		case "/api/questions/commit":
			writeEnvelope(w, http.StatusOK, "committed", staging.QuestionCommitResult{Total: 1, Success: 1})
		}
	}))
	defer srv.Close()

	nav := readcache.NewNavigator()
	c := New(srv.URL, WithEpoch(nav))
	ctx := context.Background()
	mime := "application/pdf"
	q := FileQuery{SubjectID: 7, Page: 1, Size: 20}
	other := FileQuery{SubjectID: 8, Page: 1, Size: 20, Filters: FileFilters{MimeType: &mime}}

	_, err := c.ListFiles(ctx, q)
	require.NoError(t, err)
	page, err := c.ListFiles(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	_, err = c.ListFiles(ctx, other)
	require.NoError(t, err)
	assert.EqualValues(t, 2, listCalls.Load())

	co := commit.NewCoordinator(c, c, commit.WithInvalidator(c.FileCache()), commit.WithScheduler(&progress.ManualScheduler{}))
	r := review.NewQuestionReview(&staging.QuestionSession{
		SessionID: "s",
		SubjectID: 7,
		Blocks:    []*staging.QuestionBlock{{Index: 0, QuestionType: staging.QuestionTypeEssay}},
	})
	sum, err := co.CommitQuestions(ctx, r, false)
	require.NoError(t, err)
	assert.Equal(t, commit.OutcomeSucceeded, sum.Outcome)

	assert.False(t, c.FilesCached(q))
	assert.True(t, c.FilesCached(other))

	nav.Navigate("/admin/files/7")
	nav.Navigate("/admin/subjects")
	assert.False(t, c.FilesCached(other))
}
