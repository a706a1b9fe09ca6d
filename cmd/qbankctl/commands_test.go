package main

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank-admin/pkg/progress"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	commits  []map[string]interface{}
	server   *httptest.Server
}

func reply(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"code":    200,
		"message": "ok",
		"data":    data,
	})
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		api.mu.Unlock()

		switch r.URL.Path {
		case "/api/questions/preview":
			reply(w, map[string]interface{}{
				"sessionId":   "s1",
				"subjectId":   7,
				"totalBlocks": 2,
				"blocks": []map[string]interface{}{
					{"index": 0, "questionType": "essay", "content": "Explain entropy.", "include": true},
					{"index": 1, "questionType": "multiple-choice", "content": "Pick one", "optionA": "a", "optionB": "b", "optionC": "c", "optionD": "d", "answer": "A", "include": true},
				},
			})
		case "/api/questions/commit":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			api.mu.Lock()
			api.commits = append(api.commits, body)
			api.mu.Unlock()
			reply(w, map[string]interface{}{"total": 2, "success": 2, "errors": []string{}})
		case "/api/files":
			reply(w, map[string]interface{}{
				"items": []map[string]interface{}{{"name": "chapter1.docx", "size": 120, "mimeType": "application/msword", "createdAt": "2026-03-02T10:00:00Z"}},
				"page":  1,
				"size":  20,
				"total": 1,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "code": 404, "message": "not found"})
		}
	}))
	t.Cleanup(api.server.Close)

	oldURL, oldNoColor := baseURL, color.NoColor
	baseURL = api.server.URL
	color.NoColor = true
	t.Cleanup(func() {
		baseURL = oldURL
		color.NoColor = oldNoColor
	})
	return api
}

func (a *fakeAPI) count(request string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, r := range a.requests {
		if r == request {
			n++
		}
	}
	return n
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chapter1.docx")
	require.NoError(t, os.WriteFile(path, []byte("document"), 0o644))
	return path
}

// lockedBuffer is shared by stdout and stderr; the progress bar writes from
// timer goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &lockedBuffer{}
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQuestionsImportCommits(t *testing.T) {
	api := newFakeAPI(t)

	out, err := execute(t, "", "questions", "import", writeDoc(t), "--subject", "7", "--labels", "exam", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 2 questions.")
	assert.Contains(t, out, "Explain entropy.")

	require.Len(t, api.commits, 1)
	assert.Equal(t, "s1", api.commits[0]["sessionId"])
	blocks := api.commits[0]["blocks"].([]interface{})
	assert.Len(t, blocks, 2)
}

func TestQuestionsImportDeclined(t *testing.T) {
	api := newFakeAPI(t)

	out, err := execute(t, "n\n", "questions", "import", writeDoc(t), "--subject", "7", "--yes=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing committed")
	assert.Equal(t, 1, api.count("POST /api/questions/preview"))
	assert.Equal(t, 0, api.count("POST /api/questions/commit"))
}

func TestQuestionsImportRequiresSubject(t *testing.T) {
	newFakeAPI(t)

	_, err := execute(t, "", "questions", "import", writeDoc(t), "--subject", "0")
	assert.Error(t, err)
}

func TestShellServesRepeatedListingsFromCache(t *testing.T) {
	api := newFakeAPI(t)

	script := strings.Join([]string{
		"files 7",
		"files 7",
		"cache",
		"invalidate 7",
		"files 7",
		"cd /subjects/7",
		"files 7",
		"bogus",
		"exit",
	}, "\n")
	out, err := execute(t, script, "shell")
	require.NoError(t, err)

	assert.Equal(t, 3, api.count("GET /api/files"))
	assert.Contains(t, out, "from cache")
	assert.Contains(t, out, "chapter1.docx")
	assert.Contains(t, out, "dropped 1 cached pages")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestFilesListFlags(t *testing.T) {
	api := newFakeAPI(t)

	out, err := execute(t, "", "files", "list", "--subject", "7", "--name", "chap")
	require.NoError(t, err)
	assert.Contains(t, out, "chapter1.docx")
	assert.Equal(t, 1, api.count("GET /api/files"))
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(" ", barWidth)+"]   0%", formatProgress(progress.Snapshot{State: progress.StateRunning}))
	assert.Equal(t, "["+strings.Repeat("#", barWidth)+"] 100%", formatProgress(progress.Snapshot{State: progress.StateCompleted, Percent: 100}))
	assert.Contains(t, formatProgress(progress.Snapshot{State: progress.StateFailed, Percent: math.NaN()}), "failed")
}

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "subject_id=7 success=2", formatPayload(map[string]interface{}{"success": 2, "subject_id": 7}))
}
