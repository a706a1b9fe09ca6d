package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/internal/repository/memory"
	"qbank-admin/pkg/events"
	"qbank-admin/pkg/imagestore"
	"qbank-admin/pkg/ingestion"
	"qbank-admin/pkg/staging"
)

type questionFixture struct {
	db        *fakeDB
	sessions  *memory.StagingSessionRepository
	images    *imagestore.MemoryStore
	parser    *fakeParser
	consumed  *recordingPublisher
	events    *recordingEvents
	uploadDir string
	svc       IQuestionImportService
}

func newQuestionFixture(t *testing.T) *questionFixture {
	t.Helper()
	f := &questionFixture{
		db:        newFakeDB(),
		sessions:  memory.NewStagingSessionRepository(time.Minute, time.Minute),
		images:    imagestore.NewMemoryStore(time.Minute, time.Minute),
		consumed:  &recordingPublisher{},
		events:    &recordingEvents{},
		uploadDir: t.TempDir(),
		parser: &fakeParser{questions: &ingestion.ParsedQuestions{
			Questions: []ingestion.ParsedQuestion{
				{QuestionType: staging.QuestionTypeMultipleChoice, TypeCode: "MC", BaseCode: "Q1", Content: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", Answer: "b", ImageIndexes: []int{0, 1}},
				{QuestionType: staging.QuestionTypeEssay, TypeCode: "ES", BaseCode: "Q2", SubKey: "a", Content: "Explain."},
				{QuestionType: staging.QuestionTypeMultipleChoice, TypeCode: "MC", BaseCode: "Q3", Content: "Broken", OptionA: "x"},
			},
			Images: []ingestion.Image{
				{Index: 0, ContentType: "image/png", Data: []byte("png0")},
				{Index: 1, ContentType: "image/jpeg", Data: []byte("jpg1")},
			},
		}},
	}
	log := logger.NewNopLogger()
	files := NewFileService(f.db, f.uploadDir, f.events, log)
	f.svc = NewQuestionImportService(f.db, f.sessions, f.images, f.parser, files, f.consumed, f.events, log)
	return f
}

func docx(name string) ingestion.Document {
	return ingestion.Document{Name: name, ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("document bytes")}
}

func (f *questionFixture) preview(t *testing.T, saveCopy bool) *staging.QuestionSession {
	t.Helper()
	session, err := f.svc.Preview(context.Background(), &dto.PreviewQuestionsRequest{SubjectId: 7, SaveCopy: saveCopy, Labels: "exam, practice,exam"}, docx("chapter1.docx"))
	require.NoError(t, err)
	return session
}

func commitAll(session *staging.QuestionSession) *staging.QuestionCommitRequest {
	req := &staging.QuestionCommitRequest{SessionID: session.SessionID}
	for _, b := range session.Blocks {
		req.Blocks = append(req.Blocks, staging.NewQuestionCommitBlock(b))
	}
	return req
}

func TestQuestionPreviewStagesBlocksAndImages(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, int64(7), session.SubjectID)
	assert.Equal(t, 3, session.TotalBlocks)
	require.Len(t, session.Blocks, 3)
	assert.Equal(t, []string{"exam", "practice"}, f.parser.labels)
	assert.Equal(t, []string{"exam", "practice"}, session.Blocks[0].Labels)
	assert.Equal(t, []int{0, 1}, session.Blocks[0].AllImageIndexes)
	assert.True(t, session.Blocks[2].Include)

	img, err := f.svc.Image(context.Background(), session.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte("jpg1"), img.Data)

	_, err = f.svc.Image(context.Background(), session.SessionID, 9)
	assert.ErrorIs(t, err, staging.ErrImageNotFound)
	_, err = f.svc.Image(context.Background(), "nope", 0)
	assert.ErrorIs(t, err, staging.ErrImageNotFound)
}

func TestQuestionPreviewRejectsBadInput(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, &dto.PreviewQuestionsRequest{SubjectId: 7}, docx("notes.pdf"))
	assert.ErrorIs(t, err, staging.ErrValidation)

	_, err = f.svc.Preview(ctx, &dto.PreviewQuestionsRequest{SubjectId: 7, Labels: "homework"}, docx("a.docx"))
	assert.ErrorIs(t, err, staging.ErrValidation)

	f.parser.questions = &ingestion.ParsedQuestions{}
	_, err = f.svc.Preview(ctx, &dto.PreviewQuestionsRequest{SubjectId: 7}, docx("a.docx"))
	assert.ErrorIs(t, err, staging.ErrParse)

	f.parser.err = &staging.RemoteError{Kind: staging.ErrParse, Status: 422, Message: "bad"}
	_, err = f.svc.Preview(ctx, &dto.PreviewQuestionsRequest{SubjectId: 7}, docx("a.docx"))
	assert.ErrorIs(t, err, staging.ErrParse)
}

func TestQuestionCommitPartial(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	req := commitAll(session)
	req.Blocks[0].ImageIndexes = []int{1}

	res, err := f.svc.Commit(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "block 2")

	require.Len(t, f.db.questions, 2)
	mc := f.db.questions[0]
	assert.Equal(t, "B", mc.Answer)
	assert.Equal(t, "Q1", mc.BaseCode)
	assert.Equal(t, "MC", mc.TypeCode)
	assert.Equal(t, int64(7), mc.SubjectId)
	assert.Equal(t, "a", f.db.questions[1].SubKey)

	require.Len(t, f.db.images, 1)
	assert.Equal(t, []byte("jpg1"), f.db.images[0].Data)
	assert.Equal(t, mc.Id, f.db.images[0].QuestionId)

	var msg dto.SessionConsumedMessage
	require.Len(t, f.consumed.payloads, 1)
	require.NoError(t, json.Unmarshal(f.consumed.payloads[0], &msg))
	assert.Equal(t, session.SessionID, msg.SessionId)
	assert.Equal(t, []string{events.QuestionsImported}, f.events.types())

	_, err = f.svc.Commit(context.Background(), req, false)
	assert.ErrorIs(t, err, staging.ErrSessionExpired)
}

func TestQuestionCommitOnlySendsIncluded(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	req := commitAll(session)
	req.Blocks[0] = staging.QuestionCommitBlock{Index: 0}
	req.Blocks[2] = staging.QuestionCommitBlock{Index: 2}

	res, err := f.svc.Commit(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Success)
	assert.Empty(t, res.Errors)
}

func TestQuestionCommitIgnoresRepeatedBlock(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	b0 := staging.NewQuestionCommitBlock(session.Blocks[0])
	req := &staging.QuestionCommitRequest{SessionID: session.SessionID, Blocks: []staging.QuestionCommitBlock{b0, b0, b0}}

	res, err := f.svc.Commit(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, []string{"block 0: duplicate", "block 0: duplicate"}, res.Errors)
	assert.Len(t, f.db.questions, 1)
	assert.Len(t, f.db.images, 2)
}

func TestQuestionCommitRestoresSessionWhenNothingApplied(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	req := &staging.QuestionCommitRequest{SessionID: session.SessionID, Blocks: []staging.QuestionCommitBlock{
		staging.NewQuestionCommitBlock(session.Blocks[2]),
	}}
	res, err := f.svc.Commit(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Success)
	assert.Len(t, res.Errors, 1)
	assert.Empty(t, f.consumed.payloads)
	assert.Empty(t, f.events.types())

	// the same session can be retried after fixing the block
	fixed := staging.NewQuestionCommitBlock(session.Blocks[2])
	fixed.OptionB, fixed.OptionC, fixed.OptionD, fixed.Answer = "y", "z", "w", "a"
	res, err = f.svc.Commit(context.Background(), &staging.QuestionCommitRequest{SessionID: session.SessionID, Blocks: []staging.QuestionCommitBlock{fixed}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
}

func TestQuestionCommitRejectsImagesOutsideBlock(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	block := staging.NewQuestionCommitBlock(session.Blocks[1])
	block.ImageIndexes = []int{0}
	res, err := f.svc.Commit(context.Background(), &staging.QuestionCommitRequest{SessionID: session.SessionID, Blocks: []staging.QuestionCommitBlock{block}}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "image 0")
}

func TestQuestionCommitDatabaseFailureIsReportedAsText(t *testing.T) {
	f := newQuestionFixture(t)
	f.db.failCreate["Explain."] = true
	session := f.preview(t, false)

	res, err := f.svc.Commit(context.Background(), commitAll(session), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "insert failed")
}

func TestQuestionCommitArchivesOriginal(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, true)

	req := commitAll(session)
	req.Blocks[2] = staging.QuestionCommitBlock{Index: 2}
	res, err := f.svc.Commit(context.Background(), req, true)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	require.Len(t, f.db.files, 1)
	file := f.db.files[0]
	assert.Equal(t, "chapter1.docx", file.Name)
	assert.Equal(t, session.SessionID, file.SourceSessionId)
	data, err := os.ReadFile(file.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("document bytes"), data)
	assert.ElementsMatch(t, []string{events.FileArchived, events.QuestionsImported}, f.events.types())
}

func TestQuestionCommitSaveCopyWithoutKeptDocument(t *testing.T) {
	f := newQuestionFixture(t)
	session := f.preview(t, false)

	req := commitAll(session)
	req.Blocks[2] = staging.QuestionCommitBlock{Index: 2}
	res, err := f.svc.Commit(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Empty(t, f.db.files)
}

func TestQuestionCommitRejectsAnswerSession(t *testing.T) {
	f := newQuestionFixture(t)
	f.parser.answers = &ingestion.ParsedAnswers{Answers: []ingestion.ParsedAnswer{{BaseCode: "Q1", Answers: map[string]string{"": "A"}}}}
	answers := NewAnswerImportService(f.db, f.sessions, f.parser, f.consumed, f.events, logger.NewNopLogger())
	session, err := answers.Preview(context.Background(), &dto.PreviewAnswersRequest{SubjectId: 7}, docx("key.docx"))
	require.NoError(t, err)

	_, err = f.svc.Commit(context.Background(), &staging.QuestionCommitRequest{SessionID: session.SessionID, Blocks: []staging.QuestionCommitBlock{{Index: 0, Include: true}}}, false)
	var verr *staging.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, ok := f.sessions.Get(session.SessionID)
	assert.True(t, ok)
}

func TestSplitLabels(t *testing.T) {
	labels, err := SplitLabels("")
	require.NoError(t, err)
	assert.Empty(t, labels)

	labels, err = SplitLabels(" Practice ,exam,")
	require.NoError(t, err)
	assert.Equal(t, []string{"exam", "practice"}, labels)
}
