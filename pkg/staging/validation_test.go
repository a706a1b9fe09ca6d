package staging

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcBlock() *QuestionBlock {
	return &QuestionBlock{
		Index:        0,
		QuestionType: QuestionTypeMultipleChoice,
		Content:      "2 + 2 = ?",
		OptionA:      "3",
		OptionB:      "4",
		OptionC:      "5",
		OptionD:      "6",
		Answer:       "b",
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *QuestionBlock)
		wantErr bool
	}{
		{name: "complete multiple choice", mutate: func(b *QuestionBlock) {}},
		{name: "missing option", mutate: func(b *QuestionBlock) { b.OptionC = "  " }, wantErr: true},
		{name: "answer out of range", mutate: func(b *QuestionBlock) { b.Answer = "E" }, wantErr: true},
		{name: "answer too long", mutate: func(b *QuestionBlock) { b.Answer = "AB" }, wantErr: true},
		{name: "essay with empty answer", mutate: func(b *QuestionBlock) {
			b.QuestionType = QuestionTypeEssay
			b.OptionA, b.Answer = "", ""
		}},
		{name: "unknown type", mutate: func(b *QuestionBlock) { b.QuestionType = "matching" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mcBlock()
			tt.mutate(b)
			err := ValidateQuestion(b)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAnswerBlock(t *testing.T) {
	id := uuid.New()

	resolved := &AnswerBlock{
		Index:             1,
		TargetQuestionIDs: map[string]*uuid.UUID{"a": &id, "b": nil},
		NewAnswers:        map[string]string{"a": "x", "b": "y"},
	}
	assert.True(t, Valid(resolved))

	unresolved := &AnswerBlock{Index: 2, TargetQuestionIDs: map[string]*uuid.UUID{"": nil}}
	assert.False(t, Valid(unresolved))

	orphan := &AnswerBlock{
		Index:             3,
		TargetQuestionIDs: map[string]*uuid.UUID{"a": &id},
		NewAnswers:        map[string]string{"c": "z"},
	}
	err := CheckAnswerBlock(orphan)
	require.Error(t, err)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "newAnswers[c]", vErr.Fields[0].Field)
}

func TestCheckImageSubset(t *testing.T) {
	assert.NoError(t, CheckImageSubset([]int{2}, []int{1, 2, 3}))
	assert.NoError(t, CheckImageSubset(nil, []int{1}))
	assert.ErrorIs(t, CheckImageSubset([]int{4}, []int{1, 2, 3}), ErrValidation)
}

func TestCheckUpload(t *testing.T) {
	assert.NoError(t, CheckUpload("chapter1.docx", 1024))
	assert.NoError(t, CheckUpload("LEGACY.DOC", 1))
	assert.ErrorIs(t, CheckUpload("notes.pdf", 1024), ErrValidation)
	assert.ErrorIs(t, CheckUpload("empty.docx", 0), ErrValidation)
	assert.ErrorIs(t, CheckUpload("huge.docx", MaxUploadSize+1), ErrValidation)
}

func TestNormalizeLabels(t *testing.T) {
	labels, err := NormalizeLabels([]string{"Exam", "practice", "exam", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"exam", "practice"}, labels)

	_, err = NormalizeLabels([]string{"homework"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRemoteErrorUnwrap(t *testing.T) {
	err := &RemoteError{Kind: ErrSessionExpired, Status: 410, Message: "gone"}
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, IsRetryable(err))
	assert.True(t, IsRetryable(&RemoteError{Kind: ErrTransport, Message: "reset"}))
}
