package staging

import (
	"github.com/google/uuid"
)

// Kind discriminates the two staged import flows.
type Kind string

const (
	KindQuestionImport Kind = "question-import"
	KindAnswerImport   Kind = "answer-import"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeEssay          QuestionType = "essay"
)

// Labels a question can carry.
const (
	LabelPractice = "practice"
	LabelExam     = "exam"
)

// Block is one staged candidate record. The set of implementations is closed:
// *QuestionBlock and *AnswerBlock.
type Block interface {
	Kind() Kind
	Position() int
	Included() bool
	SetIncluded(include bool)
	sealed()
}

// QuestionBlock is a parsed question waiting for review.
type QuestionBlock struct {
	Index           int          `json:"index" yaml:"index"`
	QuestionType    QuestionType `json:"questionType" yaml:"questionType"`
	Difficulty      string       `json:"difficulty" yaml:"difficulty"`
	Chapter         string       `json:"chapter" yaml:"chapter"`
	Labels          []string     `json:"labels" yaml:"labels"`
	Content         string       `json:"content" yaml:"content"`
	OptionA         string       `json:"optionA" yaml:"optionA"`
	OptionB         string       `json:"optionB" yaml:"optionB"`
	OptionC         string       `json:"optionC" yaml:"optionC"`
	OptionD         string       `json:"optionD" yaml:"optionD"`
	Answer          string       `json:"answer" yaml:"answer"`
	ImageIndexes    []int        `json:"imageIndexes" yaml:"imageIndexes"`
	AllImageIndexes []int        `json:"allImageIndexes" yaml:"allImageIndexes"`
	Warnings        []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Include         bool         `json:"include" yaml:"include"`
}

func (b *QuestionBlock) Kind() Kind { return KindQuestionImport }
func (b *QuestionBlock) Position() int { return b.Index }
func (b *QuestionBlock) Included() bool { return b.Include }
func (b *QuestionBlock) SetIncluded(on bool) { b.Include = on }
func (b *QuestionBlock) sealed() {}
func (b *QuestionBlock) Options() [4]string { return [4]string{b.OptionA, b.OptionB, b.OptionC, b.OptionD} }
func (b *QuestionBlock) HasImage(idx int) bool { return containsInt(b.AllImageIndexes, idx) }

// AnswerBlock is a parsed answer-key entry correlated to existing questions.
// Sub-key "" addresses a single-answer question, letters address parts of a
// multi-part essay.
type AnswerBlock struct {
	Index             int                   `json:"index"`
	TypeCode          string                `json:"typeCode"`
	BaseCode          string                `json:"baseCode"`
	TargetQuestionIDs map[string]*uuid.UUID `json:"targetQuestionIds"`
	CurrentAnswers    map[string]string     `json:"currentAnswers"`
	NewAnswers        map[string]string     `json:"newAnswers"`
	IsValid           bool                  `json:"valid"`
	Include           bool                  `json:"include"`
}

func (b *AnswerBlock) Kind() Kind { return KindAnswerImport }
func (b *AnswerBlock) Position() int { return b.Index }
func (b *AnswerBlock) Included() bool { return b.Include }
func (b *AnswerBlock) SetIncluded(on bool) { b.Include = on }
func (b *AnswerBlock) sealed() {}

// Resolved reports whether at least one sub-key maps to an existing question.
func (b *AnswerBlock) Resolved() bool {
	for _, id := range b.TargetQuestionIDs {
		if id != nil {
			return true
		}
	}
	return false
}

type QuestionSession struct {
	SessionID   string           `json:"sessionId"`
	SubjectID   int64            `json:"subjectId"`
	TotalBlocks int              `json:"totalBlocks"`
	Blocks      []*QuestionBlock `json:"blocks"`
}

type AnswerSession struct {
	SessionID   string         `json:"sessionId"`
	SubjectID   int64          `json:"subjectId"`
	TotalBlocks int            `json:"totalBlocks"`
	Blocks      []*AnswerBlock `json:"blocks"`
}

// QuestionCommitBlock carries the edited content of one block. Content fields
// are only populated when Include is true.
type QuestionCommitBlock struct {
	Index        int          `json:"index" validate:"min=0"`
	Include      bool         `json:"include"`
	QuestionType QuestionType `json:"questionType,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	Chapter      string       `json:"chapter,omitempty"`
	Labels       []string     `json:"labels,omitempty"`
	Content      string       `json:"content,omitempty"`
	OptionA      string       `json:"optionA,omitempty"`
	OptionB      string       `json:"optionB,omitempty"`
	OptionC      string       `json:"optionC,omitempty"`
	OptionD      string       `json:"optionD,omitempty"`
	Answer       string       `json:"answer,omitempty"`
	ImageIndexes []int        `json:"imageIndexes,omitempty"`
}

type QuestionCommitRequest struct {
	SessionID string                `json:"sessionId" validate:"required"`
	Blocks    []QuestionCommitBlock `json:"blocks" validate:"required,min=1,dive"`
}

type AnswerCommitBlock struct {
	Index   int  `json:"index" validate:"min=0"`
	Include bool `json:"include"`
}

type AnswerCommitRequest struct {
	SessionID string              `json:"sessionId" validate:"required"`
	Blocks    []AnswerCommitBlock `json:"blocks" validate:"required,min=1,dive"`
}

// QuestionCommitResult does not say which indexes failed; Errors are free text.
type QuestionCommitResult struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

type AnswerCommitResult struct {
	TotalBlocks    int      `json:"totalBlocks"`
	TotalQuestions int      `json:"totalQuestions"`
	Success        int      `json:"success"`
	NotFound       int      `json:"notFound"`
	Errors         []string `json:"errors"`
}

// NewQuestionCommitBlock builds the payload entry for b, carrying content only
// when the block is included.
func NewQuestionCommitBlock(b *QuestionBlock) QuestionCommitBlock {
	out := QuestionCommitBlock{Index: b.Index, Include: b.Include}
	if !b.Include {
		return out
	}
	out.QuestionType = b.QuestionType
	out.Difficulty = b.Difficulty
	out.Chapter = b.Chapter
	out.Labels = append([]string(nil), b.Labels...)
	out.Content = b.Content
	out.OptionA, out.OptionB, out.OptionC, out.OptionD = b.OptionA, b.OptionB, b.OptionC, b.OptionD
	out.Answer = b.Answer
	out.ImageIndexes = append([]int{}, b.ImageIndexes...)
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
