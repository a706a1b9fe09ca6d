package review

import (
	"fmt"
	"sort"

	"qbank-admin/pkg/staging"
)

// Field names an editable text field of a question block.
type Field string

const (
	FieldContent      Field = "content"
	FieldOptionA      Field = "optionA"
	FieldOptionB      Field = "optionB"
	FieldOptionC      Field = "optionC"
	FieldOptionD      Field = "optionD"
	FieldAnswer       Field = "answer"
	FieldChapter      Field = "chapter"
	FieldDifficulty   Field = "difficulty"
	FieldQuestionType Field = "questionType"
)

// QuestionReview curates a question-import session. Every block starts
// included.
type QuestionReview struct {
	*Controller[*staging.QuestionBlock]
	originals map[int][]int
}

func NewQuestionReview(s *staging.QuestionSession) *QuestionReview {
	originals := make(map[int][]int, len(s.Blocks))
	for _, b := range s.Blocks {
		all := b.AllImageIndexes
		if len(all) == 0 {
			all = b.ImageIndexes
		}
		originals[b.Index] = append([]int(nil), all...)
		b.AllImageIndexes = append([]int(nil), all...)
		if staging.CheckImageSubset(b.ImageIndexes, all) != nil {
			b.ImageIndexes = append([]int(nil), all...)
		}
		b.Include = true
	}
	return &QuestionReview{
		Controller: newController(s.SessionID, s.SubjectID, s.Blocks),
		originals:  originals,
	}
}

// EditField replaces one field in memory. Validation is recomputed lazily by
// Summary and Validate; the server is never contacted.
func (r *QuestionReview) EditField(index int, field Field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.mutable(index)
	if err != nil {
		return err
	}
	if field == FieldQuestionType {
		qt := staging.QuestionType(value)
		if qt != staging.QuestionTypeMultipleChoice && qt != staging.QuestionTypeEssay {
			return staging.NewValidationError("unknown question type", staging.FieldError{Field: string(field), Error: fmt.Sprintf("%q", value)})
		}
		b.QuestionType = qt
		r.editing(index)
		return nil
	}
	ptr, err := textField(b, field)
	if err != nil {
		return err
	}
	*ptr = value
	r.editing(index)
	return nil
}

// InsertTemplate splices a template into a text field at the given selection
// and returns the caret position for the editor.
func (r *QuestionReview) InsertTemplate(index int, field Field, selStart, selEnd int, template string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.mutable(index)
	if err != nil {
		return 0, err
	}
	ptr, err := textField(b, field)
	if err != nil {
		return 0, err
	}
	value, caret := InsertTemplate(*ptr, selStart, selEnd, template)
	*ptr = value
	r.editing(index)
	return caret, nil
}

// SetImageIndexes narrows the images attached to a block. Indexes outside the
// block's original set are rejected.
func (r *QuestionReview) SetImageIndexes(index int, selected []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.mutable(index)
	if err != nil {
		return err
	}
	if err := staging.CheckImageSubset(selected, r.originals[index]); err != nil {
		return err
	}
	out := dedupe(selected)
	b.ImageIndexes = out
	r.editing(index)
	return nil
}

func (r *QuestionReview) SetLabels(index int, labels []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.mutable(index)
	if err != nil {
		return err
	}
	normalized, err := staging.NormalizeLabels(labels)
	if err != nil {
		return err
	}
	b.Labels = normalized
	r.editing(index)
	return nil
}

// OriginalImages returns the full image set parsed for a block.
func (r *QuestionReview) OriginalImages(index int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.originals[index]...)
}

func (r *QuestionReview) Validate(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.lookup(index)
	if err != nil {
		return err
	}
	return staging.ValidateQuestion(b)
}

// CommitRequest builds the payload: every block with its include flag, and
// the edited content for included ones.
func (r *QuestionReview) CommitRequest() staging.QuestionCommitRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := staging.QuestionCommitRequest{
		SessionID: r.sessionID,
		Blocks:    make([]staging.QuestionCommitBlock, 0, len(r.blocks)),
	}
	for _, b := range r.blocks {
		req.Blocks = append(req.Blocks, staging.NewQuestionCommitBlock(b))
	}
	return req
}

func (r *QuestionReview) editing(index int) {
	r.phases[index] = PhaseEditing
}

func textField(b *staging.QuestionBlock, field Field) (*string, error) {
	switch field {
	case FieldContent:
		return &b.Content, nil
	case FieldOptionA:
		return &b.OptionA, nil
	case FieldOptionB:
		return &b.OptionB, nil
	case FieldOptionC:
		return &b.OptionC, nil
	case FieldOptionD:
		return &b.OptionD, nil
	case FieldAnswer:
		return &b.Answer, nil
	case FieldChapter:
		return &b.Chapter, nil
	case FieldDifficulty:
		return &b.Difficulty, nil
	}
	return nil, staging.NewValidationError("field is not editable as text", staging.FieldError{Field: string(field), Error: "unsupported"})
}

func dedupe(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}
