package review

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"qbank-admin/pkg/staging"
)

// questionFile is the on-disk form of a question review, meant to be edited
// by hand and read back.
type questionFile struct {
	SessionID string                   `yaml:"sessionId"`
	SubjectID int64                    `yaml:"subjectId"`
	Blocks    []*staging.QuestionBlock `yaml:"blocks"`
}

func WriteQuestionFile(w io.Writer, r *QuestionReview) error {
	f := questionFile{
		SessionID: r.SessionID(),
		SubjectID: r.SubjectID(),
		Blocks:    r.Blocks(),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode review file: %w", err)
	}
	return enc.Close()
}

// ApplyQuestionFile replays the edits of a review file through r, so the
// same invariants hold as for interactive edits. The whole file is checked
// first; a rejected file leaves r untouched.
func ApplyQuestionFile(in io.Reader, r *QuestionReview) error {
	var f questionFile
	if err := yaml.NewDecoder(in).Decode(&f); err != nil {
		return fmt.Errorf("decode review file: %w", err)
	}
	if f.SessionID != r.SessionID() {
		return staging.NewValidationError("review file belongs to another session",
			staging.FieldError{Field: "sessionId", Error: fmt.Sprintf("%q != %q", f.SessionID, r.SessionID())})
	}

	if err := checkQuestionFile(&f, r); err != nil {
		return err
	}

	for _, edited := range f.Blocks {
		fields := map[Field]string{
			FieldQuestionType: string(edited.QuestionType),
			FieldContent:      edited.Content,
			FieldOptionA:      edited.OptionA,
			FieldOptionB:      edited.OptionB,
			FieldOptionC:      edited.OptionC,
			FieldOptionD:      edited.OptionD,
			FieldAnswer:       edited.Answer,
			FieldChapter:      edited.Chapter,
			FieldDifficulty:   edited.Difficulty,
		}
		for field, value := range fields {
			if err := r.EditField(edited.Index, field, value); err != nil {
				return fmt.Errorf("block %d: %w", edited.Index, err)
			}
		}
		if err := r.SetLabels(edited.Index, edited.Labels); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
		if err := r.SetImageIndexes(edited.Index, edited.ImageIndexes); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
		if err := r.SetInclude(edited.Index, edited.Include); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
		if err := r.EndEdit(edited.Index); err != nil {
			return err
		}
	}
	return nil
}

// checkQuestionFile rejects a file any of whose blocks would fail to apply.
func checkQuestionFile(f *questionFile, r *QuestionReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	seen := make(map[int]bool, len(f.Blocks))
	for _, edited := range f.Blocks {
		if edited == nil {
			return staging.NewValidationError("review file has an empty block")
		}
		if seen[edited.Index] {
			return staging.NewValidationError("review file repeats a block",
				staging.FieldError{Field: "index", Error: fmt.Sprint(edited.Index)})
		}
		seen[edited.Index] = true
		if _, err := r.lookup(edited.Index); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
		if qt := edited.QuestionType; qt != staging.QuestionTypeMultipleChoice && qt != staging.QuestionTypeEssay {
			return fmt.Errorf("block %d: %w", edited.Index, staging.NewValidationError("unknown question type",
				staging.FieldError{Field: string(FieldQuestionType), Error: fmt.Sprintf("%q", qt)}))
		}
		if _, err := staging.NormalizeLabels(edited.Labels); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
		if err := staging.CheckImageSubset(edited.ImageIndexes, r.originals[edited.Index]); err != nil {
			return fmt.Errorf("block %d: %w", edited.Index, err)
		}
	}
	return nil
}
