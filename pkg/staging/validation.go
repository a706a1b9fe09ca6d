package staging

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MaxUploadSize mirrors the backend body limit.
const MaxUploadSize int64 = 10 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".docx": true,
	".doc":  true,
}

// CheckUpload is the client-side pre-check of an upload. The backend runs the
// same check before calling the parser.
func CheckUpload(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return NewValidationError("unsupported file type", FieldError{Field: "file", Error: fmt.Sprintf("%q is not a .doc or .docx document", name)})
	}
	if size <= 0 {
		return NewValidationError("empty file", FieldError{Field: "file", Error: "file has no content"})
	}
	if size > MaxUploadSize {
		return NewValidationError("file too large", FieldError{Field: "file", Error: fmt.Sprintf("%d bytes exceeds the %d byte limit", size, MaxUploadSize)})
	}
	return nil
}

// NormalizeAnswer trims and upper-cases a multiple-choice answer letter.
func NormalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}

// ValidateQuestion checks the per-type rule: a multiple-choice block needs all
// four options and an answer in A-D, an essay block is always well-formed.
func ValidateQuestion(b *QuestionBlock) error {
	switch b.QuestionType {
	case QuestionTypeEssay:
		return nil
	case QuestionTypeMultipleChoice:
		var fields []FieldError
		for i, opt := range b.Options() {
			if strings.TrimSpace(opt) == "" {
				fields = append(fields, FieldError{Field: "option" + string(rune('A'+i)), Error: "required"})
			}
		}
		switch NormalizeAnswer(b.Answer) {
		case "A", "B", "C", "D":
		default:
			fields = append(fields, FieldError{Field: "answer", Error: "must be one of A, B, C, D"})
		}
		if len(fields) > 0 {
			return NewValidationError(fmt.Sprintf("block %d is not a valid multiple-choice question", b.Index), fields...)
		}
		return nil
	default:
		return NewValidationError(fmt.Sprintf("block %d has unknown question type", b.Index), FieldError{Field: "questionType", Error: fmt.Sprintf("%q", b.QuestionType)})
	}
}

// CheckAnswerBlock enforces that every proposed answer is addressable.
func CheckAnswerBlock(b *AnswerBlock) error {
	var fields []FieldError
	for _, key := range sortedKeys(b.NewAnswers) {
		if _, ok := b.TargetQuestionIDs[key]; !ok {
			fields = append(fields, FieldError{Field: "newAnswers[" + key + "]", Error: "sub-key has no target mapping"})
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fmt.Sprintf("block %d has orphan answers", b.Index), fields...)
	}
	return nil
}

// Validate dispatches on the block kind.
func Validate(b Block) error {
	switch v := b.(type) {
	case *QuestionBlock:
		return ValidateQuestion(v)
	case *AnswerBlock:
		if err := CheckAnswerBlock(v); err != nil {
			return err
		}
		if !v.Resolved() {
			return NewValidationError(fmt.Sprintf("block %d matches no existing question", v.Index))
		}
		return nil
	default:
		panic(fmt.Sprintf("staging: unknown block type %T", b))
	}
}

func Valid(b Block) bool {
	return Validate(b) == nil
}

// CheckImageSubset rejects any selected image index absent from the original set.
func CheckImageSubset(selected, original []int) error {
	for _, idx := range selected {
		if !containsInt(original, idx) {
			return NewValidationError("image selection out of range", FieldError{Field: "imageIndexes", Error: fmt.Sprintf("image %d is not part of this block", idx)})
		}
	}
	return nil
}

// NormalizeLabels de-duplicates labels and rejects anything outside {practice, exam}.
func NormalizeLabels(labels []string) ([]string, error) {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		if l != LabelPractice && l != LabelExam {
			return nil, NewValidationError("unknown label", FieldError{Field: "labels", Error: fmt.Sprintf("%q", l)})
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
