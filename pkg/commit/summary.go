package commit

import (
	"fmt"
	"strings"

	"qbank-admin/pkg/staging"
)

type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomePartial
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomePartial:
		return "partial"
	default:
		return "failed"
	}
}

// Summary is the acknowledgment shown after every commit, whatever its result.
type Summary struct {
	Kind      staging.Kind
	Total     int
	Succeeded int
	Failed    int
	NotFound  int
	Errors    []string
	Outcome   Outcome
	Message   string
}

// ReconcileQuestions turns a question commit result into a summary. The
// result carries no per-index failures, so only counts and messages are kept.
func ReconcileQuestions(r staging.QuestionCommitResult) Summary {
	s := Summary{
		Kind:      staging.KindQuestionImport,
		Total:     r.Total,
		Succeeded: r.Success,
		Failed:    max(r.Total-r.Success, 0),
		Errors:    append([]string(nil), r.Errors...),
	}
	s.Outcome = outcomeOf(s)
	switch s.Outcome {
	case OutcomeSucceeded:
		s.Message = fmt.Sprintf("Imported %d of %d questions.", s.Succeeded, s.Total)
	case OutcomePartial:
		s.Message = fmt.Sprintf("Imported %d of %d questions; %s.", s.Succeeded, s.Total, failureDetail(s))
	default:
		s.Message = fmt.Sprintf("No questions were imported; %s.", failureDetail(s))
	}
	return s
}

// ReconcileAnswers turns an answer commit result into a summary counted in
// questions, since one block may address several sub-questions.
func ReconcileAnswers(r staging.AnswerCommitResult) Summary {
	s := Summary{
		Kind:      staging.KindAnswerImport,
		Total:     r.TotalQuestions,
		Succeeded: r.Success,
		Failed:    max(r.TotalQuestions-r.Success-r.NotFound, 0),
		NotFound:  r.NotFound,
		Errors:    append([]string(nil), r.Errors...),
	}
	s.Outcome = outcomeOf(s)
	switch s.Outcome {
	case OutcomeSucceeded:
		s.Message = fmt.Sprintf("Updated %d of %d answers from %d blocks.", s.Succeeded, s.Total, r.TotalBlocks)
	case OutcomePartial:
		s.Message = fmt.Sprintf("Updated %d of %d answers; %s.", s.Succeeded, s.Total, failureDetail(s))
	default:
		s.Message = fmt.Sprintf("No answers were updated; %s.", failureDetail(s))
	}
	return s
}

// Failure builds the summary for a commit that never produced a result.
func Failure(kind staging.Kind, err error) Summary {
	return Summary{Kind: kind, Outcome: OutcomeFailed, Errors: []string{err.Error()}, Message: "Commit failed: " + err.Error()}
}

// outcomeOf never reports success while anything is short, missing or erroring.
func outcomeOf(s Summary) Outcome {
	if s.Succeeded >= s.Total && s.NotFound == 0 && len(s.Errors) == 0 && s.Total > 0 {
		return OutcomeSucceeded
	}
	if s.Succeeded > 0 {
		return OutcomePartial
	}
	return OutcomeFailed
}

func failureDetail(s Summary) string {
	var parts []string
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	}
	if s.NotFound > 0 {
		parts = append(parts, fmt.Sprintf("%d not found", s.NotFound))
	}
	if n := len(s.Errors); n > 0 {
		parts = append(parts, plural(n, "error"))
	}
	if len(parts) == 0 {
		return "nothing was committed"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
