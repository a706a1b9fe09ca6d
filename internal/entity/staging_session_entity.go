package entity

import (
	"time"

	"qbank-admin/pkg/staging"
)

// QuestionCode is the business key of a staged question, kept server-side
// because the wire block does not carry it.
type QuestionCode struct {
	TypeCode string
	BaseCode string
	SubKey   string
}

type StagedDocument struct {
	Name        string
	ContentType string
	Data        []byte
}

// StagingSession is one parsed upload waiting for a commit. Exactly one of
// Questions and Answers is set, according to Kind.
type StagingSession struct {
	Id          string
	Kind        staging.Kind
	SubjectId   int64
	TotalBlocks int
	CreatedAt   time.Time
	ExpiresAt   time.Time

	Questions      []*staging.QuestionBlock
	Codes          map[int]QuestionCode
	OriginalImages map[int][]int
	ImageTypes     map[int]string

	Answers []*staging.AnswerBlock

	SaveCopy bool
	Document *StagedDocument
}

func (s *StagingSession) QuestionBlock(index int) (*staging.QuestionBlock, bool) {
	for _, b := range s.Questions {
		if b.Index == index {
			return b, true
		}
	}
	return nil, false
}

func (s *StagingSession) AnswerBlock(index int) (*staging.AnswerBlock, bool) {
	for _, b := range s.Answers {
		if b.Index == index {
			return b, true
		}
	}
	return nil, false
}

// Remaining is the time left before the session expires.
func (s *StagingSession) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}
