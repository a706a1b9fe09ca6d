package entity

import (
	"time"

	"github.com/google/uuid"
)

// Question is a committed question bank record. TypeCode, BaseCode and
// SubKey form the business key answer keys are matched against.
type Question struct {
	Id           uuid.UUID
	SubjectId    int64
	QuestionType string
	Difficulty   string
	Chapter      string
	Labels       []string
	Content      string
	OptionA      string
	OptionB      string
	OptionC      string
	OptionD      string
	Answer       string
	TypeCode     string
	BaseCode     string
	SubKey       string
	SessionId    string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type QuestionImage struct {
	Id          uuid.UUID
	QuestionId  uuid.UUID
	Position    int
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
