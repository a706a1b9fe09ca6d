package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySubjectID struct {
	SubjectID int64
}

func (s BySubjectID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subject_id = ?", s.SubjectID)
}

// ByBaseCodes narrows questions to the business keys named in an answer key.
type ByBaseCodes struct {
	BaseCodes []string
}

func (s ByBaseCodes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("base_code IN ?", s.BaseCodes)
}

type ByQuestionID struct {
	QuestionID uuid.UUID
}

func (s ByQuestionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question_id = ?", s.QuestionID)
}
