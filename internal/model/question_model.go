package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectId    int64          `gorm:"not null;index"`
	QuestionType string         `gorm:"type:varchar(32);not null"`
	Difficulty   string         `gorm:"type:varchar(32)"`
	Chapter      string         `gorm:"type:varchar(255)"`
	Labels       datatypes.JSON `gorm:"type:jsonb"`
	Content      string         `gorm:"type:text;not null"`
	OptionA      string         `gorm:"type:text"`
	OptionB      string         `gorm:"type:text"`
	OptionC      string         `gorm:"type:text"`
	OptionD      string         `gorm:"type:text"`
	Answer       string         `gorm:"type:text"`
	TypeCode     string         `gorm:"type:varchar(64);index:idx_question_business_key"`
	BaseCode     string         `gorm:"type:varchar(64);index:idx_question_business_key"`
	SubKey       string         `gorm:"type:varchar(8);index:idx_question_business_key"`
	SessionId    string         `gorm:"type:varchar(64);index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Images []QuestionImage `gorm:"foreignKey:QuestionId"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionImage struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	ContentType string    `gorm:"type:varchar(64)"`
	Data        []byte    `gorm:"type:bytea;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (QuestionImage) TableName() string {
	return "question_images"
}
