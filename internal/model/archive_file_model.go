package model

import (
	"time"

	"github.com/google/uuid"
)

type ArchiveFile struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectId       int64     `gorm:"not null;index"`
	Name            string    `gorm:"type:varchar(255);not null"`
	Size            int64     `gorm:"not null"`
	MimeType        string    `gorm:"type:varchar(128)"`
	StoredPath      string    `gorm:"type:text;not null"`
	SourceSessionId string    `gorm:"type:varchar(64);index"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

func (ArchiveFile) TableName() string {
	return "archive_files"
}

// AllModels lists every table AutoMigrate manages.
func AllModels() []interface{} {
	return []interface{}{&Question{}, &QuestionImage{}, &ArchiveFile{}}
}
