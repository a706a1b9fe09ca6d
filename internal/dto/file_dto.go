package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListFilesRequest struct {
	SubjectId int64  `query:"subjectId" validate:"required,min=1"`
	Page      int    `query:"page" validate:"min=0"`
	Size      int    `query:"size" validate:"min=0,max=100"`
	Name      string `query:"name"`
	MimeType  string `query:"mimeType"`
}

type ArchiveFileResponse struct {
	Id              uuid.UUID `json:"id"`
	SubjectId       int64     `json:"subjectId"`
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	MimeType        string    `json:"mimeType"`
	SourceSessionId string    `json:"sourceSessionId"`
	CreatedAt       time.Time `json:"createdAt"`
}

type FilePageResponse struct {
	Items []*ArchiveFileResponse `json:"items"`
	Page  int                    `json:"page"`
	Size  int                    `json:"size"`
	Total int64                  `json:"total"`
}
