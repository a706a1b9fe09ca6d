package entity

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveFile is an original upload kept when the admin asked for a copy.
type ArchiveFile struct {
	Id              uuid.UUID
	SubjectId       int64
	Name            string
	Size            int64
	MimeType        string
	StoredPath      string
	SourceSessionId string
	CreatedAt       time.Time
}
