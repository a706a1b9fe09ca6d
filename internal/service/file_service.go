package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/entity"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/internal/repository/specification"
	"qbank-admin/internal/repository/unitofwork"
	"qbank-admin/pkg/events"
)

const defaultPageSize = 20

// documentTypes covers the upload types the host mime table may not know.
var documentTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type IFileService interface {
	List(ctx context.Context, req *dto.ListFilesRequest) (*dto.FilePageResponse, error)
	Archive(ctx context.Context, session *entity.StagingSession) (*entity.ArchiveFile, error)
}

type fileService struct {
	uowFactory     unitofwork.RepositoryFactory
	uploadDir      string
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewFileService(
	uowFactory unitofwork.RepositoryFactory,
	uploadDir string,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) IFileService {
	return &fileService{
		uowFactory:     uowFactory,
		uploadDir:      uploadDir,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *fileService) List(ctx context.Context, req *dto.ListFilesRequest) (*dto.FilePageResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Size
	if size < 1 {
		size = defaultPageSize
	}

	filters := []specification.Specification{specification.BySubjectID{SubjectID: req.SubjectId}}
	if req.Name != "" {
		filters = append(filters, specification.NameContains{Term: req.Name})
	}
	if req.MimeType != "" {
		filters = append(filters, specification.Filter("mime_type", req.MimeType))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.ArchiveFileRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	query := append(append([]specification.Specification{}, filters...),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Page(page, size),
	)
	files, err := uow.ArchiveFileRepository().FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ArchiveFileResponse, 0, len(files))
	for _, f := range files {
		items = append(items, &dto.ArchiveFileResponse{
			Id:              f.Id,
			SubjectId:       f.SubjectId,
			Name:            f.Name,
			Size:            f.Size,
			MimeType:        f.MimeType,
			SourceSessionId: f.SourceSessionId,
			CreatedAt:       f.CreatedAt,
		})
	}

	return &dto.FilePageResponse{
		Items: items,
		Page:  page,
		Size:  size,
		Total: total,
	}, nil
}

// Archive writes the original document of a committed session under
// uploadDir/<subject>/ and records it.
func (s *fileService) Archive(ctx context.Context, session *entity.StagingSession) (*entity.ArchiveFile, error) {
	doc := session.Document
	if doc == nil {
		return nil, fmt.Errorf("session %s kept no document", session.Id)
	}

	id := uuid.New()
	dir := filepath.Join(s.uploadDir, fmt.Sprintf("%d", session.SubjectId))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	path := filepath.Join(dir, id.String()+"-"+filepath.Base(doc.Name))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write archive file: %w", err)
	}

	mimeType := doc.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(doc.Name))
		if known, ok := documentTypes[ext]; ok {
			mimeType = known
		} else if byExt := mime.TypeByExtension(ext); byExt != "" {
			mimeType = byExt
		}
	}

	file := &entity.ArchiveFile{
		Id:              id,
		SubjectId:       session.SubjectId,
		Name:            filepath.Base(doc.Name),
		Size:            int64(len(doc.Data)),
		MimeType:        mimeType,
		StoredPath:      path,
		SourceSessionId: session.Id,
		CreatedAt:       time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ArchiveFileRepository().Create(ctx, file); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("FILE", "Failed to remove orphan archive file", map[string]interface{}{"path": path, "error": rmErr.Error()})
		}
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.FileArchived, map[string]interface{}{
		"file_id":    file.Id.String(),
		"subject_id": file.SubjectId,
		"name":       file.Name,
	})
	s.logger.Info("FILE", "Original document archived", map[string]interface{}{
		"file_id":    file.Id.String(),
		"session_id": session.Id,
		"size":       file.Size,
	})
	return file, nil
}
