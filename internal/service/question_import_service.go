package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/entity"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/internal/repository/memory"
	"qbank-admin/internal/repository/unitofwork"
	"qbank-admin/pkg/events"
	"qbank-admin/pkg/imagestore"
	"qbank-admin/pkg/ingestion"
	"qbank-admin/pkg/staging"
)

type IQuestionImportService interface {
	Preview(ctx context.Context, req *dto.PreviewQuestionsRequest, doc ingestion.Document) (*staging.QuestionSession, error)
	Image(ctx context.Context, sessionID string, index int) (imagestore.Image, error)
	Commit(ctx context.Context, req *staging.QuestionCommitRequest, saveCopy bool) (*staging.QuestionCommitResult, error)
}

type questionImportService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         *memory.StagingSessionRepository
	images           imagestore.Store
	parser           ingestion.Parser
	fileService      IFileService
	publisherService IPublisherService
	eventPublisher   events.Publisher
	logger           logger.ILogger
}

func NewQuestionImportService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.StagingSessionRepository,
	images imagestore.Store,
	parser ingestion.Parser,
	fileService IFileService,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) IQuestionImportService {
	return &questionImportService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		images:           images,
		parser:           parser,
		fileService:      fileService,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

// SplitLabels parses the comma separated labels form field.
func SplitLabels(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return staging.NormalizeLabels(strings.Split(raw, ","))
}

func (s *questionImportService) Preview(ctx context.Context, req *dto.PreviewQuestionsRequest, doc ingestion.Document) (*staging.QuestionSession, error) {
	if err := staging.CheckUpload(doc.Name, int64(len(doc.Data))); err != nil {
		return nil, err
	}
	labels, err := SplitLabels(req.Labels)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseQuestions(ctx, doc, ingestion.QuestionOptions{Labels: labels})
	if err != nil {
		return nil, err
	}
	if err := ingestion.CheckQuestions(parsed); err != nil {
		return nil, err
	}

	session := &entity.StagingSession{
		Id:             uuid.NewString(),
		Kind:           staging.KindQuestionImport,
		SubjectId:      req.SubjectId,
		TotalBlocks:    len(parsed.Questions),
		Codes:          make(map[int]entity.QuestionCode, len(parsed.Questions)),
		OriginalImages: make(map[int][]int, len(parsed.Questions)),
		ImageTypes:     make(map[int]string, len(parsed.Images)),
		SaveCopy:       req.SaveCopy,
	}
	for i, q := range parsed.Questions {
		block := &staging.QuestionBlock{
			Index:           i,
			QuestionType:    q.QuestionType,
			Difficulty:      q.Difficulty,
			Chapter:         q.Chapter,
			Labels:          append([]string{}, labels...),
			Content:         q.Content,
			OptionA:         q.OptionA,
			OptionB:         q.OptionB,
			OptionC:         q.OptionC,
			OptionD:         q.OptionD,
			Answer:          q.Answer,
			ImageIndexes:    append([]int{}, q.ImageIndexes...),
			AllImageIndexes: append([]int{}, q.ImageIndexes...),
			Warnings:        q.Warnings,
			Include:         true,
		}
		session.Questions = append(session.Questions, block)
		session.Codes[i] = entity.QuestionCode{TypeCode: q.TypeCode, BaseCode: q.BaseCode, SubKey: q.SubKey}
		session.OriginalImages[i] = block.AllImageIndexes
	}
	if req.SaveCopy {
		session.Document = &entity.StagedDocument{Name: doc.Name, ContentType: doc.ContentType, Data: doc.Data}
	}

	for _, img := range parsed.Images {
		session.ImageTypes[img.Index] = img.ContentType
		if err := s.images.Save(ctx, session.Id, img.Index, imagestore.Image{ContentType: img.ContentType, Data: img.Data}, s.sessions.TTL()); err != nil {
			if _, purgeErr := s.images.Purge(ctx, session.Id); purgeErr != nil {
				s.logger.Warn("QUESTION_IMPORT", "Failed to purge partial images", map[string]interface{}{"session_id": session.Id, "error": purgeErr.Error()})
			}
			return nil, fmt.Errorf("failed to stage image %d: %w", img.Index, err)
		}
	}
	s.sessions.Save(session)

	s.logger.Info("QUESTION_IMPORT", "Question document staged", map[string]interface{}{
		"session_id": session.Id,
		"subject_id": session.SubjectId,
		"blocks":     session.TotalBlocks,
		"images":     len(parsed.Images),
	})

	return &staging.QuestionSession{
		SessionID:   session.Id,
		SubjectID:   session.SubjectId,
		TotalBlocks: session.TotalBlocks,
		Blocks:      session.Questions,
	}, nil
}

func (s *questionImportService) Image(ctx context.Context, sessionID string, index int) (imagestore.Image, error) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return imagestore.Image{}, fmt.Errorf("session %s: %w", sessionID, staging.ErrImageNotFound)
	}
	return s.images.Get(ctx, sessionID, index)
}

func (s *questionImportService) Commit(ctx context.Context, req *staging.QuestionCommitRequest, saveCopy bool) (*staging.QuestionCommitResult, error) {
	session, ok := s.sessions.Take(req.SessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, staging.ErrSessionExpired)
	}
	if session.Kind != staging.KindQuestionImport {
		s.sessions.Restore(session)
		return nil, staging.NewValidationError("session is not a question import", staging.FieldError{Field: "sessionId", Error: string(session.Kind)})
	}

	result := &staging.QuestionCommitResult{Errors: []string{}}
	seen := make(map[int]bool, len(req.Blocks))
	for _, cb := range req.Blocks {
		if !cb.Include {
			continue
		}
		if seen[cb.Index] {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: duplicate", cb.Index))
			continue
		}
		seen[cb.Index] = true
		result.Total++
		if err := s.commitBlock(ctx, session, cb); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", cb.Index, err))
			continue
		}
		result.Success++
	}

	if result.Success == 0 {
		restored := s.sessions.Restore(session)
		s.logger.Warn("QUESTION_IMPORT", "Commit applied nothing", map[string]interface{}{
			"session_id": session.Id,
			"total":      result.Total,
			"errors":     len(result.Errors),
			"restored":   restored,
		})
		return result, nil
	}

	if saveCopy {
		if session.Document == nil {
			result.Errors = append(result.Errors, "original document was not kept at preview")
		} else if _, err := s.fileService.Archive(ctx, session); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("archive: %v", err))
		}
	}

	announceConsumed(ctx, s.publisherService, s.logger, session)
	publishEvent(ctx, s.eventPublisher, s.logger, events.QuestionsImported, map[string]interface{}{
		"session_id": session.Id,
		"subject_id": session.SubjectId,
		"total":      result.Total,
		"success":    result.Success,
	})

	s.logger.Info("QUESTION_IMPORT", "Questions committed", map[string]interface{}{
		"session_id": session.Id,
		"total":      result.Total,
		"success":    result.Success,
		"errors":     len(result.Errors),
	})
	return result, nil
}

// commitBlock validates one edited block and stores it with its selected
// images in a unit of work of its own.
func (s *questionImportService) commitBlock(ctx context.Context, session *entity.StagingSession, cb staging.QuestionCommitBlock) error {
	original, ok := session.QuestionBlock(cb.Index)
	if !ok {
		return fmt.Errorf("unknown block")
	}
	labels, err := staging.NormalizeLabels(cb.Labels)
	if err != nil {
		return err
	}
	edited := &staging.QuestionBlock{
		Index:           cb.Index,
		QuestionType:    cb.QuestionType,
		Difficulty:      cb.Difficulty,
		Chapter:         cb.Chapter,
		Labels:          labels,
		Content:         cb.Content,
		OptionA:         cb.OptionA,
		OptionB:         cb.OptionB,
		OptionC:         cb.OptionC,
		OptionD:         cb.OptionD,
		Answer:          cb.Answer,
		ImageIndexes:    cb.ImageIndexes,
		AllImageIndexes: original.AllImageIndexes,
	}
	if err := staging.CheckImageSubset(edited.ImageIndexes, edited.AllImageIndexes); err != nil {
		return err
	}
	if err := staging.ValidateQuestion(edited); err != nil {
		return err
	}
	if edited.QuestionType == staging.QuestionTypeMultipleChoice {
		edited.Answer = staging.NormalizeAnswer(edited.Answer)
	}

	pictures := make([]imagestore.Image, 0, len(edited.ImageIndexes))
	for _, idx := range edited.ImageIndexes {
		img, err := s.images.Get(ctx, session.Id, idx)
		if err != nil {
			if errors.Is(err, staging.ErrImageNotFound) {
				return fmt.Errorf("image %d is no longer staged", idx)
			}
			return err
		}
		pictures = append(pictures, img)
	}

	code := session.Codes[cb.Index]
	now := time.Now()
	question := &entity.Question{
		Id:           uuid.New(),
		SubjectId:    session.SubjectId,
		QuestionType: string(edited.QuestionType),
		Difficulty:   edited.Difficulty,
		Chapter:      edited.Chapter,
		Labels:       edited.Labels,
		Content:      edited.Content,
		OptionA:      edited.OptionA,
		OptionB:      edited.OptionB,
		OptionC:      edited.OptionC,
		OptionD:      edited.OptionD,
		Answer:       edited.Answer,
		TypeCode:     code.TypeCode,
		BaseCode:     code.BaseCode,
		SubKey:       code.SubKey,
		SessionId:    session.Id,
		CreatedAt:    now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.QuestionRepository().Create(ctx, question); err != nil {
		return err
	}
	if len(pictures) > 0 {
		rows := make([]*entity.QuestionImage, len(pictures))
		for i, img := range pictures {
			rows[i] = &entity.QuestionImage{
				Id:          uuid.New(),
				QuestionId:  question.Id,
				Position:    i,
				ContentType: img.ContentType,
				Data:        img.Data,
				CreatedAt:   now,
			}
		}
		if err := uow.QuestionImageRepository().CreateBulk(ctx, rows); err != nil {
			return err
		}
	}
	return uow.Commit()
}
