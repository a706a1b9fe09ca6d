package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/entity"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/internal/repository/memory"
	"qbank-admin/internal/repository/specification"
	"qbank-admin/internal/repository/unitofwork"
	"qbank-admin/pkg/events"
	"qbank-admin/pkg/ingestion"
	"qbank-admin/pkg/staging"
)

type IAnswerImportService interface {
	Preview(ctx context.Context, req *dto.PreviewAnswersRequest, doc ingestion.Document) (*staging.AnswerSession, error)
	Commit(ctx context.Context, req *staging.AnswerCommitRequest) (*staging.AnswerCommitResult, error)
}

type answerImportService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         *memory.StagingSessionRepository
	parser           ingestion.Parser
	publisherService IPublisherService
	eventPublisher   events.Publisher
	logger           logger.ILogger
}

func NewAnswerImportService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.StagingSessionRepository,
	parser ingestion.Parser,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) IAnswerImportService {
	return &answerImportService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		parser:           parser,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

// validSubKey accepts "" for a single-answer question or one letter for a
// part of a multi-part essay.
func validSubKey(key string) bool {
	if key == "" {
		return true
	}
	if len(key) != 1 {
		return false
	}
	c := key[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func questionKey(baseCode, subKey string) string {
	return baseCode + "\x00" + strings.ToLower(subKey)
}

func (s *answerImportService) Preview(ctx context.Context, req *dto.PreviewAnswersRequest, doc ingestion.Document) (*staging.AnswerSession, error) {
	if err := staging.CheckUpload(doc.Name, int64(len(doc.Data))); err != nil {
		return nil, err
	}
	parsed, err := s.parser.ParseAnswers(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := ingestion.CheckAnswers(parsed); err != nil {
		return nil, err
	}

	baseCodes := make([]string, 0, len(parsed.Answers))
	seen := make(map[string]bool)
	for _, a := range parsed.Answers {
		if !seen[a.BaseCode] {
			seen[a.BaseCode] = true
			baseCodes = append(baseCodes, a.BaseCode)
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.QuestionRepository().FindAll(ctx,
		specification.BySubjectID{SubjectID: req.SubjectId},
		specification.ByBaseCodes{BaseCodes: baseCodes},
	)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*entity.Question, len(existing))
	for _, q := range existing {
		byKey[questionKey(q.BaseCode, q.SubKey)] = q
	}

	session := &entity.StagingSession{
		Id:          uuid.NewString(),
		Kind:        staging.KindAnswerImport,
		SubjectId:   req.SubjectId,
		TotalBlocks: len(parsed.Answers),
	}
	for i, a := range parsed.Answers {
		block := &staging.AnswerBlock{
			Index:             i,
			TypeCode:          a.TypeCode,
			BaseCode:          a.BaseCode,
			TargetQuestionIDs: make(map[string]*uuid.UUID),
			CurrentAnswers:    make(map[string]string),
			NewAnswers:        make(map[string]string),
		}
		for key, answer := range a.Answers {
			key = strings.TrimSpace(key)
			if !validSubKey(key) {
				s.logger.Warn("ANSWER_IMPORT", "Dropping answer with invalid sub-key", map[string]interface{}{
					"base_code": a.BaseCode,
					"sub_key":   key,
				})
				continue
			}
			block.NewAnswers[key] = answer
			q, ok := byKey[questionKey(a.BaseCode, key)]
			if !ok {
				block.TargetQuestionIDs[key] = nil
				continue
			}
			id := q.Id
			block.TargetQuestionIDs[key] = &id
			block.CurrentAnswers[key] = q.Answer
		}
		block.IsValid = staging.Valid(block)
		block.Include = block.IsValid
		session.Answers = append(session.Answers, block)
	}
	s.sessions.Save(session)

	s.logger.Info("ANSWER_IMPORT", "Answer document staged", map[string]interface{}{
		"session_id": session.Id,
		"subject_id": session.SubjectId,
		"blocks":     session.TotalBlocks,
		"matched":    len(existing),
	})

	return &staging.AnswerSession{
		SessionID:   session.Id,
		SubjectID:   session.SubjectId,
		TotalBlocks: session.TotalBlocks,
		Blocks:      session.Answers,
	}, nil
}

func (s *answerImportService) Commit(ctx context.Context, req *staging.AnswerCommitRequest) (*staging.AnswerCommitResult, error) {
	session, ok := s.sessions.Take(req.SessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, staging.ErrSessionExpired)
	}
	if session.Kind != staging.KindAnswerImport {
		s.sessions.Restore(session)
		return nil, staging.NewValidationError("session is not an answer import", staging.FieldError{Field: "sessionId", Error: string(session.Kind)})
	}

	result := &staging.AnswerCommitResult{Errors: []string{}}
	uow := s.uowFactory.NewUnitOfWork(ctx)
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
		block, ok := session.AnswerBlock(cb.Index)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: unknown block", cb.Index))
			continue
		}
		result.TotalBlocks++

		keys := make([]string, 0, len(block.NewAnswers))
		for key := range block.NewAnswers {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			result.TotalQuestions++
			id := block.TargetQuestionIDs[key]
			if id == nil {
				result.NotFound++
				continue
			}
			updated, err := uow.QuestionRepository().UpdateAnswer(ctx, *id, block.NewAnswers[key])
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("block %d (%s%s): %v", cb.Index, block.BaseCode, key, err))
				continue
			}
			if !updated {
				result.NotFound++
				continue
			}
			result.Success++
		}
	}

	if result.Success == 0 {
		restored := s.sessions.Restore(session)
		s.logger.Warn("ANSWER_IMPORT", "Commit applied nothing", map[string]interface{}{
			"session_id": session.Id,
			"questions":  result.TotalQuestions,
			"not_found":  result.NotFound,
			"restored":   restored,
		})
		return result, nil
	}

	announceConsumed(ctx, s.publisherService, s.logger, session)
	publishEvent(ctx, s.eventPublisher, s.logger, events.AnswersImported, map[string]interface{}{
		"session_id": session.Id,
		"subject_id": session.SubjectId,
		"questions":  result.TotalQuestions,
		"success":    result.Success,
		"not_found":  result.NotFound,
	})

	s.logger.Info("ANSWER_IMPORT", "Answers committed", map[string]interface{}{
		"session_id": session.Id,
		"blocks":     result.TotalBlocks,
		"questions":  result.TotalQuestions,
		"success":    result.Success,
		"not_found":  result.NotFound,
		"errors":     len(result.Errors),
	})
	return result, nil
}
