package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/model"
)

type QuestionMapper struct{}

func NewQuestionMapper() *QuestionMapper {
	return &QuestionMapper{}
}

func (m *QuestionMapper) ToEntity(q *model.Question) *entity.Question {
	if q == nil {
		return nil
	}
	var deletedAt *time.Time
	if q.DeletedAt.Valid {
		t := q.DeletedAt.Time
		deletedAt = &t
	}
	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	var labels []string
	if len(q.Labels) > 0 {
		_ = json.Unmarshal(q.Labels, &labels)
	}

	return &entity.Question{
		Id:           q.Id,
		SubjectId:    q.SubjectId,
		QuestionType: q.QuestionType,
		Difficulty:   q.Difficulty,
		Chapter:      q.Chapter,
		Labels:       labels,
		Content:      q.Content,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		Answer:       q.Answer,
		TypeCode:     q.TypeCode,
		BaseCode:     q.BaseCode,
		SubKey:       q.SubKey,
		SessionId:    q.SessionId,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    q.DeletedAt.Valid,
	}
}

func (m *QuestionMapper) ToModel(q *entity.Question) *model.Question {
	if q == nil {
		return nil
	}
	var deletedAt gorm.DeletedAt
	if q.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *q.DeletedAt, Valid: true}
	} else if q.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	labels := q.Labels
	if labels == nil {
		labels = []string{}
	}
	raw, _ := json.Marshal(labels)

	return &model.Question{
		Id:           q.Id,
		SubjectId:    q.SubjectId,
		QuestionType: q.QuestionType,
		Difficulty:   q.Difficulty,
		Chapter:      q.Chapter,
		Labels:       datatypes.JSON(raw),
		Content:      q.Content,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		Answer:       q.Answer,
		TypeCode:     q.TypeCode,
		BaseCode:     q.BaseCode,
		SubKey:       q.SubKey,
		SessionId:    q.SessionId,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *QuestionMapper) ToEntities(questions []*model.Question) []*entity.Question {
	entities := make([]*entity.Question, len(questions))
	for i, q := range questions {
		entities[i] = m.ToEntity(q)
	}
	return entities
}

func (m *QuestionMapper) ImageToEntity(img *model.QuestionImage) *entity.QuestionImage {
	if img == nil {
		return nil
	}
	return &entity.QuestionImage{
		Id:          img.Id,
		QuestionId:  img.QuestionId,
		Position:    img.Position,
		ContentType: img.ContentType,
		Data:        img.Data,
		CreatedAt:   img.CreatedAt,
	}
}

func (m *QuestionMapper) ImageToModel(img *entity.QuestionImage) *model.QuestionImage {
	if img == nil {
		return nil
	}
	return &model.QuestionImage{
		Id:          img.Id,
		QuestionId:  img.QuestionId,
		Position:    img.Position,
		ContentType: img.ContentType,
		Data:        img.Data,
		CreatedAt:   img.CreatedAt,
	}
}
