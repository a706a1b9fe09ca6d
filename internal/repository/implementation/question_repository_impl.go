package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/mapper"
	"qbank-admin/internal/model"
	"qbank-admin/internal/repository/contract"
	"qbank-admin/internal/repository/specification"
)

type QuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewQuestionRepository(db *gorm.DB) contract.QuestionRepository {
	return &QuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuestionRepositoryImpl) Create(ctx context.Context, question *entity.Question) error {
	m := r.mapper.ToModel(question)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) Update(ctx context.Context, question *entity.Question) error {
	m := r.mapper.ToModel(question)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.ToEntity(m)
	return nil
}

// UpdateAnswer reports false when the question no longer exists.
func (r *QuestionRepositoryImpl) UpdateAnswer(ctx context.Context, id uuid.UUID, answer string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Question{}).Where("id = ?", id).Update("answer", answer)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *QuestionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	var m model.Question
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	var models []*model.Question
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Question{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type QuestionImageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewQuestionImageRepository(db *gorm.DB) contract.QuestionImageRepository {
	return &QuestionImageRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func (r *QuestionImageRepositoryImpl) CreateBulk(ctx context.Context, images []*entity.QuestionImage) error {
	if len(images) == 0 {
		return nil
	}
	models := make([]*model.QuestionImage, len(images))
	for i, img := range images {
		models[i] = r.mapper.ImageToModel(img)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *QuestionImageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionImage, error) {
	var models []*model.QuestionImage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.QuestionImage, len(models))
	for i, m := range models {
		out[i] = r.mapper.ImageToEntity(m)
	}
	return out, nil
}
