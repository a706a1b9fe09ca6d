package contract

import (
	"context"

	"github.com/google/uuid"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/repository/specification"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	Update(ctx context.Context, question *entity.Question) error
	UpdateAnswer(ctx context.Context, id uuid.UUID, answer string) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type QuestionImageRepository interface {
	CreateBulk(ctx context.Context, images []*entity.QuestionImage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionImage, error)
}
