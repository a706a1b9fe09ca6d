package contract

import (
	"context"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/repository/specification"
)

type ArchiveFileRepository interface {
	Create(ctx context.Context, file *entity.ArchiveFile) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchiveFile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
