package implementation

import (
	"context"

	"gorm.io/gorm"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/mapper"
	"qbank-admin/internal/model"
	"qbank-admin/internal/repository/contract"
	"qbank-admin/internal/repository/specification"
)

type ArchiveFileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArchiveFileMapper
}

func NewArchiveFileRepository(db *gorm.DB) contract.ArchiveFileRepository {
	return &ArchiveFileRepositoryImpl{
		db:     db,
		mapper: mapper.NewArchiveFileMapper(),
	}
}

func (r *ArchiveFileRepositoryImpl) Create(ctx context.Context, file *entity.ArchiveFile) error {
	m := r.mapper.ToModel(file)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*file = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArchiveFileRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchiveFile, error) {
	var models []*model.ArchiveFile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ArchiveFileRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ArchiveFile{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
