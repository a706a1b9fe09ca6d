package mapper

import (
	"qbank-admin/internal/entity"
	"qbank-admin/internal/model"
)

type ArchiveFileMapper struct{}

func NewArchiveFileMapper() *ArchiveFileMapper {
	return &ArchiveFileMapper{}
}

func (m *ArchiveFileMapper) ToEntity(f *model.ArchiveFile) *entity.ArchiveFile {
	if f == nil {
		return nil
	}
	return &entity.ArchiveFile{
		Id:              f.Id,
		SubjectId:       f.SubjectId,
		Name:            f.Name,
		Size:            f.Size,
		MimeType:        f.MimeType,
		StoredPath:      f.StoredPath,
		SourceSessionId: f.SourceSessionId,
		CreatedAt:       f.CreatedAt,
	}
}

func (m *ArchiveFileMapper) ToModel(f *entity.ArchiveFile) *model.ArchiveFile {
	if f == nil {
		return nil
	}
	return &model.ArchiveFile{
		Id:              f.Id,
		SubjectId:       f.SubjectId,
		Name:            f.Name,
		Size:            f.Size,
		MimeType:        f.MimeType,
		StoredPath:      f.StoredPath,
		SourceSessionId: f.SourceSessionId,
		CreatedAt:       f.CreatedAt,
	}
}

func (m *ArchiveFileMapper) ToEntities(files []*model.ArchiveFile) []*entity.ArchiveFile {
	entities := make([]*entity.ArchiveFile, len(files))
	for i, f := range files {
		entities[i] = m.ToEntity(f)
	}
	return entities
}
