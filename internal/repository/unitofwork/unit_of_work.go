package unitofwork

import (
	"context"

	"qbank-admin/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	QuestionRepository() contract.QuestionRepository
	QuestionImageRepository() contract.QuestionImageRepository
	ArchiveFileRepository() contract.ArchiveFileRepository
}
