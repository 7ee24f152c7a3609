package unitofwork

import (
	"context"
	"fmt"

	"github.com/capitalrow/MinaProd-sub007/internal/repository/contract"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // The active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) RecordingSessionRepository() contract.RecordingSessionRepository {
	return implementation.NewRecordingSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LedgerEntryRepository() contract.LedgerEntryRepository {
	return implementation.NewLedgerEntryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TranscriptSegmentRepository() contract.TranscriptSegmentRepository {
	return implementation.NewTranscriptSegmentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EnrichmentResultRepository() contract.EnrichmentResultRepository {
	return implementation.NewEnrichmentResultRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TranscriptEmbeddingRepository() contract.TranscriptEmbeddingRepository {
	return implementation.NewTranscriptEmbeddingRepository(u.getDB())
}
