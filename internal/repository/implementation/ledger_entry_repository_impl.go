package implementation

import (
	"context"
	"errors"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/mapper"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/contract"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LedgerEntryMapper
}

func NewLedgerEntryRepository(db *gorm.DB) contract.LedgerEntryRepository {
	return &LedgerEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewLedgerEntryMapper(),
	}
}

func (r *LedgerEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LedgerEntryRepositoryImpl) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *LedgerEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LedgerEntry, error) {
	var m model.LedgerEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *LedgerEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LedgerEntry, error) {
	var models []*model.LedgerEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *LedgerEntryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.LedgerEntry{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LedgerEntryRepositoryImpl) MaxSequence(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("session_id = ?", sessionId).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}
