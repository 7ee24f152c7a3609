package implementation

import (
	"context"
	"errors"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/mapper"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/contract"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"

	"gorm.io/gorm"
)

type EnrichmentResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EnrichmentResultMapper
}

func NewEnrichmentResultRepository(db *gorm.DB) contract.EnrichmentResultRepository {
	return &EnrichmentResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewEnrichmentResultMapper(),
	}
}

func (r *EnrichmentResultRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EnrichmentResultRepositoryImpl) Create(ctx context.Context, result *entity.EnrichmentResult) error {
	m := r.mapper.ToModel(result)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*result = *r.mapper.ToEntity(m)
	return nil
}

func (r *EnrichmentResultRepositoryImpl) Update(ctx context.Context, result *entity.EnrichmentResult) error {
	m := r.mapper.ToModel(result)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*result = *r.mapper.ToEntity(m)
	return nil
}

func (r *EnrichmentResultRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnrichmentResult, error) {
	var m model.EnrichmentResult
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EnrichmentResultRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EnrichmentResult, error) {
	var models []*model.EnrichmentResult
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
