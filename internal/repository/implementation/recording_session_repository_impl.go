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

type RecordingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordingSessionMapper
}

func NewRecordingSessionRepository(db *gorm.DB) contract.RecordingSessionRepository {
	return &RecordingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordingSessionMapper(),
	}
}

func (r *RecordingSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RecordingSessionRepositoryImpl) Create(ctx context.Context, session *entity.RecordingSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordingSessionRepositoryImpl) Update(ctx context.Context, session *entity.RecordingSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordingSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RecordingSession, error) {
	var m model.RecordingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RecordingSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingSession, error) {
	var models []*model.RecordingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecordingSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.RecordingSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
