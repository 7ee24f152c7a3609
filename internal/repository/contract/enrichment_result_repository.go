package contract

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
)

type EnrichmentResultRepository interface {
	Create(ctx context.Context, result *entity.EnrichmentResult) error
	Update(ctx context.Context, result *entity.EnrichmentResult) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.EnrichmentResult, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EnrichmentResult, error)
}
