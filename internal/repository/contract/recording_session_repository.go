package contract

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
)

type RecordingSessionRepository interface {
	Create(ctx context.Context, session *entity.RecordingSession) error
	Update(ctx context.Context, session *entity.RecordingSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RecordingSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
