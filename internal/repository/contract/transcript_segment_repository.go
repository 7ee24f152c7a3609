package contract

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
)

// TranscriptSegmentRepository stores committed FINAL segments. The table is
// append-only: there is no update or delete.
type TranscriptSegmentRepository interface {
	Create(ctx context.Context, segment *entity.TranscriptSegment) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptSegment, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptSegment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
