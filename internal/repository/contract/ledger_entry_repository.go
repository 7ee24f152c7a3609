package contract

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"

	"github.com/google/uuid"
)

// LedgerEntryRepository stores the append-only per-session event history.
// Rows are never updated or deleted.
type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LedgerEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LedgerEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MaxSequence returns the highest assigned sequence for a session, or 0
	// when the ledger is empty. Callers that allocate the next sequence must
	// invoke this inside the same transaction as the Create.
	MaxSequence(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
