package unitofwork

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RecordingSessionRepository() contract.RecordingSessionRepository
	LedgerEntryRepository() contract.LedgerEntryRepository
	TranscriptSegmentRepository() contract.TranscriptSegmentRepository
	EnrichmentResultRepository() contract.EnrichmentResultRepository
	TranscriptEmbeddingRepository() contract.TranscriptEmbeddingRepository
}
