package service

import (
	"context"
	"sort"
	"strings"

	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/memory"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/pkg/embedding"

	"github.com/google/uuid"
)

type ITranscriptService interface {
	// GetTranscript returns the committed transcript. includeInterim adds
	// the live hypotheses when the session is still recording.
	GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, includeInterim bool) (*dto.TranscriptResponse, error)

	// GetResults returns the per-stage post-processing outcomes.
	GetResults(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResultsResponse, error)

	// SemanticSearch runs a vector search over the caller's committed
	// segments.
	SemanticSearch(ctx context.Context, userId uuid.UUID, search string, limit int) ([]*dto.SemanticSearchResponse, error)
}

type transcriptService struct {
	uowFactory        unitofwork.RepositoryFactory
	registry          *memory.LiveSessionRegistry
	embeddingProvider embedding.EmbeddingProvider
}

func NewTranscriptService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.LiveSessionRegistry,
	embeddingProvider embedding.EmbeddingProvider,
) ITranscriptService {
	return &transcriptService{
		uowFactory:        uowFactory,
		registry:          registry,
		embeddingProvider: embeddingProvider,
	}
}

func (c *transcriptService) GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, includeInterim bool) (*dto.TranscriptResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RecordingSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // Not found
	}

	segments, err := uow.TranscriptSegmentRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByKind{Kind: string(entity.SegmentFinal)},
		specification.OrderBy{Field: "start_ms"},
	)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(segments))
	items := make([]dto.SegmentResponse, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
		items = append(items, toSegmentResponse(seg))
	}

	if includeInterim {
		if live, ok := c.registry.Get(sessionId); ok && !live.Retired() {
			for _, seg := range live.Reconciler.Interims() {
				items = append(items, toSegmentResponse(seg))
			}
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].StartMs < items[j].StartMs
			})
		}
	}

	return &dto.TranscriptResponse{
		SessionId: sessionId,
		State:     string(session.State),
		Text:      strings.Join(texts, " "),
		Segments:  items,
	}, nil
}

func (c *transcriptService) GetResults(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResultsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.RecordingSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // Not found
	}

	rows, err := uow.EnrichmentResultRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "stage"},
	)
	if err != nil {
		return nil, err
	}

	results := make([]dto.EnrichmentResultResponse, 0, len(rows))
	for _, row := range rows {
		results = append(results, dto.EnrichmentResultResponse{
			Stage:       row.Stage,
			Status:      string(row.Status),
			Payload:     row.Payload,
			ErrorDetail: row.ErrorDetail,
			StartedAt:   row.StartedAt,
			CompletedAt: row.CompletedAt,
		})
	}

	return &dto.SessionResultsResponse{
		SessionId: sessionId,
		State:     string(session.State),
		Results:   results,
	}, nil
}

func (c *transcriptService) SemanticSearch(ctx context.Context, userId uuid.UUID, search string, limit int) ([]*dto.SemanticSearchResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	embeddingRes, err := c.embeddingProvider.Generate(search, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.TranscriptEmbeddingRepository().SearchSimilar(ctx,
		embeddingRes.Embedding.Values, limit, userId)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.SemanticSearchResponse, 0, len(scored))
	for _, sr := range scored {
		response = append(response, &dto.SemanticSearchResponse{
			SegmentId:  sr.Embedding.SegmentId,
			SessionId:  sr.Embedding.SessionId,
			Document:   sr.Embedding.Document,
			Similarity: sr.Similarity,
		})
	}
	return response, nil
}

func toSegmentResponse(seg *entity.TranscriptSegment) dto.SegmentResponse {
	return dto.SegmentResponse{
		Id:         seg.Id,
		Kind:       string(seg.Kind),
		Text:       seg.Text,
		StartMs:    seg.StartMs,
		EndMs:      seg.EndMs,
		Confidence: seg.Confidence,
		OutOfOrder: seg.OutOfOrder,
	}
}
