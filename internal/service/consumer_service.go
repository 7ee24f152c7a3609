package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/pkg/embedding"
	"github.com/capitalrow/MinaProd-sub007/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedSegmentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	segment, err := uow.TranscriptSegmentRepository().FindOne(ctx, specification.ByID{ID: payload.SegmentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get segment %s: %v", payload.SegmentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if segment == nil {
		log.Printf("[WARN] Segment not found: %s", payload.SegmentId)
		msg.Ack()
		return
	}

	// Segments are short by nature; the split only matters for the odd
	// multi-minute monologue the provider returned in one piece.
	chunks := utils.SplitText(segment.Text, 1500, 200)

	var newEmbeddings []*entity.TranscriptEmbedding

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of segment %s: %v", i, payload.SegmentId, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.TranscriptEmbedding{
			Id:         uuid.New(),
			SessionId:  segment.SessionId,
			SegmentId:  segment.Id,
			Document:   chunk,
			Embedding:  res.Embedding.Values,
			ChunkIndex: i,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Replace wholesale so a redelivered message converges instead of
	// stacking duplicate rows.
	if err := uow.TranscriptEmbeddingRepository().DeleteBySegmentId(ctx, segment.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	if len(newEmbeddings) > 0 {
		if err := uow.TranscriptEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	msg.Ack()
}
