package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/config"
	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/memory"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"
	"github.com/capitalrow/MinaProd-sub007/pkg/stt"
	"github.com/capitalrow/MinaProd-sub007/pkg/transcript"
	"github.com/capitalrow/MinaProd-sub007/pkg/vad"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

var (
	ErrNotAcceptingAudio = serverutils.NewApiError(http.StatusConflict, "Session is not accepting audio")
	ErrEmptyAudio        = serverutils.NewApiError(http.StatusBadRequest, "Audio payload is empty")
	ErrBadAudioEncoding  = serverutils.NewApiError(http.StatusBadRequest, "Audio must be base64-encoded PCM")
	ErrChunkTooLarge     = serverutils.NewApiError(http.StatusRequestEntityTooLarge, "Audio chunk exceeds the size limit")
	ErrIngestBacklog     = serverutils.NewApiError(http.StatusTooManyRequests, "Session ingest queue is full")
)

// errSegmentStale drops a committed-segment write that raced finalization.
var errSegmentStale = errors.New("session stopped accepting segments")

type IIngestService interface {
	// SubmitChunk validates, gates and queues one audio chunk. The first
	// chunk for an unknown session id creates the session; the first
	// accepted chunk activates it.
	SubmitChunk(ctx context.Context, userId uuid.UUID, req *dto.SubmitChunkRequest) (*dto.ChunkAck, error)
}

type ingestService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessionService   ISessionService
	ledgerService    ILedgerService
	pipelineService  IPipelineService
	publisherService IPublisherService
	registry         *memory.LiveSessionRegistry
	sttProvider      stt.Provider
	detector         *vad.Detector
	idleTimeout      time.Duration
	maxChunkBytes    int
	queueSize        int
	retryCfg         config.RetryConfig
	logger           logger.ILogger

	// mu serializes live-session creation so one session never gets two
	// workers.
	mu sync.Mutex
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	sessionService ISessionService,
	ledgerService ILedgerService,
	pipelineService IPipelineService,
	publisherService IPublisherService,
	registry *memory.LiveSessionRegistry,
	sttProvider stt.Provider,
	detector *vad.Detector,
	cfg *config.Config,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:       uowFactory,
		sessionService:   sessionService,
		ledgerService:    ledgerService,
		pipelineService:  pipelineService,
		publisherService: publisherService,
		registry:         registry,
		sttProvider:      sttProvider,
		detector:         detector,
		idleTimeout:      cfg.Recording.IdleTimeout,
		maxChunkBytes:    cfg.Recording.MaxChunkBytes,
		queueSize:        cfg.Recording.IngestQueueSize,
		retryCfg:         cfg.Retry,
		logger:           log,
	}
}

func (c *ingestService) SubmitChunk(ctx context.Context, userId uuid.UUID, req *dto.SubmitChunkRequest) (*dto.ChunkAck, error) {
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return nil, ErrBadAudioEncoding
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if len(audio) > c.maxChunkBytes {
		return nil, ErrChunkTooLarge
	}

	session, err := c.findOrCreateSession(ctx, userId, req.Id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // exists but owned by someone else
	}

	if session.State == entity.SessionCreated {
		session, _, err = c.sessionService.Transition(ctx, session.Id, entity.SessionActive, "first_chunk", nil)
		if err != nil {
			return nil, err
		}
	}
	if session.State != entity.SessionActive {
		return nil, ErrNotAcceptingAudio
	}

	live, err := c.ensureLive(session)
	if err != nil {
		return nil, err
	}

	// Any well-formed chunk proves the client is still streaming, silence
	// included.
	live.Touch(c.idleTimeout)

	ack := &dto.ChunkAck{
		SessionId: session.Id,
		SeqNo:     req.SeqNo,
		State:     string(session.State),
	}

	if !c.detector.IsSpeech(audio) {
		ack.Reason = "silence"
		return ack, nil
	}

	durationMs := req.DurationMs
	if durationMs <= 0 {
		durationMs = pcmDurationMs(len(audio))
	}

	chunk := stt.Chunk{
		SessionID:  session.Id,
		TraceID:    session.TraceId,
		SeqNo:      req.SeqNo,
		OffsetMs:   req.OffsetMs,
		DurationMs: durationMs,
		Audio:      audio,
	}

	// Never block the caller on a busy worker: a full queue is the client's
	// signal to slow down, not to wait.
	select {
	case live.Queue <- chunk:
	case <-live.Ctx.Done():
		return nil, ErrNotAcceptingAudio
	default:
		return nil, ErrIngestBacklog
	}

	ack.Forwarded = true
	return ack, nil
}

func (c *ingestService) findOrCreateSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.RecordingSession, error) {
	session, err := c.sessionService.Find(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session != nil {
		if session.UserId != userId {
			return nil, nil
		}
		return session, nil
	}

	// First chunk for a client-minted id opens the session.
	uow := c.uowFactory.NewUnitOfWork(ctx)
	session = &entity.RecordingSession{
		Id:        sessionId,
		TraceId:   uuid.New(),
		UserId:    userId,
		State:     entity.SessionCreated,
		CreatedAt: time.Now(),
	}
	if err := uow.RecordingSessionRepository().Create(ctx, session); err != nil {
		if database.IsUniqueViolation(err, "") {
			return c.findOrCreateSession(ctx, userId, sessionId)
		}
		return nil, err
	}
	return session, nil
}

// ensureLive returns the session's live handle, creating the queue, worker
// and idle timer on first use. Seeding the reconciler from committed rows
// keeps the duplicate guard intact across process restarts.
func (c *ingestService) ensureLive(session *entity.RecordingSession) (*memory.LiveSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if live, ok := c.registry.Get(session.Id); ok && !live.Retired() {
		return live, nil
	}

	liveCtx, cancel := context.WithCancel(context.Background())
	live := &memory.LiveSession{
		SessionID:  session.Id,
		TraceID:    session.TraceId,
		UserID:     session.UserId,
		Queue:      make(chan stt.Chunk, c.queueSize),
		Reconciler: transcript.NewReconciler(session.Id, 0),
		Ctx:        liveCtx,
		Cancel:     cancel,
	}

	c.seedReconciler(live)
	c.registry.Save(live)

	sessionId := session.Id
	live.StartIdleTimer(c.idleTimeout, func() {
		if _, err := c.pipelineService.Finalize(context.Background(), sessionId, "idle_timeout"); err != nil {
			c.logger.Warn("IngestService", "idle finalize failed", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	})

	go c.worker(live)
	return live, nil
}

func (c *ingestService) seedReconciler(live *memory.LiveSession) {
	ctx := context.Background()
	uow := c.uowFactory.NewUnitOfWork(ctx)
	segments, err := uow.TranscriptSegmentRepository().FindAll(ctx,
		specification.BySessionID{SessionID: live.SessionID},
		specification.ByKind{Kind: string(entity.SegmentFinal)},
		specification.OrderBy{Field: "start_ms"},
	)
	if err != nil {
		c.logger.Warn("IngestService", "could not seed reconciler from stored segments", map[string]interface{}{
			"session_id": live.SessionID,
			"error":      err.Error(),
		})
		return
	}

	for _, seg := range segments {
		live.Reconciler.Reconcile(&stt.Result{
			Text:       seg.Text,
			Kind:       stt.KindFinal,
			Confidence: seg.Confidence,
			StartMs:    seg.StartMs,
			EndMs:      seg.EndMs,
		})
	}
}

// worker is the single goroutine that owns a session's reconciler. It drains
// the queue until retirement cancels the context.
func (c *ingestService) worker(live *memory.LiveSession) {
	for {
		select {
		case <-live.Ctx.Done():
			return
		case chunk := <-live.Queue:
			c.processChunk(live, chunk)
		}
	}
}

func (c *ingestService) processChunk(live *memory.LiveSession, chunk stt.Chunk) {
	res, err := withRetry(live.Ctx, c.retryCfg, func() (*stt.Result, error) {
		res, err := c.sttProvider.Transcribe(live.Ctx, chunk)
		if err != nil {
			if !stt.IsTransient(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		if live.Ctx.Err() != nil {
			return // retired mid-flight
		}
		c.recordSegmentFailure(live, chunk, err)
		return
	}
	if res == nil || strings.TrimSpace(res.Text) == "" {
		return
	}

	outcome := live.Reconciler.Reconcile(res)
	if outcome.Duplicate {
		return
	}

	seg := outcome.Segment
	if seg.Kind == entity.SegmentInterim {
		c.recordInterim(live, seg, outcome.Replaced)
		return
	}
	c.commitFinal(live, seg, outcome)
}

// recordSegmentFailure ledgers an exhausted transcription so the gap is
// visible. Ingestion keeps going with the next chunk.
func (c *ingestService) recordSegmentFailure(live *memory.LiveSession, chunk stt.Chunk, cause error) {
	c.logger.Warn("IngestService", "transcription failed", map[string]interface{}{
		"session_id": live.SessionID,
		"seq_no":     chunk.SeqNo,
		"error":      cause.Error(),
	})

	_, _, err := c.ledgerService.Append(context.Background(), AppendRequest{
		SessionID:     live.SessionID,
		EventType:     entity.EventSegmentFailed,
		Discriminator: fmt.Sprintf("chunk-%d", chunk.SeqNo),
		Payload: map[string]interface{}{
			"seq_no":    chunk.SeqNo,
			"offset_ms": chunk.OffsetMs,
			"error":     cause.Error(),
		},
	}, nil)
	if err != nil {
		c.logger.Error("IngestService", "could not ledger transcription failure", map[string]interface{}{
			"session_id": live.SessionID,
			"seq_no":     chunk.SeqNo,
			"error":      err.Error(),
		})
	}
}

// recordInterim ledgers a provisional hypothesis. Interims live only in the
// reconciler's view; the ledger event is what subscribers render from.
func (c *ingestService) recordInterim(live *memory.LiveSession, seg *entity.TranscriptSegment, replaced bool) {
	_, _, err := c.ledgerService.Append(context.Background(), AppendRequest{
		SessionID:     live.SessionID,
		EventType:     entity.EventSegmentInterim,
		Discriminator: seg.Fingerprint,
		Payload: map[string]interface{}{
			"segment_id": seg.Id,
			"kind":       string(seg.Kind),
			"text":       seg.Text,
			"start_ms":   seg.StartMs,
			"end_ms":     seg.EndMs,
			"confidence": seg.Confidence,
			"replaced":   replaced,
		},
	}, nil)
	if err != nil {
		c.logger.Warn("IngestService", "could not ledger interim segment", map[string]interface{}{
			"session_id": live.SessionID,
			"error":      err.Error(),
		})
	}
}

// commitFinal stores a FINAL segment and the refreshed session aggregates in
// the same transaction as its ledger event, then queues it for embedding.
func (c *ingestService) commitFinal(live *memory.LiveSession, seg *entity.TranscriptSegment, outcome *transcript.Outcome) {
	agg := outcome.Aggregates

	_, created, err := c.ledgerService.Append(context.Background(), AppendRequest{
		SessionID:     live.SessionID,
		EventType:     entity.EventSegmentFinal,
		Discriminator: seg.Fingerprint,
		Payload: map[string]interface{}{
			"segment_id":       seg.Id,
			"kind":             string(seg.Kind),
			"text":             seg.Text,
			"start_ms":         seg.StartMs,
			"end_ms":           seg.EndMs,
			"confidence":       seg.Confidence,
			"fingerprint":      seg.Fingerprint,
			"out_of_order":     seg.OutOfOrder,
			"retired_interims": len(outcome.Retired),
		},
	}, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		session, err := uow.RecordingSessionRepository().FindOne(ctx,
			specification.ByID{ID: live.SessionID},
		)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.State != entity.SessionActive {
			return errSegmentStale
		}

		if err := uow.TranscriptSegmentRepository().Create(ctx, seg); err != nil {
			return err
		}

		now := time.Now()
		session.SegmentCount = agg.SegmentCount
		session.AudioDurationMs = agg.AudioDurationMs
		session.AvgConfidence = agg.AvgConfidence
		session.UpdatedAt = &now
		return uow.RecordingSessionRepository().Update(ctx, session)
	})
	if err != nil {
		if errors.Is(err, errSegmentStale) {
			return // finalize won the race; the segment misses the cut
		}
		c.logger.Error("IngestService", "could not commit final segment", map[string]interface{}{
			"session_id": live.SessionID,
			"error":      err.Error(),
		})
		return
	}
	if !created {
		return
	}

	msgPayload := dto.PublishEmbedSegmentMessage{SegmentId: seg.Id}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		c.logger.Warn("IngestService", "could not encode embed message", map[string]interface{}{
			"segment_id": seg.Id,
			"error":      err.Error(),
		})
		return
	}
	if err := c.publisherService.Publish(context.Background(), msgJson); err != nil {
		c.logger.Warn("IngestService", "could not queue segment for embedding", map[string]interface{}{
			"segment_id": seg.Id,
			"error":      err.Error(),
		})
	}
}

// pcmDurationMs derives a chunk's play time from its byte length, assuming
// PCM16LE mono at 16kHz: two bytes per sample, sixteen samples per ms.
func pcmDurationMs(byteLen int) int64 {
	return int64(byteLen) / 32
}
