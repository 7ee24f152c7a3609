package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/internal/websocket"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"
	"github.com/capitalrow/MinaProd-sub007/pkg/events"
	pktNats "github.com/capitalrow/MinaProd-sub007/pkg/nats"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when an append names a session that was
// never created.
var ErrSessionNotFound = serverutils.NewApiError(http.StatusNotFound, "Session not found")

// AppendRequest describes one event to write to a session's ledger.
type AppendRequest struct {
	SessionID uuid.UUID
	EventType string

	// Discriminator distinguishes repeatable events (one per segment, per
	// stage run). Leave empty for once-per-session lifecycle events.
	Discriminator string

	Payload map[string]interface{}
}

// MutateFunc runs inside the append transaction, so state changes commit or
// roll back together with their ledger entry.
type MutateFunc func(ctx context.Context, uow unitofwork.UnitOfWork) error

type ILedgerService interface {
	// Append writes one entry with the session's next sequence. When the
	// dedupe key already exists the stored entry is returned with
	// created=false and mutate never runs.
	Append(ctx context.Context, req AppendRequest, mutate MutateFunc) (*entity.LedgerEntry, bool, error)

	// Replay returns entries with sequence strictly greater than after,
	// ordered by sequence.
	Replay(ctx context.Context, sessionID uuid.UUID, after int64) ([]*entity.LedgerEntry, error)

	// ReplayFrames returns the same entries pre-encoded in the wire shape
	// live subscribers receive.
	ReplayFrames(ctx context.Context, sessionID uuid.UUID, after int64) ([][]byte, error)
}

type ledgerService struct {
	uowFactory     unitofwork.RepositoryFactory
	hub            *websocket.Hub
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger

	// mu guards locks; each session gets its own mutex so appends for one
	// session serialize without stalling the rest.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLedgerService(
	uowFactory unitofwork.RepositoryFactory,
	hub *websocket.Hub,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ILedgerService {
	return &ledgerService{
		uowFactory:     uowFactory,
		hub:            hub,
		eventPublisher: eventPublisher,
		logger:         log,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

func (c *ledgerService) sessionLock(id uuid.UUID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}

func (c *ledgerService) Append(ctx context.Context, req AppendRequest, mutate MutateFunc) (*entity.LedgerEntry, bool, error) {
	lock := c.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	dedupeKey := entity.DedupeKeyFor(req.EventType, req.Discriminator)

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	existing, err := uow.LedgerEntryRepository().FindOne(ctx,
		specification.BySessionID{SessionID: req.SessionID},
		specification.ByDedupeKey{DedupeKey: dedupeKey},
	)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if mutate != nil {
		if err := mutate(ctx, uow); err != nil {
			return nil, false, err
		}
	}

	session, err := uow.RecordingSessionRepository().FindOne(ctx,
		specification.ByID{ID: req.SessionID},
	)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, ErrSessionNotFound
	}

	maxSeq, err := uow.LedgerEntryRepository().MaxSequence(ctx, req.SessionID)
	if err != nil {
		return nil, false, err
	}

	entry := &entity.LedgerEntry{
		Id:        uuid.New(),
		SessionId: req.SessionID,
		TraceId:   session.TraceId,
		EventType: req.EventType,
		Sequence:  maxSeq + 1,
		DedupeKey: dedupeKey,
		Payload:   req.Payload,
		CreatedAt: time.Now(),
	}

	if err := uow.LedgerEntryRepository().Create(ctx, entry); err != nil {
		// Another process won the same dedupe key or sequence between our
		// read and write. Surface the stored entry instead of failing.
		if database.IsUniqueViolation(err, "") {
			uow.Rollback()
			return c.findExisting(ctx, req.SessionID, dedupeKey)
		}
		return nil, false, err
	}

	if err := uow.Commit(); err != nil {
		return nil, false, err
	}

	c.broadcast(ctx, entry)

	return entry, true, nil
}

func (c *ledgerService) findExisting(ctx context.Context, sessionID uuid.UUID, dedupeKey string) (*entity.LedgerEntry, bool, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.LedgerEntryRepository().FindOne(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.ByDedupeKey{DedupeKey: dedupeKey},
	)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("ledger write conflicted but no entry found for %s", dedupeKey)
	}
	return existing, false, nil
}

// broadcast fans a committed entry out to websocket subscribers and the
// JetStream mirror. Both are auxiliary: failures are logged, never returned.
func (c *ledgerService) broadcast(ctx context.Context, entry *entity.LedgerEntry) {
	evt := sessionEventFor(entry)

	frame, err := json.Marshal(evt.Payload())
	if err != nil {
		c.logger.Warn("LedgerService", "failed to encode ledger event", map[string]interface{}{
			"session_id": entry.SessionId,
			"event_type": entry.EventType,
			"error":      err.Error(),
		})
		return
	}

	if c.hub != nil {
		c.hub.Publish(entry.SessionId, frame)
	}

	if c.eventPublisher != nil {
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			c.logger.Warn("LedgerService", "failed to publish ledger event to jetstream", map[string]interface{}{
				"session_id": entry.SessionId,
				"event_type": entry.EventType,
				"sequence":   entry.Sequence,
				"error":      err.Error(),
			})
		}
	}
}

func (c *ledgerService) Replay(ctx context.Context, sessionID uuid.UUID, after int64) ([]*entity.LedgerEntry, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerEntryRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.SequenceAfter{After: after},
		specification.OrderBy{Field: "sequence"},
	)
}

func (c *ledgerService) ReplayFrames(ctx context.Context, sessionID uuid.UUID, after int64) ([][]byte, error) {
	entries, err := c.Replay(ctx, sessionID, after)
	if err != nil {
		return nil, err
	}

	frames := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		frame, err := json.Marshal(sessionEventFor(entry).Payload())
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func sessionEventFor(entry *entity.LedgerEntry) events.SessionEvent {
	return events.SessionEvent{
		SessionID:  entry.SessionId,
		TraceID:    entry.TraceId,
		Type:       entry.EventType,
		Sequence:   entry.Sequence,
		Data:       entry.Payload,
		OccurredAt: entry.CreatedAt,
	}
}
