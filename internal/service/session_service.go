package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrInvalidTransition rejects lifecycle moves the state machine forbids,
// including any attempt to leave a terminal state.
var ErrInvalidTransition = serverutils.NewApiError(http.StatusConflict, "Invalid session state transition")

// transitionEvents maps each reachable state to the ledger event recording
// entry into it. CREATED has no event: the ledger starts at record_start.
var transitionEvents = map[entity.SessionState]string{
	entity.SessionActive:             entity.EventRecordStart,
	entity.SessionFinalizing:         entity.EventRecordStop,
	entity.SessionCompleted:          entity.EventSessionCompleted,
	entity.SessionPartiallyCompleted: entity.EventSessionPartiallyCompleted,
	entity.SessionFailed:             entity.EventSessionFailed,
}

type ISessionService interface {
	Start(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest) (*dto.SessionResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionResponse, error)

	// Transition moves a session to target and appends the matching ledger
	// event in the same transaction. changed=false means the event was
	// already ledgered and nothing was written.
	Transition(ctx context.Context, sessionId uuid.UUID, target entity.SessionState, reason string, detail map[string]interface{}) (*entity.RecordingSession, bool, error)

	// Find returns the session row without an ownership filter, for
	// internal callers that already hold a trusted id.
	Find(ctx context.Context, sessionId uuid.UUID) (*entity.RecordingSession, error)

	// FindOwned returns the session only when userId owns it.
	FindOwned(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.RecordingSession, error)
}

type sessionService struct {
	uowFactory    unitofwork.RepositoryFactory
	ledgerService ILedgerService
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, ledgerService ILedgerService) ISessionService {
	return &sessionService{
		uowFactory:    uowFactory,
		ledgerService: ledgerService,
	}
}

func (c *sessionService) Start(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest) (*dto.SessionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	session := entity.RecordingSession{
		Id:        uuid.New(),
		TraceId:   uuid.New(),
		UserId:    userId,
		State:     entity.SessionCreated,
		CreatedAt: time.Now(),
	}

	if err := uow.RecordingSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	if req != nil && req.Activate {
		activated, _, err := c.Transition(ctx, session.Id, entity.SessionActive, "explicit_start", nil)
		if err != nil {
			return nil, err
		}
		return toSessionResponse(activated), nil
	}

	return toSessionResponse(&session), nil
}

func (c *sessionService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := c.FindOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // Not found
	}
	return toSessionResponse(session), nil
}

func (c *sessionService) Find(ctx context.Context, sessionId uuid.UUID) (*entity.RecordingSession, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.RecordingSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
	)
}

func (c *sessionService) FindOwned(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.RecordingSession, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.RecordingSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
}

func (c *sessionService) Transition(ctx context.Context, sessionId uuid.UUID, target entity.SessionState, reason string, detail map[string]interface{}) (*entity.RecordingSession, bool, error) {
	eventType, ok := transitionEvents[target]
	if !ok {
		return nil, false, fmt.Errorf("state %s has no transition event", target)
	}

	payload := map[string]interface{}{
		"state": string(target),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	for k, v := range detail {
		payload[k] = v
	}

	var updated *entity.RecordingSession
	_, created, err := c.ledgerService.Append(ctx, AppendRequest{
		SessionID: sessionId,
		EventType: eventType,
		Payload:   payload,
	}, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		session, err := uow.RecordingSessionRepository().FindOne(ctx,
			specification.ByID{ID: sessionId},
		)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if !session.State.CanTransitionTo(target) {
			return fmt.Errorf("%s -> %s: %w", session.State, target, ErrInvalidTransition)
		}

		now := time.Now()
		session.State = target
		switch target {
		case entity.SessionActive:
			if session.StartedAt == nil {
				session.StartedAt = &now
			}
		case entity.SessionFinalizing:
			session.FinalizedAt = &now
			session.StopReason = reason
		case entity.SessionCompleted, entity.SessionPartiallyCompleted:
			session.CompletedAt = &now
		case entity.SessionFailed:
			session.CompletedAt = &now
			session.StopReason = reason
		}
		session.UpdatedAt = &now

		if err := uow.RecordingSessionRepository().Update(ctx, session); err != nil {
			return err
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		// The event was already ledgered: a redelivered stop, a second
		// abort. Report the row as it stands.
		session, err := c.Find(ctx, sessionId)
		if err != nil {
			return nil, false, err
		}
		if session == nil {
			return nil, false, ErrSessionNotFound
		}
		return session, false, nil
	}

	return updated, true, nil
}

func toSessionResponse(session *entity.RecordingSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:              session.Id,
		TraceId:         session.TraceId,
		State:           string(session.State),
		StopReason:      session.StopReason,
		SegmentCount:    session.SegmentCount,
		AudioDurationMs: session.AudioDurationMs,
		AvgConfidence:   session.AvgConfidence,
		StartedAt:       session.StartedAt,
		FinalizedAt:     session.FinalizedAt,
		CompletedAt:     session.CompletedAt,
		CreatedAt:       session.CreatedAt,
	}
}
