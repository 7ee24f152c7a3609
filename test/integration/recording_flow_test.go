package integration

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/internal/service"
	"github.com/capitalrow/MinaProd-sub007/internal/websocket"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

// recordingStack wires the real services against the test database. NATS is
// left nil (broadcast degrades to the local hub) and the hub runs without
// Redis.
type recordingStack struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     service.ILedgerService
	sessions   service.ISessionService
}

func newRecordingStack(t *testing.T) *recordingStack {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	testLogger := logger.NewNopLogger()
	hub := websocket.NewHub(nil, testLogger)
	go hub.Run()

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	ledger := service.NewLedgerService(uowFactory, hub, nil, testLogger)
	sessions := service.NewSessionService(uowFactory, ledger)

	return &recordingStack{uowFactory: uowFactory, ledger: ledger, sessions: sessions}
}

func TestSessionLifecycleLedger(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()
	userId := uuid.New()

	created, err := stack.sessions.Start(ctx, userId, &dto.StartSessionRequest{})
	assert.NoError(t, err)
	assert.Equal(t, string(entity.SessionCreated), created.State)
	sessionId := created.Id

	t.Run("activation is ledgered once", func(t *testing.T) {
		session, changed, err := stack.sessions.Transition(ctx, sessionId, entity.SessionActive, "explicit_start", nil)
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, entity.SessionActive, session.State)
		assert.NotNil(t, session.StartedAt)

		// Replaying the same transition must not write a second event.
		session, changed, err = stack.sessions.Transition(ctx, sessionId, entity.SessionActive, "explicit_start", nil)
		assert.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, entity.SessionActive, session.State)
	})

	t.Run("segment append dedupes on fingerprint", func(t *testing.T) {
		commit := func() (bool, error) {
			_, createdNow, err := stack.ledger.Append(ctx, service.AppendRequest{
				SessionID:     sessionId,
				EventType:     entity.EventSegmentFinal,
				Discriminator: "fp-abc123",
				Payload:       map[string]interface{}{"text": "hello world", "start_ms": 0, "end_ms": 1200},
			}, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
				return uow.TranscriptSegmentRepository().Create(ctx, &entity.TranscriptSegment{
					Id:          uuid.New(),
					SessionId:   sessionId,
					Kind:        entity.SegmentFinal,
					Text:        "hello world",
					StartMs:     0,
					EndMs:       1200,
					Confidence:  0.9,
					Fingerprint: "fp-abc123",
				})
			})
			return createdNow, err
		}

		first, err := commit()
		assert.NoError(t, err)
		assert.True(t, first)

		second, err := commit()
		assert.NoError(t, err)
		assert.False(t, second, "duplicate fingerprint must return the stored entry")

		uow := stack.uowFactory.NewUnitOfWork(ctx)
		count, err := uow.TranscriptSegmentRepository().Count(ctx, specification.BySessionID{SessionID: sessionId})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count, "mutate must not run on the dedupe path")
	})

	t.Run("replay is gapless and ordered", func(t *testing.T) {
		entries, err := stack.ledger.Replay(ctx, sessionId, 0)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(entries), 2)
		for i, entry := range entries {
			assert.Equal(t, int64(i+1), entry.Sequence, "sequence must be gapless from 1")
		}
		assert.Equal(t, entity.EventRecordStart, entries[0].EventType)
	})

	t.Run("stop records reason and timestamp", func(t *testing.T) {
		session, changed, err := stack.sessions.Transition(ctx, sessionId, entity.SessionFinalizing, "client_stop", nil)
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, entity.SessionFinalizing, session.State)
		assert.Equal(t, "client_stop", session.StopReason)
		assert.NotNil(t, session.FinalizedAt)
	})
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()
	userId := uuid.New()

	created, err := stack.sessions.Start(ctx, userId, &dto.StartSessionRequest{})
	assert.NoError(t, err)

	// CREATED cannot skip to COMPLETED.
	_, _, err = stack.sessions.Transition(ctx, created.Id, entity.SessionCompleted, "", nil)
	assert.True(t, errors.Is(err, service.ErrInvalidTransition))

	// Appending to a session that was never created 404s.
	_, _, err = stack.ledger.Append(ctx, service.AppendRequest{
		SessionID: uuid.New(),
		EventType: entity.EventRecordStop,
	}, nil)
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))
}

func TestOwnershipScoping(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	created, err := stack.sessions.Start(ctx, owner, &dto.StartSessionRequest{Activate: true})
	assert.NoError(t, err)
	assert.Equal(t, string(entity.SessionActive), created.State)

	found, err := stack.sessions.FindOwned(ctx, owner, created.Id)
	assert.NoError(t, err)
	assert.NotNil(t, found)

	hidden, err := stack.sessions.FindOwned(ctx, stranger, created.Id)
	assert.NoError(t, err)
	assert.Nil(t, hidden, "foreign sessions must be invisible, not forbidden")
}
