package integration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/config"
	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/memory"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"
	"github.com/capitalrow/MinaProd-sub007/internal/service"
	"github.com/capitalrow/MinaProd-sub007/pkg/enrichment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// stubStage stands in for the model-backed stages so pipeline behavior can
// be tested against the real database without an LLM.
type stubStage struct {
	name  string
	calls int32

	// failFirst is returned on the first call only, simulating a
	// transient upstream error.
	failFirst error

	// fail makes Run return this error while set. Atomic so a test can
	// repair a stage between runs.
	fail atomic.Value

	// delay simulates a model call stuck past the run deadline. A hard
	// sleep: a hung HTTP client does not notice its context either.
	delay time.Duration
}

func newStubStage(name string) *stubStage {
	s := &stubStage{name: name}
	s.fail.Store(error(nil))
	return s
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(ctx context.Context, in enrichment.Input) (map[string]interface{}, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if n == 1 && s.failFirst != nil {
		return nil, s.failFirst
	}
	if err, _ := s.fail.Load().(error); err != nil {
		return nil, err
	}
	return map[string]interface{}{"stage": s.name, "ok": true}, nil
}

// fullStageSet returns the four stage names with the given stubs substituted
// in by name.
func fullStageSet(overrides ...*stubStage) []enrichment.Stage {
	byName := make(map[string]*stubStage, len(overrides))
	for _, s := range overrides {
		byName[s.name] = s
	}
	stages := make([]enrichment.Stage, 0, 4)
	for _, name := range entity.EnrichmentStages() {
		if s, ok := byName[name]; ok {
			stages = append(stages, s)
			continue
		}
		stages = append(stages, newStubStage(name))
	}
	return stages
}

func pipelineConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Enrichment.Deadline = 15 * time.Second
	cfg.Enrichment.PoolWorkers = 2
	cfg.Enrichment.PoolQueue = 8
	cfg.Retry.BaseDelay = 10 * time.Millisecond
	cfg.Retry.MaxDelay = 50 * time.Millisecond
	cfg.Retry.MaxAttempts = 2
	return cfg
}

func newPipeline(t *testing.T, stack *recordingStack, stages []enrichment.Stage, cfg *config.Config) service.IPipelineService {
	t.Helper()
	testLogger := logger.NewNopLogger()
	return service.NewPipelineService(stack.uowFactory, stack.sessions, stack.ledger, memory.NewLiveSessionRegistry(), stages, cfg, testLogger)
}

func startActiveSession(t *testing.T, stack *recordingStack) (uuid.UUID, uuid.UUID) {
	t.Helper()
	userId := uuid.New()
	created, err := stack.sessions.Start(context.Background(), userId, &dto.StartSessionRequest{Activate: true})
	assert.NoError(t, err)
	return userId, created.Id
}

func waitForState(t *testing.T, stack *recordingStack, sessionId uuid.UUID, want entity.SessionState) {
	t.Helper()
	assert.Eventually(t, func() bool {
		session, err := stack.sessions.Find(context.Background(), sessionId)
		if err != nil || session == nil {
			return false
		}
		return session.State == want
	}, 20*time.Second, 100*time.Millisecond, "session never reached %s", want)
}

func stageRows(t *testing.T, stack *recordingStack, sessionId uuid.UUID) map[string]*entity.EnrichmentResult {
	t.Helper()
	uow := stack.uowFactory.NewUnitOfWork(context.Background())
	rows, err := uow.EnrichmentResultRepository().FindAll(context.Background(), specification.BySessionID{SessionID: sessionId})
	assert.NoError(t, err)
	byStage := make(map[string]*entity.EnrichmentResult, len(rows))
	for _, row := range rows {
		byStage[row.Stage] = row
	}
	return byStage
}

func TestPipelineCompletesWhenAllStagesReady(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()

	pipeline := newPipeline(t, stack, fullStageSet(), pipelineConfig())

	userId, sessionId := startActiveSession(t, stack)

	resp, err := pipeline.Stop(ctx, userId, &dto.StopSessionRequest{Id: sessionId})
	assert.NoError(t, err)
	assert.Equal(t, string(entity.SessionFinalizing), resp.State)

	waitForState(t, stack, sessionId, entity.SessionCompleted)

	rows := stageRows(t, stack, sessionId)
	assert.Len(t, rows, 4)
	for stage, row := range rows {
		assert.Equal(t, entity.EnrichmentReady, row.Status, "stage %s", stage)
		assert.NotNil(t, row.CompletedAt)
	}

	// A second stop after completion is a replay, not an error.
	resp, err = pipeline.Stop(ctx, userId, &dto.StopSessionRequest{Id: sessionId})
	assert.NoError(t, err)
	assert.Equal(t, string(entity.SessionCompleted), resp.State)
}

func TestPipelineToleratesSingleStageFailure(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()

	broken := newStubStage(entity.StageTasks)
	broken.fail.Store(fmt.Errorf("parse stage output: %w", enrichment.ErrMalformedOutput))

	pipeline := newPipeline(t, stack, fullStageSet(broken), pipelineConfig())

	userId, sessionId := startActiveSession(t, stack)

	_, err := pipeline.Stop(ctx, userId, &dto.StopSessionRequest{Id: sessionId})
	assert.NoError(t, err)

	waitForState(t, stack, sessionId, entity.SessionPartiallyCompleted)

	rows := stageRows(t, stack, sessionId)
	assert.Equal(t, entity.EnrichmentFailed, rows[entity.StageTasks].Status)
	assert.Contains(t, rows[entity.StageTasks].ErrorDetail, "malformed")
	assert.Equal(t, entity.EnrichmentReady, rows[entity.StageRefinement].Status)
	assert.Equal(t, entity.EnrichmentReady, rows[entity.StageAnalytics].Status)
	assert.Equal(t, entity.EnrichmentReady, rows[entity.StageSummary].Status)

	// Malformed output is permanent: the stage must not have been retried.
	assert.Equal(t, int32(1), atomic.LoadInt32(&broken.calls))

	t.Run("rerun repairs the failed stage but keeps the terminal state", func(t *testing.T) {
		broken.fail.Store(error(nil))

		err := pipeline.Rerun(ctx, userId, sessionId)
		assert.NoError(t, err)

		assert.Eventually(t, func() bool {
			rows := stageRows(t, stack, sessionId)
			return rows[entity.StageTasks].Status == entity.EnrichmentReady
		}, 20*time.Second, 100*time.Millisecond, "rerun never repaired the failed stage")

		session, err := stack.sessions.Find(ctx, sessionId)
		assert.NoError(t, err)
		assert.Equal(t, entity.SessionPartiallyCompleted, session.State, "terminal states are never revisited")
	})
}

func TestPipelineRetriesTransientStageErrors(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()

	flaky := newStubStage(entity.StageSummary)
	flaky.failFirst = errors.New("upstream 503")

	pipeline := newPipeline(t, stack, fullStageSet(flaky), pipelineConfig())

	userId, sessionId := startActiveSession(t, stack)

	_, err := pipeline.Stop(ctx, userId, &dto.StopSessionRequest{Id: sessionId})
	assert.NoError(t, err)

	waitForState(t, stack, sessionId, entity.SessionCompleted)
	assert.Equal(t, int32(2), atomic.LoadInt32(&flaky.calls), "transient failure should be retried once")
}

func TestPipelineWatchdogFailsStuckStages(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()

	stuck := newStubStage(entity.StageRefinement)
	stuck.delay = 5 * time.Second

	cfg := pipelineConfig()
	cfg.Enrichment.Deadline = 300 * time.Millisecond

	pipeline := newPipeline(t, stack, fullStageSet(stuck), cfg)

	userId, sessionId := startActiveSession(t, stack)

	_, err := pipeline.Stop(ctx, userId, &dto.StopSessionRequest{Id: sessionId})
	assert.NoError(t, err)

	waitForState(t, stack, sessionId, entity.SessionPartiallyCompleted)

	rows := stageRows(t, stack, sessionId)
	assert.Equal(t, entity.EnrichmentFailed, rows[entity.StageRefinement].Status)
	assert.Contains(t, rows[entity.StageRefinement].ErrorDetail, "timeout")
}

func TestRerunRejectsUnresolvedSessions(t *testing.T) {
	stack := newRecordingStack(t)
	ctx := context.Background()

	pipeline := newPipeline(t, stack, fullStageSet(), pipelineConfig())

	userId, sessionId := startActiveSession(t, stack)

	err := pipeline.Rerun(ctx, userId, sessionId)
	assert.True(t, errors.Is(err, service.ErrNotFinalizing), "rerun of an ACTIVE session must be rejected")
}
