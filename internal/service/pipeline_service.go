package service

import (
	"context"
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
	"github.com/capitalrow/MinaProd-sub007/pkg/enrichment"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// ErrNotFinalizing rejects a post-processing run for a session that is not
// in FINALIZING and was not forced.
var ErrNotFinalizing = serverutils.NewApiError(http.StatusConflict, "Session is not ready for post-processing")

// errStageResolved aborts a stage-event append when the result row already
// reached a terminal status, e.g. the watchdog failed it first.
var errStageResolved = errors.New("stage already resolved")

type IPipelineService interface {
	// Stop finalizes an owned session on explicit client request.
	Stop(ctx context.Context, userId uuid.UUID, req *dto.StopSessionRequest) (*dto.SessionResponse, error)

	// Abort fails an owned session and cancels any post-processing run.
	Abort(ctx context.Context, userId uuid.UUID, req *dto.AbortSessionRequest) (*dto.SessionResponse, error)

	// Rerun re-dispatches the stages of an owned, already-resolved session.
	Rerun(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error

	// Finalize moves a session into FINALIZING, retires its ingest worker
	// and dispatches Run in the background. Trusted internal entry point:
	// the idle timer calls it without an owner.
	Finalize(ctx context.Context, sessionId uuid.UUID, reason string) (*entity.RecordingSession, error)

	// Run executes every unresolved stage for a finalized session and
	// settles the terminal state. Blocks until the run resolves or the
	// deadline expires.
	Run(ctx context.Context, sessionId uuid.UUID, force bool) error
}

type pipelineService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionService ISessionService
	ledgerService  ILedgerService
	registry       *memory.LiveSessionRegistry
	stages         []enrichment.Stage
	pool           *stagePool
	deadline       time.Duration
	retryCfg       config.RetryConfig
	logger         logger.ILogger

	// runs maps a session to its active run's cancel func so Abort can
	// interrupt stages mid-flight.
	runs sync.Map
}

func NewPipelineService(
	uowFactory unitofwork.RepositoryFactory,
	sessionService ISessionService,
	ledgerService ILedgerService,
	registry *memory.LiveSessionRegistry,
	stages []enrichment.Stage,
	cfg *config.Config,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		uowFactory:     uowFactory,
		sessionService: sessionService,
		ledgerService:  ledgerService,
		registry:       registry,
		stages:         stages,
		pool:           newStagePool(cfg.Enrichment.PoolWorkers, cfg.Enrichment.PoolQueue),
		deadline:       cfg.Enrichment.Deadline,
		retryCfg:       cfg.Retry,
		logger:         log,
	}
}

func (c *pipelineService) Stop(ctx context.Context, userId uuid.UUID, req *dto.StopSessionRequest) (*dto.SessionResponse, error) {
	session, err := c.sessionService.FindOwned(ctx, userId, req.Id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // Not found
	}

	reason := req.Reason
	if reason == "" {
		reason = "client_stop"
	}

	updated, err := c.Finalize(ctx, req.Id, reason)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(updated), nil
}

func (c *pipelineService) Abort(ctx context.Context, userId uuid.UUID, req *dto.AbortSessionRequest) (*dto.SessionResponse, error) {
	session, err := c.sessionService.FindOwned(ctx, userId, req.Id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil // Not found
	}

	reason := req.Reason
	if reason == "" {
		reason = "aborted"
	}

	updated, _, err := c.sessionService.Transition(ctx, req.Id, entity.SessionFailed, reason, nil)
	if err != nil {
		return nil, err
	}

	c.retireLive(req.Id)
	if cancel, ok := c.runs.Load(req.Id); ok {
		cancel.(context.CancelFunc)()
	}

	return toSessionResponse(updated), nil
}

func (c *pipelineService) Rerun(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	session, err := c.sessionService.FindOwned(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if !session.State.Terminal() || session.State == entity.SessionFailed {
		return ErrNotFinalizing
	}

	go func() {
		if err := c.Run(context.Background(), sessionId, true); err != nil {
			c.logger.Warn("PipelineService", "re-run failed", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	}()
	return nil
}

func (c *pipelineService) Finalize(ctx context.Context, sessionId uuid.UUID, reason string) (*entity.RecordingSession, error) {
	session, _, err := c.sessionService.Transition(ctx, sessionId, entity.SessionFinalizing, reason, nil)
	if err != nil {
		return nil, err
	}

	c.retireLive(sessionId)

	// Freeze marker with the transcript aggregates. Appended on every
	// finalize attempt so a retried stop heals a partial first pass; the
	// dedupe key keeps it single.
	_, _, err = c.ledgerService.Append(ctx, AppendRequest{
		SessionID: sessionId,
		EventType: entity.EventSessionFinalized,
		Payload: map[string]interface{}{
			"segment_count":     session.SegmentCount,
			"audio_duration_ms": session.AudioDurationMs,
			"avg_confidence":    session.AvgConfidence,
		},
	}, nil)
	if err != nil {
		// The session cannot leave FINALIZING without its freeze marker, so a
		// dead ledger fails the session rather than stranding it.
		if _, _, ferr := c.sessionService.Transition(ctx, sessionId, entity.SessionFailed, "ledger_failure", nil); ferr != nil {
			c.logger.Error("PipelineService", "could not fail session after ledger write failure", map[string]interface{}{
				"session_id": sessionId,
				"error":      ferr.Error(),
			})
		}
		return nil, err
	}

	go func() {
		if err := c.Run(context.Background(), sessionId, false); err != nil {
			c.logger.Warn("PipelineService", "post-processing run failed", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	}()

	return session, nil
}

func (c *pipelineService) Run(ctx context.Context, sessionId uuid.UUID, force bool) error {
	session, err := c.sessionService.Find(ctx, sessionId)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	switch {
	case session.State == entity.SessionFinalizing:
	case force && session.State.Terminal() && session.State != entity.SessionFailed:
	default:
		return fmt.Errorf("state %s: %w", session.State, ErrNotFinalizing)
	}

	input, err := c.buildInput(ctx, session)
	if err != nil {
		return err
	}

	rows, err := c.ensureResultRows(ctx, sessionId, force)
	if err != nil {
		return err
	}

	// Forced runs get a fresh discriminator so their stage events don't
	// collide with the first run's dedupe keys.
	runToken := ""
	if force {
		runToken = uuid.NewString()[:8]
	}

	runCtx, cancel := context.WithTimeout(ctx, c.deadline)
	c.runs.Store(sessionId, cancel)
	defer func() {
		c.runs.Delete(sessionId)
		cancel()
	}()

	var wg sync.WaitGroup
	for _, stage := range c.stages {
		row, ok := rows[stage.Name()]
		if !ok || row.Resolved() || row.Status == entity.EnrichmentRunning {
			continue
		}

		wg.Add(1)
		stage := stage
		c.pool.Submit(func() {
			defer wg.Done()
			c.runStage(runCtx, session, input, stage, runToken)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-runCtx.Done():
		// Deadline or abort. Settle every unresolved stage instead of
		// waiting on workers that may be stuck mid-call.
		reason := "timeout"
		if errors.Is(runCtx.Err(), context.Canceled) {
			reason = "cancelled"
		}
		c.failUnresolved(sessionId, runToken, reason)
	}

	return c.resolveCompletion(sessionId)
}

// ensureResultRows makes sure one result row exists per stage, resetting
// resolved rows to pending when forced.
func (c *pipelineService) ensureResultRows(ctx context.Context, sessionId uuid.UUID, force bool) (map[string]*entity.EnrichmentResult, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.EnrichmentResultRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
	)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*entity.EnrichmentResult, len(existing))
	for _, row := range existing {
		rows[row.Stage] = row
	}

	now := time.Now()
	for _, stageName := range entity.EnrichmentStages() {
		row, ok := rows[stageName]
		if !ok {
			row = &entity.EnrichmentResult{
				Id:        uuid.New(),
				SessionId: sessionId,
				Stage:     stageName,
				Status:    entity.EnrichmentPending,
				CreatedAt: now,
			}
			if err := uow.EnrichmentResultRepository().Create(ctx, row); err != nil {
				if database.IsUniqueViolation(err, "") {
					row, err = uow.EnrichmentResultRepository().FindOne(ctx,
						specification.BySessionID{SessionID: sessionId},
						specification.ByStage{Stage: stageName},
					)
				}
				if err != nil {
					return nil, err
				}
			}
			rows[stageName] = row
			continue
		}

		if force && row.Resolved() {
			row.Status = entity.EnrichmentPending
			row.ErrorDetail = ""
			row.StartedAt = nil
			row.CompletedAt = nil
			row.UpdatedAt = &now
			if err := uow.EnrichmentResultRepository().Update(ctx, row); err != nil {
				return nil, err
			}
		}
	}

	return rows, nil
}

func (c *pipelineService) buildInput(ctx context.Context, session *entity.RecordingSession) (enrichment.Input, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	segments, err := uow.TranscriptSegmentRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.ByKind{Kind: string(entity.SegmentFinal)},
		specification.OrderBy{Field: "start_ms"},
	)
	if err != nil {
		return enrichment.Input{}, err
	}

	texts := make([]string, 0, len(segments))
	utterances := make([]enrichment.Utterance, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
		utterances = append(utterances, enrichment.Utterance{
			Text:       seg.Text,
			StartMs:    seg.StartMs,
			EndMs:      seg.EndMs,
			Confidence: seg.Confidence,
		})
	}

	return enrichment.Input{
		SessionID:       session.Id,
		TraceID:         session.TraceId,
		Transcript:      strings.Join(texts, " "),
		Utterances:      utterances,
		AudioDurationMs: session.AudioDurationMs,
	}, nil
}

func (c *pipelineService) runStage(runCtx context.Context, session *entity.RecordingSession, input enrichment.Input, stage enrichment.Stage, runToken string) {
	disc := stageDiscriminator(stage.Name(), runToken)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("PipelineService", "stage panicked", map[string]interface{}{
				"session_id": session.Id,
				"stage":      stage.Name(),
				"panic":      fmt.Sprintf("%v", r),
			})
			c.markStage(session.Id, stage.Name(), disc, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	_, started, err := c.ledgerService.Append(runCtx, AppendRequest{
		SessionID:     session.Id,
		EventType:     entity.EventStageStarted,
		Discriminator: disc,
		Payload:       map[string]interface{}{"stage": stage.Name()},
	}, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		row, err := c.findStageRow(ctx, uow, session.Id, stage.Name())
		if err != nil {
			return err
		}
		if row.Resolved() || row.Status == entity.EnrichmentRunning {
			return errStageResolved
		}
		now := time.Now()
		row.Status = entity.EnrichmentRunning
		row.StartedAt = &now
		row.UpdatedAt = &now
		return uow.EnrichmentResultRepository().Update(ctx, row)
	})
	if err != nil {
		if !errors.Is(err, errStageResolved) {
			c.logger.Warn("PipelineService", "could not claim stage", map[string]interface{}{
				"session_id": session.Id,
				"stage":      stage.Name(),
				"error":      err.Error(),
			})
		}
		return
	}
	if !started {
		return // another run already claimed this discriminator
	}

	out, err := withRetry(runCtx, c.retryCfg, func() (map[string]interface{}, error) {
		res, err := stage.Run(runCtx, input)
		if err != nil {
			if errors.Is(err, enrichment.ErrMalformedOutput) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return res, nil
	})

	c.markStage(session.Id, stage.Name(), disc, out, err)
	c.observeCompletion(session.Id)
}

// markStage settles one stage run. Uses a fresh context: the run context may
// already be dead and the terminal write must still land.
func (c *pipelineService) markStage(sessionId uuid.UUID, stageName, disc string, payload map[string]interface{}, runErr error) {
	ctx := context.Background()
	now := time.Now()

	eventType := entity.EventStageReady
	eventPayload := map[string]interface{}{"stage": stageName}
	if runErr != nil {
		eventType = entity.EventStageFailed
		eventPayload["error"] = runErr.Error()
	}

	_, _, err := c.ledgerService.Append(ctx, AppendRequest{
		SessionID:     sessionId,
		EventType:     eventType,
		Discriminator: disc,
		Payload:       eventPayload,
	}, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		row, err := c.findStageRow(ctx, uow, sessionId, stageName)
		if err != nil {
			return err
		}
		if row.Resolved() {
			return errStageResolved
		}
		if runErr != nil {
			row.Status = entity.EnrichmentFailed
			row.ErrorDetail = runErr.Error()
		} else {
			row.Status = entity.EnrichmentReady
			row.Payload = payload
			row.ErrorDetail = ""
		}
		row.CompletedAt = &now
		row.UpdatedAt = &now
		return uow.EnrichmentResultRepository().Update(ctx, row)
	})
	if err != nil && !errors.Is(err, errStageResolved) {
		c.logger.Error("PipelineService", "could not settle stage", map[string]interface{}{
			"session_id": sessionId,
			"stage":      stageName,
			"error":      err.Error(),
		})
	}
}

func (c *pipelineService) findStageRow(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, stageName string) (*entity.EnrichmentResult, error) {
	row, err := uow.EnrichmentResultRepository().FindOne(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByStage{Stage: stageName},
	)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("no result row for stage %s", stageName)
	}
	return row, nil
}

func (c *pipelineService) failUnresolved(sessionId uuid.UUID, runToken, reason string) {
	uow := c.uowFactory.NewUnitOfWork(context.Background())
	rows, err := uow.EnrichmentResultRepository().FindAll(context.Background(),
		specification.BySessionID{SessionID: sessionId},
	)
	if err != nil {
		c.logger.Error("PipelineService", "could not load stages to settle", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	for _, row := range rows {
		if row.Resolved() {
			continue
		}
		disc := stageDiscriminator(row.Stage, runToken)
		c.markStage(sessionId, row.Stage, disc, nil, errors.New(reason))
	}
}

// observeCompletion checks after each settled stage whether the whole run is
// terminal, so well-behaved runs complete without waiting for the deadline.
func (c *pipelineService) observeCompletion(sessionId uuid.UUID) {
	if err := c.resolveCompletion(sessionId); err != nil {
		c.logger.Warn("PipelineService", "completion check failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

// resolveCompletion settles the session's terminal state once every stage
// resolved: COMPLETED when all are ready, PARTIALLY_COMPLETED otherwise.
func (c *pipelineService) resolveCompletion(sessionId uuid.UUID) error {
	ctx := context.Background()
	uow := c.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.EnrichmentResultRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
	)
	if err != nil {
		return err
	}
	if len(rows) < len(entity.EnrichmentStages()) {
		return nil
	}

	statuses := map[string]interface{}{}
	failed := []string{}
	for _, row := range rows {
		if !row.Resolved() {
			return nil // still in flight
		}
		statuses[row.Stage] = string(row.Status)
		if row.Status == entity.EnrichmentFailed {
			failed = append(failed, row.Stage)
		}
	}

	target := entity.SessionCompleted
	reason := ""
	detail := map[string]interface{}{"stages": statuses}
	if len(failed) > 0 {
		target = entity.SessionPartiallyCompleted
		reason = "stage_failure"
		detail["failed_stages"] = failed
	}

	_, _, err = c.sessionService.Transition(ctx, sessionId, target, reason, detail)
	if err != nil {
		// A lost race or a forced re-run of a terminal session. The
		// results are settled either way.
		if errors.Is(err, ErrInvalidTransition) {
			return nil
		}
		return err
	}
	return nil
}

func (c *pipelineService) retireLive(sessionId uuid.UUID) {
	if live, ok := c.registry.Get(sessionId); ok {
		live.Retire()
		c.registry.Delete(sessionId)
	}
}

func stageDiscriminator(stageName, runToken string) string {
	if runToken == "" {
		return stageName
	}
	return stageName + ":" + runToken
}

// stagePool bounds concurrent stage executions across all sessions. Submit
// blocks when the queue is full, which is the backpressure.
type stagePool struct {
	tasks chan func()
}

func newStagePool(workers, queue int) *stagePool {
	if workers <= 0 {
		workers = 1
	}
	p := &stagePool{tasks: make(chan func(), queue)}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *stagePool) worker() {
	for task := range p.tasks {
		task()
	}
}

func (p *stagePool) Submit(task func()) {
	p.tasks <- task
}
