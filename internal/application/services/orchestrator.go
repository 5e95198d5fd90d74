package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/observability"
	"github.com/clinova/medassist/pkg/config"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

const awaitPollInterval = 100 * time.Millisecond

type job struct {
	taskID string
	kind   entities.StageKind
	inputs StageInputs
}

// Orchestrator dispatches stages onto two worker pools and tracks their
// lifecycle in a task store. Model-bound stages run on the llm pool;
// literature searches run on the api pool so they are never queued behind
// slow model calls. A task executes on exactly one worker and transitions
// to a terminal state exactly once.
type Orchestrator struct {
	stages  *StageService
	store   repositories.TaskStore
	metrics *observability.Metrics

	queues       map[entities.Queue]chan job
	workerCounts map[entities.Queue]int
	awaitTimeout time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewOrchestrator creates an orchestrator. Start must be called before any
// dispatch. metrics may be nil.
func NewOrchestrator(stages *StageService, store repositories.TaskStore, cfg *config.WorkerConfig, metrics *observability.Metrics) *Orchestrator {
	llmWorkers, apiWorkers, queueDepth := 4, 2, 256
	awaitTimeout := 120 * time.Second
	if cfg != nil {
		if cfg.LLMWorkers > 0 {
			llmWorkers = cfg.LLMWorkers
		}
		if cfg.APIWorkers > 0 {
			apiWorkers = cfg.APIWorkers
		}
		if cfg.QueueDepth > 0 {
			queueDepth = cfg.QueueDepth
		}
		if cfg.AwaitTimeout > 0 {
			awaitTimeout = cfg.AwaitTimeout
		}
	}

	return &Orchestrator{
		stages:  stages,
		store:   store,
		metrics: metrics,
		queues: map[entities.Queue]chan job{
			entities.QueueLLM: make(chan job, queueDepth),
			entities.QueueAPI: make(chan job, queueDepth),
		},
		workerCounts: map[entities.Queue]int{
			entities.QueueLLM: llmWorkers,
			entities.QueueAPI: apiWorkers,
		},
		awaitTimeout: awaitTimeout,
	}
}

// Start launches the worker pools.
func (o *Orchestrator) Start() {
	for queue, count := range o.workerCounts {
		for i := 0; i < count; i++ {
			o.wg.Add(1)
			go o.worker(queue)
		}
	}
}

// Shutdown stops accepting work and waits for in-flight tasks to finish,
// or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.stopOnce.Do(func() {
		for _, queue := range o.queues {
			close(queue)
		}
	})

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch validates the inputs, records a new processing task and
// enqueues it for asynchronous execution. Validation failures surface
// synchronously; no task ID is issued for them.
func (o *Orchestrator) Dispatch(ctx context.Context, kind entities.StageKind, inputs StageInputs) (*entities.Task, error) {
	spec, err := StageSpecFor(kind)
	if err != nil {
		return nil, err
	}
	if err := spec.ValidateInputs(inputs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &entities.Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     entities.TaskStateProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Create(ctx, task); err != nil {
		return nil, err
	}

	select {
	case o.queues[spec.Queue] <- job{taskID: task.ID, kind: kind, inputs: inputs}:
	case <-ctx.Done():
		_ = o.store.Fail(context.Background(), task.ID, "dispatch cancelled before execution")
		return nil, ctx.Err()
	}

	if o.metrics != nil {
		observability.RecordQueueDepth(ctx, o.metrics, string(spec.Queue), 1)
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Info().
		Str("task_id", task.ID).
		Str("kind", string(kind)).
		Str("queue", string(spec.Queue)).
		Msg("task dispatched")

	return task, nil
}

// Poll returns the current task snapshot without blocking.
func (o *Orchestrator) Poll(ctx context.Context, taskID string) (*entities.Task, error) {
	return o.store.Get(ctx, taskID)
}

// Await blocks until the task reaches a terminal state or the timeout
// elapses. On timeout the task keeps executing in the background; only
// the wait is abandoned. A non-positive timeout selects the configured
// default.
func (o *Orchestrator) Await(ctx context.Context, taskID string, timeout time.Duration) (*entities.Task, error) {
	if timeout <= 0 {
		timeout = o.awaitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(awaitPollInterval)
	defer ticker.Stop()

	for {
		task, err := o.store.Get(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.State.Terminal() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("task %s still processing: %w", taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) worker(queue entities.Queue) {
	defer o.wg.Done()

	for j := range o.queues[queue] {
		// Execution is decoupled from the dispatching request's lifetime.
		ctx := context.Background()
		if o.metrics != nil {
			observability.RecordQueueDepth(ctx, o.metrics, string(queue), -1)
		}
		o.execute(ctx, queue, j)
	}
}

func (o *Orchestrator) execute(ctx context.Context, queue entities.Queue, j job) {
	ctx, span := observability.StartSpan(ctx, "task."+string(j.kind))
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	result, err := o.stages.Execute(ctx, j.kind, j.inputs)
	state := entities.TaskStateCompleted
	if err != nil {
		state = entities.TaskStateFailed
		observability.RecordError(span, err)
		if failErr := o.store.Fail(ctx, j.taskID, err.Error()); failErr != nil && !apperrors.IsConflict(failErr) {
			logger.Error().Err(failErr).Str("task_id", j.taskID).Msg("failed to record task failure")
		}
		logger.Warn().
			Err(err).
			Str("task_id", j.taskID).
			Str("kind", string(j.kind)).
			Dur("duration", time.Since(start)).
			Msg("task failed")
	} else {
		if completeErr := o.store.Complete(ctx, j.taskID, result); completeErr != nil && !apperrors.IsConflict(completeErr) {
			logger.Error().Err(completeErr).Str("task_id", j.taskID).Msg("failed to record task completion")
		}
		logger.Info().
			Str("task_id", j.taskID).
			Str("kind", string(j.kind)).
			Dur("duration", time.Since(start)).
			Msg("task completed")
	}

	if o.metrics != nil {
		observability.RecordTaskMetric(ctx, o.metrics, string(j.kind), string(queue), string(state), time.Since(start))
	}
}
