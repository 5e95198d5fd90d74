package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// MemoryStore keeps task state in process memory. Used when Redis is not
// configured; task state does not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*entities.Task
}

// NewMemoryStore creates an in-memory task store.
func NewMemoryStore() repositories.TaskStore {
	return &MemoryStore{
		tasks: make(map[string]*entities.Task),
	}
}

// Create records a new task in the processing state.
func (s *MemoryStore) Create(ctx context.Context, task *entities.Task) error {
	if task == nil || task.ID == "" {
		return apperrors.NewInternalError("task is missing an id", fmt.Errorf("task is nil or has no id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("task %s already exists", task.ID))
	}

	stored := *task
	s.tasks[task.ID] = &stored
	return nil
}

// Complete transitions the task to completed with its result payload.
func (s *MemoryStore) Complete(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.transition(taskID, func(task *entities.Task) {
		task.State = entities.TaskStateCompleted
		task.Result = result
		task.Error = ""
	})
}

// Fail transitions the task to failed with an error detail.
func (s *MemoryStore) Fail(ctx context.Context, taskID string, detail string) error {
	return s.transition(taskID, func(task *entities.Task) {
		task.State = entities.TaskStateFailed
		task.Error = detail
		task.Result = nil
	})
}

// Get returns a snapshot of the task.
func (s *MemoryStore) Get(ctx context.Context, taskID string) (*entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", taskID))
	}

	snapshot := *task
	return &snapshot, nil
}

func (s *MemoryStore) transition(taskID string, apply func(*entities.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", taskID))
	}
	if task.State.Terminal() {
		return apperrors.NewConflictError(fmt.Sprintf("task %s already %s", taskID, task.State))
	}

	apply(task)
	task.UpdatedAt = time.Now().UTC()
	return nil
}
