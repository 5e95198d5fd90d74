package repositories

import (
	"context"
	"encoding/json"

	"github.com/clinova/medassist/internal/domain/entities"
)

// TaskStore persists dispatched task state so results can be retrieved
// independently of the dispatching request. State moves forward only:
// Complete and Fail reject tasks already in a terminal state.
type TaskStore interface {
	// Create records a new task in the processing state.
	Create(ctx context.Context, task *entities.Task) error

	// Complete transitions the task to completed with its result payload.
	Complete(ctx context.Context, taskID string, result json.RawMessage) error

	// Fail transitions the task to failed with an error detail.
	Fail(ctx context.Context, taskID string, detail string) error

	// Get returns the current task snapshot, or a NOT_FOUND error for an
	// unknown ID.
	Get(ctx context.Context, taskID string) (*entities.Task, error)
}
