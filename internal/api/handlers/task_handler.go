package handlers

import (
	"context"
	"net/http"

	"github.com/clinova/medassist/internal/domain/entities"
)

// TaskReader defines the status-read operation used by the handler.
type TaskReader interface {
	Poll(ctx context.Context, taskID string) (*entities.Task, error)
}

// TaskHandler reads dispatched task state.
type TaskHandler struct {
	orchestrator TaskReader
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(orchestrator TaskReader) *TaskHandler {
	return &TaskHandler{orchestrator: orchestrator}
}

// GetTask handles GET /api/tasks/{id}. Processing and completed tasks
// answer 200; a failed task answers 500 with its error detail so pollers
// can stop without inspecting the body.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	task, err := h.orchestrator.Poll(r.Context(), taskID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	switch task.State {
	case entities.TaskStateCompleted:
		respondWithJSON(w, http.StatusOK, map[string]any{
			"task_id": task.ID,
			"status":  string(task.State),
			"result":  task.Result,
		})
	case entities.TaskStateFailed:
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"task_id": task.ID,
			"status":  string(task.State),
			"error":   task.Error,
		})
	default:
		respondWithJSON(w, http.StatusOK, map[string]string{
			"task_id": task.ID,
			"status":  string(task.State),
		})
	}
}
