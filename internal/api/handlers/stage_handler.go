package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinova/medassist/internal/application/services"
	"github.com/clinova/medassist/internal/domain/entities"
)

// StageDispatcher defines the orchestration operations used by the handler.
type StageDispatcher interface {
	Dispatch(ctx context.Context, kind entities.StageKind, inputs services.StageInputs) (*entities.Task, error)
	Await(ctx context.Context, taskID string, timeout time.Duration) (*entities.Task, error)
}

// StageHandler dispatches pipeline stages.
type StageHandler struct {
	orchestrator StageDispatcher
}

// NewStageHandler creates a new stage handler.
func NewStageHandler(orchestrator StageDispatcher) *StageHandler {
	return &StageHandler{orchestrator: orchestrator}
}

// DispatchStage handles POST /api/stages/{kind}. The response carries the
// task ID to poll; input validation failures are returned synchronously
// and no task is created for them.
func (h *StageHandler) DispatchStage(w http.ResponseWriter, r *http.Request) {
	kind := entities.StageKind(r.PathValue("kind"))

	inputs, ok := decodeStageInputs(w, r)
	if !ok {
		return
	}

	task, err := h.orchestrator.Dispatch(r.Context(), kind, inputs)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"state":   string(task.State),
	})
}

// ExecuteStageSync handles POST /api/stages/{kind}/sync: dispatch plus a
// blocking wait, for callers that cannot poll.
func (h *StageHandler) ExecuteStageSync(w http.ResponseWriter, r *http.Request) {
	kind := entities.StageKind(r.PathValue("kind"))

	inputs, ok := decodeStageInputs(w, r)
	if !ok {
		return
	}

	dispatched, err := h.orchestrator.Dispatch(r.Context(), kind, inputs)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	task, err := h.orchestrator.Await(r.Context(), dispatched.ID, 0)
	if err != nil {
		// Only an exhausted wait means the task is still running; any
		// other failure keeps its own status mapping.
		if errors.Is(err, context.DeadlineExceeded) {
			respondWithJSON(w, http.StatusGatewayTimeout, map[string]string{
				"task_id": dispatched.ID,
				"status":  string(entities.TaskStateProcessing),
				"error":   "timed out waiting for task; poll the task endpoint for the result",
			})
			return
		}
		respondWithAppError(w, err)
		return
	}
	if task.State == entities.TaskStateFailed {
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"task_id": task.ID,
			"status":  string(task.State),
			"error":   task.Error,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"task_id": task.ID,
		"status":  string(task.State),
		"result":  task.Result,
	})
}

func decodeStageInputs(w http.ResponseWriter, r *http.Request) (services.StageInputs, bool) {
	var inputs services.StageInputs
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return nil, false
	}
	return inputs, true
}
