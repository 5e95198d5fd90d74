package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	redisclient "github.com/clinova/medassist/internal/infrastructure/clients/redis"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

const taskKeyPrefix = "task:"

// RedisStore keeps task state in Redis so results survive restarts and can
// be read by any API replica. Entries expire after the retention window.
type RedisStore struct {
	client    *redisclient.Client
	retention time.Duration
}

// NewRedisStore creates a Redis-backed task store.
func NewRedisStore(client *redisclient.Client, retention time.Duration) repositories.TaskStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

// Create records a new task in the processing state.
func (s *RedisStore) Create(ctx context.Context, task *entities.Task) error {
	if task == nil || task.ID == "" {
		return apperrors.NewInternalError("task is missing an id", fmt.Errorf("task is nil or has no id"))
	}

	data, err := json.Marshal(task)
	if err != nil {
		return apperrors.NewInternalError("failed to encode task", err)
	}

	ok, err := s.client.Client().SetNX(ctx, taskKeyPrefix+task.ID, data, s.retention).Result()
	if err != nil {
		return apperrors.NewInternalError("failed to store task", err)
	}
	if !ok {
		return apperrors.NewConflictError(fmt.Sprintf("task %s already exists", task.ID))
	}

	return nil
}

// Complete transitions the task to completed with its result payload.
func (s *RedisStore) Complete(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.transition(ctx, taskID, func(task *entities.Task) {
		task.State = entities.TaskStateCompleted
		task.Result = result
		task.Error = ""
	})
}

// Fail transitions the task to failed with an error detail.
func (s *RedisStore) Fail(ctx context.Context, taskID string, detail string) error {
	return s.transition(ctx, taskID, func(task *entities.Task) {
		task.State = entities.TaskStateFailed
		task.Error = detail
		task.Result = nil
	})
}

// Get returns the current task snapshot.
func (s *RedisStore) Get(ctx context.Context, taskID string) (*entities.Task, error) {
	data, err := s.client.Client().Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err == redis.Nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", taskID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read task", err)
	}

	var task entities.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, apperrors.NewInternalError("failed to decode task", err)
	}

	return &task, nil
}

// transition rewrites the task under a watch so concurrent writers cannot
// both move it to a terminal state.
func (s *RedisStore) transition(ctx context.Context, taskID string, apply func(*entities.Task)) error {
	key := taskKeyPrefix + taskID

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", taskID))
		}
		if err != nil {
			return apperrors.NewInternalError("failed to read task", err)
		}

		var task entities.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return apperrors.NewInternalError("failed to decode task", err)
		}
		if task.State.Terminal() {
			return apperrors.NewConflictError(fmt.Sprintf("task %s already %s", taskID, task.State))
		}

		apply(&task)
		task.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&task)
		if err != nil {
			return apperrors.NewInternalError("failed to encode task", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	err := s.client.Client().Watch(ctx, txn, key)
	if err == redis.TxFailedErr {
		// Another writer got there first; re-read to report the real state.
		return s.transition(ctx, taskID, apply)
	}
	return err
}
