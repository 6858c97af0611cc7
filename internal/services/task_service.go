package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/storage"
)

// Updates without a version retry this many times when they race
// with another writer.
const maxUpdateAttempts = 3

type taskServiceImpl struct {
	logger zerolog.Logger
	repo   storage.TaskRepository
}

func NewTaskService(
	logger zerolog.Logger,
	repo storage.TaskRepository,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	title, err := NormalizeTitle(params.Title)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.OwnerID).
			Msg("invalid task title")
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = models.StatusNew
	}
	if !status.Valid() {
		s.logger.Error().
			Str("status", string(status)).
			Str("user_id", params.OwnerID).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:        taskUUID.String(),
		OwnerID:   params.OwnerID,
		Title:     title,
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.OwnerID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, params GetTaskParams) (*models.Task, error) {
	task, err := s.getOwnedTask(ctx, params.ID, params.OwnerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.OwnerID).
		Msg("task found")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, ownerID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Msg("failed to select tasks by owner id")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", ownerID).
		Msg("selected tasks by owner id")

	s.logger.Info().
		Int("count", len(tasks)).
		Str("user_id", ownerID).
		Msg("tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	patch := params.Patch
	if patch.Empty() {
		return nil, ErrEmptyTaskPatch
	}

	var title string
	if patch.Title != nil {
		var err error
		title, err = NormalizeTitle(*patch.Title)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", params.ID).
				Msg("invalid task title")
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		s.logger.Error().
			Str("task_id", params.ID).
			Str("status", string(*patch.Status)).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	for attempt := 1; ; attempt++ {
		task, err := s.getOwnedTask(ctx, params.ID, params.OwnerID)
		if err != nil {
			return nil, err
		}

		if patch.Version != nil && *patch.Version != task.Version {
			s.logger.Error().
				Str("task_id", task.ID).
				Int64("expected_version", *patch.Version).
				Int64("version", task.Version).
				Msg("task version mismatch")
			return nil, ErrTaskVersionConflict
		}

		expectedVersion := task.Version
		if patch.Title != nil {
			task.Title = title
		}
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		task.Version++
		task.UpdatedAt = time.Now().UTC()

		err = s.repo.UpdateTask(ctx, task, expectedVersion)
		if err == nil {
			s.logger.Debug().
				Str("task_id", task.ID).
				Int64("version", task.Version).
				Msg("updated task")

			s.logger.Info().
				Str("task_id", task.ID).
				Str("user_id", task.OwnerID).
				Msg("updated task")
			return task, nil
		}

		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.logger.Error().
				Str("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		case errors.Is(err, storage.ErrVersionConflict):
			if patch.Version != nil || attempt >= maxUpdateAttempts {
				s.logger.Error().
					Str("task_id", task.ID).
					Int("attempt", attempt).
					Msg("task modified concurrently")
				return nil, ErrTaskVersionConflict
			}
			s.logger.Debug().
				Str("task_id", task.ID).
				Int("attempt", attempt).
				Msg("retrying task update")
		default:
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to update task")
			return nil, err
		}
	}
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	if _, err := s.getOwnedTask(ctx, params.ID, params.OwnerID); err != nil {
		return err
	}

	err := s.repo.DeleteTask(ctx, params.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("task_id", params.ID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to delete task")
		return err
	}
	s.logger.Debug().
		Str("task_id", params.ID).
		Msg("deleted task")

	s.logger.Info().
		Str("task_id", params.ID).
		Str("user_id", params.OwnerID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) getOwnedTask(ctx context.Context, id, ownerID string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("task_id", id).
				Str("user_id", ownerID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}

	if task.OwnerID != ownerID {
		s.logger.Error().
			Str("task_id", id).
			Str("user_id", ownerID).
			Msg("task belongs to another user")
		return nil, ErrTaskForbidden
	}
	return task, nil
}

// NormalizeTitle trims the title and checks it is non-empty and short enough.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTaskTitle
	}
	if utf8.RuneCountInString(title) > models.MaxTaskTitleLength {
		return "", ErrTaskTitleTooLong
	}
	return title, nil
}
