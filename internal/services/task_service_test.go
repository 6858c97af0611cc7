package services

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/storage"
)

const (
	alice = "alice"
	bob   = "bob"
)

func newTestTaskService(t *testing.T) (TaskService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewTaskService(zerolog.Nop(), store), store
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "  Write docs  "})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, models.StatusNew, task.Status)
	assert.Equal(t, alice, task.OwnerID)
	assert.Equal(t, int64(1), task.Version)

	done, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "Ship", Status: models.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, done.Status)
	assert.NotEqual(t, task.ID, done.ID)

	tasks, err := svc.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, done.ID, tasks[1].ID)
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name   string
		params CreateTaskParams
		want   error
	}{
		{"empty title", CreateTaskParams{OwnerID: alice, Title: ""}, ErrEmptyTaskTitle},
		{"whitespace title", CreateTaskParams{OwnerID: alice, Title: " \t\n "}, ErrEmptyTaskTitle},
		{"long title", CreateTaskParams{OwnerID: alice, Title: strings.Repeat("x", models.MaxTaskTitleLength+1)}, ErrTaskTitleTooLong},
		{"bogus status", CreateTaskParams{OwnerID: alice, Title: "x", Status: "bogus"}, ErrInvalidTaskStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestTaskService(t)

			_, err := svc.CreateTask(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidTask)

			tasks, err := svc.ListTasks(ctx, alice)
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "Design homepage"})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Status: ptr(models.StatusInProgress)},
	})
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, "Design homepage", updated.Title)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	updated, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Title: ptr("Design landing page")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	tasks, err := svc.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, "Design landing page", tasks[0].Title)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)
}

func TestUpdateTaskRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "x"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Status: ptr(models.Status("bogus"))},
	})
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Title: ptr("   ")},
	})
	assert.ErrorIs(t, err, ErrEmptyTaskTitle)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{ID: task.ID, OwnerID: alice})
	assert.ErrorIs(t, err, ErrEmptyTaskPatch)

	got, err := svc.GetTask(ctx, GetTaskParams{ID: task.ID, OwnerID: alice})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, "x", got.Title)
	assert.Equal(t, int64(1), got.Version)
}

func TestUpdateTaskVersion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "x"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Title: ptr("first"), Version: ptr(int64(1))},
	})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: alice,
		Patch:   models.TaskPatch{Title: ptr("stale"), Version: ptr(int64(1))},
	})
	assert.ErrorIs(t, err, ErrTaskVersionConflict)

	got, err := svc.GetTask(ctx, GetTaskParams{ID: task.ID, OwnerID: alice})
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "x"})
	require.NoError(t, err)
	keep, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "y"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, DeleteTaskParams{ID: task.ID, OwnerID: alice}))

	err = svc.DeleteTask(ctx, DeleteTaskParams{ID: task.ID, OwnerID: alice})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.DeleteTask(ctx, DeleteTaskParams{ID: "unknown", OwnerID: alice})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := svc.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.ID, tasks[0].ID)
}

func TestTaskOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{OwnerID: alice, Title: "private"})
	require.NoError(t, err)

	_, err = svc.GetTask(ctx, GetTaskParams{ID: task.ID, OwnerID: bob})
	assert.ErrorIs(t, err, ErrTaskForbidden)

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      task.ID,
		OwnerID: bob,
		Patch:   models.TaskPatch{Status: ptr(models.StatusDone)},
	})
	assert.ErrorIs(t, err, ErrTaskForbidden)

	err = svc.DeleteTask(ctx, DeleteTaskParams{ID: task.ID, OwnerID: bob})
	assert.ErrorIs(t, err, ErrTaskForbidden)

	tasks, err := svc.ListTasks(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	got, err := svc.GetTask(ctx, GetTaskParams{ID: task.ID, OwnerID: alice})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestUpdateTaskUnknownID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	_, err := svc.UpdateTask(ctx, UpdateTaskParams{
		ID:      "unknown",
		OwnerID: alice,
		Patch:   models.TaskPatch{Status: ptr(models.StatusDone)},
	})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
