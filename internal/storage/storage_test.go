package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/models"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "board.yaml"))
	require.NoError(t, err)

	return map[string]Store{
		DriverMemory: NewMemoryStore(),
		DriverFile:   fileStore,
	}
}

func newTask(id, owner, title string, status models.Status, createdAt time.Time) *models.Task {
	return &models.Task{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Status:    status,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CreateTask(ctx, newTask("a", "u1", "first", models.StatusNew, now)))
			require.NoError(t, store.CreateTask(ctx, newTask("b", "u1", "second", models.StatusDone, now.Add(time.Second))))
			require.NoError(t, store.CreateTask(ctx, newTask("c", "u2", "foreign", models.StatusNew, now)))

			err := store.CreateTask(ctx, newTask("a", "u1", "dup", models.StatusNew, now))
			assert.ErrorIs(t, err, ErrAlreadyExists)

			tasks, err := store.ListTasks(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, tasks, 2)
			assert.Equal(t, "a", tasks[0].ID)
			assert.Equal(t, "b", tasks[1].ID)

			got, err := store.GetTask(ctx, "a")
			require.NoError(t, err)
			got.Title = "renamed"
			got.Version = 2
			require.NoError(t, store.UpdateTask(ctx, got, 1))

			err = store.UpdateTask(ctx, got, 1)
			assert.ErrorIs(t, err, ErrVersionConflict)

			got, err = store.GetTask(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "renamed", got.Title)
			assert.Equal(t, int64(2), got.Version)

			err = store.UpdateTask(ctx, newTask("missing", "u1", "x", models.StatusNew, now), 1)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.DeleteTask(ctx, "a"))
			assert.ErrorIs(t, store.DeleteTask(ctx, "a"), ErrNotFound)

			_, err = store.GetTask(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)

			tasks, err = store.ListTasks(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, "b", tasks[0].ID)
		})
	}
}

func TestTaskRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	task := newTask("a", "u1", "first", models.StatusNew, time.Now())
	require.NoError(t, store.CreateTask(ctx, task))
	task.Title = "mutated"

	got, err := store.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestUserAndSessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			user := &models.User{ID: "u1", Email: "a@b.c", Password: "hash", CreatedAt: now, UpdatedAt: now}
			require.NoError(t, store.CreateUser(ctx, user))

			err := store.CreateUser(ctx, &models.User{ID: "u2", Email: "a@b.c"})
			assert.ErrorIs(t, err, ErrAlreadyExists)

			got, err := store.GetUserByEmail(ctx, "a@b.c")
			require.NoError(t, err)
			assert.Equal(t, "u1", got.ID)

			_, err = store.GetUserByEmail(ctx, "missing@b.c")
			assert.ErrorIs(t, err, ErrNotFound)

			first := &models.Session{ID: "s1", UserID: "u1", RefreshToken: "r1", ExpiresAt: now.Add(time.Hour)}
			second := &models.Session{ID: "s2", UserID: "u1", RefreshToken: "r2", ExpiresAt: now.Add(time.Hour)}
			require.NoError(t, store.ReplaceSessions(ctx, first))
			require.NoError(t, store.ReplaceSessions(ctx, second))

			_, err = store.GetSessionByID(ctx, "s1")
			assert.ErrorIs(t, err, ErrNotFound)

			session, err := store.GetSessionByRefreshToken(ctx, "r2")
			require.NoError(t, err)
			assert.Equal(t, "s2", session.ID)

			session.RefreshToken = "r3"
			require.NoError(t, store.UpdateSession(ctx, session))
			_, err = store.GetSessionByRefreshToken(ctx, "r2")
			assert.ErrorIs(t, err, ErrNotFound)

			affected, err := store.DeleteSessionsByUserID(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), affected)

			err = store.UpdateSession(ctx, session)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.yaml")
	now := time.Now().UTC().Truncate(time.Second)

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateTask(ctx, newTask("a", "u1", "first", models.StatusNew, now)))
	require.NoError(t, store.CreateTask(ctx, newTask("b", "u1", "second", models.StatusInProgress, now)))
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Email: "a@b.c", Password: "hash"}))
	require.NoError(t, store.DeleteTask(ctx, "a"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	tasks, err := reopened.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].ID)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)
	assert.True(t, now.Equal(tasks[0].CreatedAt))

	user, err := reopened.GetUserByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestFileStoreFailedOperationLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateTask(ctx, newTask("a", "u1", "first", models.StatusNew, time.Now())))

	assert.ErrorIs(t, store.DeleteTask(ctx, "missing"), ErrNotFound)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	tasks, err := reopened.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestFileStoreRejectsInvalidStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	content := `tasks:
  - id: a
    owner_id: u1
    title: first
    status: blocked
    version: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid status "blocked"`)
}
