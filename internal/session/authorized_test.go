package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/delivery/http/v1"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/storage"
)

// rejectingTasks answers unauthenticated until rejections runs out.
type rejectingTasks struct {
	board.TaskAPI
	rejections int
	calls      int
}

func (r *rejectingTasks) ListTasks(context.Context) ([]*models.Task, error) {
	r.calls++
	if r.rejections > 0 {
		r.rejections--
		return nil, services.ErrUnauthenticated
	}
	return []*models.Task{}, nil
}

func (r *rejectingTasks) DeleteTask(context.Context, string) error {
	r.calls++
	if r.rejections > 0 {
		r.rejections--
		return services.ErrUnauthenticated
	}
	return nil
}

func newLiveSession(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, store.Save(&client.Tokens{
		UserID:                "user-1",
		AccessToken:           signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken:          "refresh",
		RefreshTokenExpiresAt: time.Now().Add(time.Hour),
	}))
	return store
}

func TestAuthorizedAPIRetriesAfterRejection(t *testing.T) {
	ctx := context.Background()
	store := newLiveSession(t)
	fresh := signedToken(t, time.Now().Add(2*time.Hour))
	auth := &fakeAuth{tokens: &client.Tokens{
		UserID:                "user-1",
		AccessToken:           fresh,
		RefreshToken:          "rotated",
		RefreshTokenExpiresAt: time.Now().Add(time.Hour),
	}}
	tasks := &rejectingTasks{rejections: 1}
	api := NewGate(zerolog.Nop(), auth, store).Authorize(tasks)

	_, err := api.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tasks.calls)
	assert.Equal(t, 1, auth.refreshed)
	assert.Equal(t, fresh, store.AccessToken())

	tasks.calls = 0
	require.NoError(t, api.DeleteTask(ctx, "id"))
	assert.Equal(t, 1, tasks.calls)
	assert.Equal(t, 1, auth.refreshed)
}

func TestAuthorizedAPIGivesUpWhenRefreshFails(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh rejected", func(t *testing.T) {
		store := newLiveSession(t)
		auth := &fakeAuth{refreshErr: services.ErrUnauthenticated}
		tasks := &rejectingTasks{rejections: 1}
		api := NewGate(zerolog.Nop(), auth, store).Authorize(tasks)

		_, err := api.ListTasks(ctx)
		assert.ErrorIs(t, err, ErrLoginRequired)
		assert.Equal(t, 1, tasks.calls)
		_, ok := store.Tokens()
		assert.False(t, ok)
	})

	t.Run("still rejected after refresh", func(t *testing.T) {
		store := newLiveSession(t)
		auth := &fakeAuth{tokens: &client.Tokens{
			AccessToken:           signedToken(t, time.Now().Add(time.Hour)),
			RefreshToken:          "rotated",
			RefreshTokenExpiresAt: time.Now().Add(time.Hour),
		}}
		tasks := &rejectingTasks{rejections: 2}
		api := NewGate(zerolog.Nop(), auth, store).Authorize(tasks)

		err := api.DeleteTask(ctx, "id")
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
		assert.True(t, IsLoginRequired(err))
		assert.Equal(t, 2, tasks.calls)
		assert.Equal(t, 1, auth.refreshed)
	})
}

func TestBoardOutlivesAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := storage.NewMemoryStore()
	logger := zerolog.Nop()
	router := gin.New()
	v1.RegisterRoutes(router, v1.New(
		logger,
		services.NewAuthService(logger, store, store, "taskboard-test", []byte("key"), 2*time.Second, time.Hour),
		services.NewSessionService(logger, store),
		services.NewTaskService(logger, store),
	))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	tokens := newTestStore(t)
	httpAPI := client.New(server.URL, time.Second, tokens)
	gate := NewGate(logger, httpAPI, tokens)
	require.NoError(t, gate.Signup(ctx, "alice@example.com", "secret1"))
	first := tokens.AccessToken()

	ctrl := board.NewController(logger, gate.Authorize(httpAPI), nil)
	require.NoError(t, ctrl.Load(ctx))

	time.Sleep(3100 * time.Millisecond)
	assert.False(t, gate.IsAuthenticated())

	require.NoError(t, ctrl.AddTask(ctx, models.StatusNew, "Design homepage"))
	assert.Equal(t, 1, ctrl.Count(models.StatusNew))
	assert.NotEqual(t, first, tokens.AccessToken())
	assert.True(t, gate.IsAuthenticated())
}
