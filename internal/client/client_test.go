package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/delivery/http/v1"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/storage"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) AccessToken() string {
	return s.token
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	logger := zerolog.Nop()
	router := gin.New()
	v1.RegisterRoutes(router, v1.New(
		logger,
		services.NewAuthService(logger, store, store, "taskboard-test", []byte("key"), time.Minute, time.Hour),
		services.NewSessionService(logger, store),
		services.NewTaskService(logger, store),
	))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func ptr[T any](v T) *T {
	return &v
}

func TestClientTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	tokens := &staticTokens{}
	c := New(server.URL, time.Second, tokens)

	_, err := c.ListTasks(ctx)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	session, err := c.Signup(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	tokens.token = session.AccessToken

	_, err = c.Signup(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)

	created, err := c.CreateTask(ctx, "Design homepage", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, created.Status)
	assert.Equal(t, session.UserID, created.OwnerID)

	moved, err := c.UpdateTask(ctx, created.ID, models.TaskPatch{Status: ptr(models.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, created.ID, moved.ID)

	_, err = c.UpdateTask(ctx, created.ID, models.TaskPatch{Status: ptr(models.Status("bogus"))})
	assert.ErrorIs(t, err, services.ErrInvalidTask)

	_, err = c.UpdateTask(ctx, created.ID, models.TaskPatch{Title: ptr("x"), Version: ptr(int64(1))})
	assert.ErrorIs(t, err, services.ErrTaskVersionConflict)

	tasks, err := c.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	assert.ErrorIs(t, c.DeleteTask(ctx, created.ID), services.ErrTaskNotFound)

	refreshed, err := c.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	tokens.token = refreshed.AccessToken

	require.NoError(t, c.Logout(ctx))
	_, err = c.ListTasks(ctx)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestClientLoginRejected(t *testing.T) {
	server := newTestServer(t)
	c := New(server.URL, time.Second, nil)

	_, err := c.Login(context.Background(), "nobody@example.com", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assert.NotErrorIs(t, err, services.ErrUnauthenticated)

	_, err = c.Signup(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, services.ErrUserPasswordMismatch)
	assert.NotErrorIs(t, err, services.ErrUnauthenticated)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	c := New(server.URL, 50*time.Millisecond, &staticTokens{token: "t"})
	_, err := c.ListTasks(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	c := New(server.URL, time.Second, &staticTokens{token: "t"})
	_, err := c.ListTasks(context.Background())
	assert.ErrorIs(t, err, ErrServer)
}
