package session

import (
	"context"
	"errors"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

// AuthorizedAPI runs every board call behind the gate. A call the server
// rejects as unauthenticated refreshes the session and is retried once.
type AuthorizedAPI struct {
	gate *Gate
	api  board.TaskAPI
}

var _ board.TaskAPI = (*AuthorizedAPI)(nil)

func (g *Gate) Authorize(api board.TaskAPI) *AuthorizedAPI {
	return &AuthorizedAPI{
		gate: g,
		api:  api,
	}
}

func (a *AuthorizedAPI) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return authorized(ctx, a.gate, func() ([]*models.Task, error) {
		return a.api.ListTasks(ctx)
	})
}

func (a *AuthorizedAPI) CreateTask(ctx context.Context, title string, status models.Status) (*models.Task, error) {
	return authorized(ctx, a.gate, func() (*models.Task, error) {
		return a.api.CreateTask(ctx, title, status)
	})
}

func (a *AuthorizedAPI) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	return authorized(ctx, a.gate, func() (*models.Task, error) {
		return a.api.UpdateTask(ctx, id, patch)
	})
}

func (a *AuthorizedAPI) DeleteTask(ctx context.Context, id string) error {
	_, err := authorized(ctx, a.gate, func() (struct{}, error) {
		return struct{}{}, a.api.DeleteTask(ctx, id)
	})
	return err
}

func authorized[T any](ctx context.Context, gate *Gate, call func() (T, error)) (T, error) {
	var zero T
	if err := gate.Require(ctx); err != nil {
		return zero, err
	}

	result, err := call()
	if err == nil || !errors.Is(err, services.ErrUnauthenticated) {
		return result, err
	}

	gate.logger.Debug().
		Err(err).
		Msg("access token rejected, refreshing session")
	if err = gate.Refresh(ctx); err != nil {
		return zero, err
	}
	return call()
}
