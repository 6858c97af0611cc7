package board

import (
	"context"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

// LocalAPI serves the board straight from a TaskService, without the
// HTTP API in between. It backs the offline mode of the CLI.
type LocalAPI struct {
	tasks   services.TaskService
	ownerID string
}

var _ TaskAPI = (*LocalAPI)(nil)

func NewLocalAPI(tasks services.TaskService, ownerID string) *LocalAPI {
	return &LocalAPI{
		tasks:   tasks,
		ownerID: ownerID,
	}
}

func (a *LocalAPI) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return a.tasks.ListTasks(ctx, a.ownerID)
}

func (a *LocalAPI) CreateTask(ctx context.Context, title string, status models.Status) (*models.Task, error) {
	return a.tasks.CreateTask(ctx, services.CreateTaskParams{
		OwnerID: a.ownerID,
		Title:   title,
		Status:  status,
	})
}

func (a *LocalAPI) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	return a.tasks.UpdateTask(ctx, services.UpdateTaskParams{
		ID:      id,
		OwnerID: a.ownerID,
		Patch:   patch,
	})
}

func (a *LocalAPI) DeleteTask(ctx context.Context, id string) error {
	return a.tasks.DeleteTask(ctx, services.DeleteTaskParams{
		ID:      id,
		OwnerID: a.ownerID,
	})
}
