// Package board keeps the client side view of a user's task board.
//
// The Controller holds the last task set the server confirmed. Every
// mutation goes through a TaskAPI first and the local view changes only
// after the API accepts it, so a failed call leaves the board untouched.
package board

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

var (
	ErrNotEditing  = errors.New("no task is being edited")
	ErrUnsavedEdit = errors.New("another task has unsaved changes")
)

// TaskAPI is the persistence boundary of the board.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, title string, status models.Status) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// ConfirmAbandonFunc is asked before an edit with unsaved changes is
// dropped in favour of another task. Returning false keeps the open edit.
type ConfirmAbandonFunc func(editing models.Task, draft string) bool

// Bucket is one status column of the board.
type Bucket struct {
	Status models.Status
	Title  string
	Tasks  []models.Task
	Count  int
}

type Controller struct {
	logger  zerolog.Logger
	api     TaskAPI
	confirm ConfirmAbandonFunc

	tasks []*models.Task

	editingID string
	draft     string
}

// NewController returns an empty board. A nil confirm drops unsaved
// edits silently when another task is opened.
func NewController(logger zerolog.Logger, api TaskAPI, confirm ConfirmAbandonFunc) *Controller {
	return &Controller{
		logger:  logger,
		api:     api,
		confirm: confirm,
	}
}

// Load replaces the view with the server's task set. An open edit
// survives if its task is still there.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to load tasks")
		return err
	}

	c.tasks = tasks
	if c.editingID != "" && c.find(c.editingID) < 0 {
		c.clearEdit()
	}

	c.logger.Debug().
		Int("count", len(tasks)).
		Msg("loaded tasks")
	return nil
}

func (c *Controller) Tasks() []models.Task {
	out := make([]models.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, *t)
	}
	return out
}

// Buckets groups the tasks by status in board order.
func (c *Controller) Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(models.Statuses))
	for _, status := range models.Statuses {
		bucket := Bucket{
			Status: status,
			Title:  status.Title(),
			Tasks:  make([]models.Task, 0),
		}
		for _, t := range c.tasks {
			if t.Status == status {
				bucket.Tasks = append(bucket.Tasks, *t)
			}
		}
		bucket.Count = len(bucket.Tasks)
		buckets = append(buckets, bucket)
	}
	return buckets
}

func (c *Controller) Count(status models.Status) int {
	n := 0
	for _, t := range c.tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Editing reports the task under edit and its draft title.
func (c *Controller) Editing() (id string, draft string, ok bool) {
	if c.editingID == "" {
		return "", "", false
	}
	return c.editingID, c.draft, true
}

func (c *Controller) StartEdit(id string) error {
	i := c.find(id)
	if i < 0 {
		return services.ErrTaskNotFound
	}
	if c.editingID == id {
		return nil
	}

	if c.editingID != "" && c.hasUnsavedDraft() && c.confirm != nil {
		current := *c.tasks[c.find(c.editingID)]
		if !c.confirm(current, c.draft) {
			c.logger.Debug().
				Str("task_id", c.editingID).
				Msg("kept unsaved edit")
			return ErrUnsavedEdit
		}
	}

	if c.editingID != "" {
		c.logger.Debug().
			Str("task_id", c.editingID).
			Msg("abandoned edit")
	}
	c.editingID = id
	c.draft = c.tasks[i].Title
	return nil
}

func (c *Controller) SetDraft(title string) error {
	if c.editingID == "" {
		return ErrNotEditing
	}
	c.draft = title
	return nil
}

func (c *Controller) CancelEdit() {
	c.clearEdit()
}

// SaveEdit commits title to the task under edit. On any failure the
// edit stays open and its draft is left as it was.
func (c *Controller) SaveEdit(ctx context.Context, id, title string) error {
	if c.editingID != id {
		return ErrNotEditing
	}

	normalized, err := services.NormalizeTitle(title)
	if err != nil {
		return err
	}

	task := c.tasks[c.find(id)]
	version := task.Version
	updated, err := c.api.UpdateTask(ctx, id, models.TaskPatch{
		Title:   &normalized,
		Version: &version,
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to save title")
		return c.handleStale(ctx, err)
	}

	c.replace(updated)
	c.clearEdit()
	c.logger.Info().
		Str("task_id", id).
		Msg("saved title")
	return nil
}

// AddTask creates a task in the given bucket. A blank title is ignored.
func (c *Controller) AddTask(ctx context.Context, status models.Status, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	normalized, err := services.NormalizeTitle(title)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return services.ErrInvalidTaskStatus
	}

	task, err := c.api.CreateTask(ctx, normalized, status)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to add task")
		return err
	}

	c.tasks = append(c.tasks, task)
	c.logger.Info().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("added task")
	return nil
}

func (c *Controller) MoveTask(ctx context.Context, id string, status models.Status) error {
	if !status.Valid() {
		return services.ErrInvalidTaskStatus
	}
	i := c.find(id)
	if i < 0 {
		return services.ErrTaskNotFound
	}
	if c.tasks[i].Status == status {
		return nil
	}

	version := c.tasks[i].Version
	updated, err := c.api.UpdateTask(ctx, id, models.TaskPatch{
		Status:  &status,
		Version: &version,
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to move task")
		return c.handleStale(ctx, err)
	}

	c.replace(updated)
	c.logger.Info().
		Str("task_id", id).
		Str("status", string(status)).
		Msg("moved task")
	return nil
}

// DeleteTask removes the task and closes any open edit. A task the
// server no longer has counts as deleted.
func (c *Controller) DeleteTask(ctx context.Context, id string) error {
	err := c.api.DeleteTask(ctx, id)
	if err != nil && !errors.Is(err, services.ErrTaskNotFound) {
		c.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return err
	}

	if i := c.find(id); i >= 0 {
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
	c.clearEdit()
	c.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return nil
}

// handleStale reloads the board when the server says the view is out
// of date and returns the original error.
func (c *Controller) handleStale(ctx context.Context, err error) error {
	if !errors.Is(err, services.ErrTaskNotFound) && !errors.Is(err, services.ErrTaskVersionConflict) {
		return err
	}

	if loadErr := c.Load(ctx); loadErr != nil {
		return errors.Join(err, loadErr)
	}
	return err
}

func (c *Controller) hasUnsavedDraft() bool {
	i := c.find(c.editingID)
	return i >= 0 && c.tasks[i].Title != c.draft
}

func (c *Controller) find(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) replace(task *models.Task) {
	if i := c.find(task.ID); i >= 0 {
		c.tasks[i] = task
	}
}

func (c *Controller) clearEdit() {
	c.editingID = ""
	c.draft = ""
}
