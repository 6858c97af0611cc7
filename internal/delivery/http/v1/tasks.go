package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type getTaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Owner     string    `json:"owner"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Status:    string(task.Status),
		Owner:     task.OwnerID,
		Version:   task.Version,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

type updateTaskRequest struct {
	Title   *string `json:"title,omitempty"`
	Status  *string `json:"status,omitempty"`
	Version *int64  `json:"version,omitempty"`
}

func (r updateTaskRequest) patch() models.TaskPatch {
	patch := models.TaskPatch{
		Title:   r.Title,
		Version: r.Version,
	}
	if r.Status != nil {
		status := models.Status(*r.Status)
		patch.Status = &status
	}
	return patch
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		OwnerID: userID,
		Title:   req.Title,
		Status:  models.Status(req.Status),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, taskError(err))
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	tasks, err := h.tasks.ListTasks(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, taskError(err))
		return
	}

	response := make([]getTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, newGetTaskResponse(task))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	task, err := h.tasks.GetTask(c, services.GetTaskParams{
		ID:      c.Param("id"),
		OwnerID: userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get task")
		abort(c, taskError(err))
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:      c.Param("id"),
		OwnerID: userID,
		Patch:   req.patch(),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		abort(c, taskError(err))
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	err := h.tasks.DeleteTask(c, services.DeleteTaskParams{
		ID:      c.Param("id"),
		OwnerID: userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		abort(c, taskError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
