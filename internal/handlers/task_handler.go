package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/assignment"
	"task-rotation-api/internal/models"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// Omitted fields are left unchanged.
type UpdateTaskRequest struct {
	Title            *string `json:"title"`
	State            *string `json:"state"`
	AssignedToUserID *string `json:"assignedToUserId"`
}

// ListTasks handles GET /api/tasks
// Optional query param: userId to list only the tasks assigned to that user.
func (h *Handler) ListTasks(c *gin.Context) {
	tasks := h.svc.ListTasks()
	if userID := c.Query("userId"); userID != "" {
		tasks = h.svc.ListTasksByUser(userID)
	}
	resp := h.userNames().taskResponses(tasks)
	c.JSON(http.StatusOK, gin.H{
		"tasks": resp,
		"count": len(resp),
	})
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	t, err := h.svc.GetTask(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userNames().taskResponse(t))
}

// CreateTask handles POST /api/tasks
// The task is assigned to the first user with spare capacity, if any.
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	t, err := h.svc.CreateTask(c.Request.Context(), req.Title)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.userNames().taskResponse(t))
}

// UpdateTask handles PUT /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	upd := assignment.TaskUpdate{
		Title:            req.Title,
		AssignedToUserID: req.AssignedToUserID,
	}
	if req.State != nil {
		state, err := models.ParseTaskState(*req.State)
		if err != nil {
			h.respondError(c, apperrors.NewValidation(err.Error()))
			return
		}
		upd.State = &state
	}

	t, err := h.svc.UpdateTask(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userNames().taskResponse(t))
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.svc.DeleteTask(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		h.respondError(c, apperrors.NewNotFound("task", map[string]any{"task_id": id}))
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTask handles POST /api/tasks/:id/assign/:userId
// Capacity is rechecked under the task's lock; a full user yields 409.
func (h *Handler) AssignTask(c *gin.Context) {
	taskID, userID := c.Param("id"), c.Param("userId")
	t, ok, err := h.svc.AssignTaskWithHistory(c.Request.Context(), taskID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		h.respondError(c, h.declineReason(taskID, userID))
		return
	}
	c.JSON(http.StatusOK, h.userNames().taskResponse(t))
}

func (h *Handler) declineReason(taskID, userID string) error {
	if _, err := h.svc.GetTask(taskID); err != nil {
		return err
	}
	if _, err := h.svc.GetUser(userID); err != nil {
		return err
	}
	return apperrors.NewCapacityExceeded(userID, h.svc.MaxTasksPerUser())
}

// UnassignTask handles POST /api/tasks/:id/unassign
func (h *Handler) UnassignTask(c *gin.Context) {
	t, err := h.svc.UnassignTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userNames().taskResponse(t))
}

// GetTaskAudit handles GET /api/tasks/:id/audit
// The trail outlives the task, so a deleted task still returns its history.
func (h *Handler) GetTaskAudit(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}, "count": 0})
		return
	}
	rows, err := h.audit.ListByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": rows,
		"count":  len(rows),
	})
}

// RunReassignment handles POST /api/reassignment/run
// One cycle runs synchronously and the per-task outcomes are returned.
// Per-task failures are reported as 500 after the rest of the cycle has
// completed.
func (h *Handler) RunReassignment(c *gin.Context) {
	result, err := h.svc.RunCycle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "completed",
		"result": result,
	})
}
