package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-rotation-api/internal/apperrors"
)

// UserRequest is the payload of user create and update.
type UserRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListUsers returns all users
// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users := h.svc.ListUsers()
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, h.userResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}

// GetUser handles GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.svc.GetUser(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userResponse(u))
}

// GetUserTasks handles GET /api/users/:id/tasks
func (h *Handler) GetUserTasks(c *gin.Context) {
	u, tasks, err := h.svc.UserWithTasks(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserWithTasksResponse{
		UserResponse: h.userResponse(u),
		Tasks:        h.userNames().taskResponses(tasks),
	})
}

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.userResponse(u))
}

// UpdateUser handles PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userResponse(u))
}

// DeleteUser handles DELETE /api/users/:id
// The user's active tasks are handed to other users or parked first.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.svc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		h.respondError(c, apperrors.NewNotFound("user", map[string]any{"user_id": id}))
		return
	}
	c.Status(http.StatusNoContent)
}
