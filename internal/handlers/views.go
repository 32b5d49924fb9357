package handlers

import (
	"time"

	"task-rotation-api/internal/models"
)

// UserResponse is the public shape of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaskCount int       `json:"taskCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryEntryResponse is one assignment history entry with its user name.
type HistoryEntryResponse struct {
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	AssignedAt time.Time `json:"assignedAt"`
}

// TaskResponse is the public shape of a task, with user ids resolved to names.
type TaskResponse struct {
	ID                        string                 `json:"id"`
	Title                     string                 `json:"title"`
	State                     models.TaskState       `json:"state"`
	AssignedToUserID          *string                `json:"assignedToUserId"`
	AssignedToUserName        *string                `json:"assignedToUserName"`
	PreviousAssignedUserID    *string                `json:"previousAssignedUserId"`
	PreviousAssignedUserName  *string                `json:"previousAssignedUserName"`
	AssignmentHistory         []HistoryEntryResponse `json:"assignmentHistory"`
	IsEligibleForReassignment bool                   `json:"isEligibleForReassignment"`
	CreatedAt                 time.Time              `json:"createdAt"`
	UpdatedAt                 time.Time              `json:"updatedAt"`
}

// UserWithTasksResponse is a user together with the tasks assigned to them.
type UserWithTasksResponse struct {
	UserResponse
	Tasks []TaskResponse `json:"tasks"`
}

// userNames maps live user ids to names for one response.
type userNames map[string]string

func (h *Handler) userNames() userNames {
	users := h.svc.ListUsers()
	names := make(userNames, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

func (n userNames) lookup(id *string) *string {
	if id == nil {
		return nil
	}
	name, ok := n[*id]
	if !ok {
		return nil
	}
	return &name
}

func (h *Handler) userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		TaskCount: h.svc.UserTaskCount(u.ID),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// taskResponse omits history entries whose user has been deleted; the stored
// history itself is untouched.
func (n userNames) taskResponse(t *models.Task) TaskResponse {
	history := make([]HistoryEntryResponse, 0, len(t.AssignmentHistory))
	for _, e := range t.AssignmentHistory {
		name, ok := n[e.UserID]
		if !ok {
			continue
		}
		history = append(history, HistoryEntryResponse{UserID: e.UserID, UserName: name, AssignedAt: e.AssignedAt})
	}
	return TaskResponse{
		ID:                        t.ID,
		Title:                     t.Title,
		State:                     t.State,
		AssignedToUserID:          t.AssignedToUserID,
		AssignedToUserName:        n.lookup(t.AssignedToUserID),
		PreviousAssignedUserID:    t.PreviousAssignedUserID,
		PreviousAssignedUserName:  n.lookup(t.PreviousAssignedUserID),
		AssignmentHistory:         history,
		IsEligibleForReassignment: t.IsEligibleForReassignment,
		CreatedAt:                 t.CreatedAt,
		UpdatedAt:                 t.UpdatedAt,
	}
}

func (n userNames) taskResponses(tasks []*models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, n.taskResponse(t))
	}
	return out
}
