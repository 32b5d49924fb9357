package models

import (
	"fmt"
	"slices"
	"time"
)

// TaskState represents the rotation state of a task
type TaskState string

const (
	StateWaiting    TaskState = "Waiting"
	StateInProgress TaskState = "InProgress"
	StateCompleted  TaskState = "Completed"
)

// Valid reports whether s is one of the known states.
func (s TaskState) Valid() bool {
	switch s {
	case StateWaiting, StateInProgress, StateCompleted:
		return true
	}
	return false
}

// ParseTaskState accepts the canonical state names.
func ParseTaskState(raw string) (TaskState, error) {
	s := TaskState(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task state %q", raw)
	}
	return s, nil
}

// AssignmentHistoryEntry records that a user was, at some point, the assignee.
type AssignmentHistoryEntry struct {
	UserID     string    `json:"userId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Task represents a unit of work rotating across users.
//
// Stored tasks are treated as immutable snapshots: writers Clone, mutate the
// copy under the task's lock and replace the stored value.
type Task struct {
	ID                        string                   `json:"id"`
	Title                     string                   `json:"title"`
	State                     TaskState                `json:"state"`
	AssignedToUserID          *string                  `json:"assignedToUserId"`
	PreviousAssignedUserID    *string                  `json:"previousAssignedUserId"`
	AssignmentHistory         []AssignmentHistoryEntry `json:"assignmentHistory"`
	IsEligibleForReassignment bool                     `json:"isEligibleForReassignment"`
	CreatedAt                 time.Time                `json:"createdAt"`
	UpdatedAt                 time.Time                `json:"updatedAt"`
}

// NewTask builds a Waiting, unassigned task eligible for reassignment.
func NewTask(id, title string, now time.Time) *Task {
	return &Task{
		ID:                        id,
		Title:                     title,
		State:                     StateWaiting,
		AssignmentHistory:         []AssignmentHistoryEntry{},
		IsEligibleForReassignment: true,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
}

// Clone returns a deep copy safe to mutate.
func (t *Task) Clone() *Task {
	c := *t
	c.AssignedToUserID = clonePtr(t.AssignedToUserID)
	c.PreviousAssignedUserID = clonePtr(t.PreviousAssignedUserID)
	c.AssignmentHistory = slices.Clone(t.AssignmentHistory)
	if c.AssignmentHistory == nil {
		c.AssignmentHistory = []AssignmentHistoryEntry{}
	}
	return &c
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToUserID != nil && *t.AssignedToUserID == userID
}

// WasPreviouslyAssignedTo reports whether userID held the task in the prior round.
func (t *Task) WasPreviouslyAssignedTo(userID string) bool {
	return t.PreviousAssignedUserID != nil && *t.PreviousAssignedUserID == userID
}

// HasHistoryFor reports whether userID was ever assigned to the task.
func (t *Task) HasHistoryFor(userID string) bool {
	return slices.ContainsFunc(t.AssignmentHistory, func(h AssignmentHistoryEntry) bool {
		return h.UserID == userID
	})
}

// AppendHistory records userID unless it is already present. The history is
// never reordered or truncated.
func (t *Task) AppendHistory(userID string, at time.Time) bool {
	if t.HasHistoryFor(userID) {
		return false
	}
	t.AssignmentHistory = append(t.AssignmentHistory, AssignmentHistoryEntry{UserID: userID, AssignedAt: at})
	return true
}

// Active reports whether the task counts against its assignee's capacity.
func (t *Task) Active() bool {
	return t.State != StateCompleted
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
