package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated    EventType = "user_created"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventTaskCreated    EventType = "task_created"
	EventTaskUpdated    EventType = "task_updated"
	EventTaskAssigned   EventType = "task_assigned"
	EventTaskUnassigned EventType = "task_unassigned"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskParked     EventType = "task_parked"
	EventTaskDeleted    EventType = "task_deleted"
)

// Event represents a change emitted by the assignment engine.
//
// UserID is the assignee after the change (empty when the task ended up
// unassigned); PreviousUserID is the assignee before it.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	TaskID         string    `json:"taskId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	PreviousUserID string    `json:"previousUserId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Recipients returns the distinct non-empty user ids the event concerns.
func (e Event) Recipients() []string {
	var out []string
	if e.UserID != "" {
		out = append(out, e.UserID)
	}
	if e.PreviousUserID != "" && e.PreviousUserID != e.UserID {
		out = append(out, e.PreviousUserID)
	}
	return out
}
