package models

import (
	"time"
)

// AssignmentEvent is one row of the append-only audit trail of task changes.
type AssignmentEvent struct {
	Seq            uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	EventID        string    `json:"id" gorm:"column:event_id;uniqueIndex;not null"`
	TaskID         string    `json:"taskId" gorm:"column:task_id;index;not null"`
	UserID         string    `json:"userId,omitempty" gorm:"column:user_id"`
	PreviousUserID string    `json:"previousUserId,omitempty" gorm:"column:previous_user_id"`
	Kind           string    `json:"kind" gorm:"not null"`
	OccurredAt     time.Time `json:"occurredAt" gorm:"column:occurred_at;not null"`
}

// TableName specifies the table name for AssignmentEvent Model
func (AssignmentEvent) TableName() string {
	return "assignment_events"
}
