// Package audit keeps an append-only trail of task assignment changes in
// SQLite. The trail is informational; engine state is never rebuilt from it.
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-rotation-api/internal/events"
	"task-rotation-api/internal/models"
)

// Recorder writes task events to the assignment_events table.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger.Named("audit")}
}

// Subscribe records every task event published on d.
func (r *Recorder) Subscribe(d events.Dispatcher) {
	d.SubscribeAll(func(ctx context.Context, e events.Event) error {
		if e.TaskID == "" {
			return nil
		}
		return r.Record(ctx, e)
	})
}

// Record appends e to the trail.
func (r *Recorder) Record(ctx context.Context, e events.Event) error {
	row := models.AssignmentEvent{
		EventID:        e.ID,
		TaskID:         e.TaskID,
		UserID:         e.UserID,
		PreviousUserID: e.PreviousUserID,
		Kind:           string(e.Type),
		OccurredAt:     e.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record %s for task %s: %w", e.Type, e.TaskID, err)
	}
	r.logger.Debug("event recorded", zap.String("task_id", e.TaskID), zap.String("kind", row.Kind))
	return nil
}

// ListByTask returns the trail of taskID, oldest first.
func (r *Recorder) ListByTask(ctx context.Context, taskID string) ([]models.AssignmentEvent, error) {
	var rows []models.AssignmentEvent
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit trail for task %s: %w", taskID, err)
	}
	return rows, nil
}
