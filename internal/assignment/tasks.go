package assignment

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/models"
)

// TaskUpdate carries the optional fields of UpdateTask. Nil means "leave as is".
type TaskUpdate struct {
	Title            *string
	State            *models.TaskState
	AssignedToUserID *string
}

// GetTask returns the task with id.
func (s *Service) GetTask(id string) (*models.Task, error) {
	t, ok := s.store.Task(id)
	if !ok {
		return nil, taskNotFound(id)
	}
	return t, nil
}

// ListTasks returns all tasks in creation order.
func (s *Service) ListTasks() []*models.Task {
	return s.store.Tasks()
}

// ListTasksByUser returns the tasks currently assigned to userID.
func (s *Service) ListTasksByUser(userID string) []*models.Task {
	return s.store.TasksByUser(userID)
}

// CreateTask adds a Waiting task and auto-assigns it to the first user, in
// creation order, that has capacity. The task is not visible to other
// operations until it is inserted, so no lock is taken.
func (s *Service) CreateTask(ctx context.Context, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidation("task title is required")
	}
	if _, ok := s.store.TaskByTitle(title); ok {
		return nil, apperrors.NewDuplicateTitle(title)
	}

	now := s.clock.Now()
	t := models.NewTask(s.newID(), title, now)
	if u, ok := s.FindAvailableUser(); ok {
		t.AssignedToUserID = ptr(u.ID)
		t.State = models.StateInProgress
		t.AppendHistory(u.ID, now)
	}
	if err := s.store.InsertTask(t); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTaskCreated, t.ID, deref(t.AssignedToUserID), "")
	return t, nil
}

// UpdateTask applies the given fields under the task's lock.
//
// A title that differs case-insensitively from the current one is renamed,
// unless another task holds it. A state is set as given. An assignee must
// exist and have capacity; the current assignee moves to
// previousAssignedUserId, the new one is recorded in history once, and a
// Waiting task becomes InProgress.
func (s *Service) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	if _, ok := s.store.Task(id); !ok {
		return nil, taskNotFound(id)
	}

	var title string
	if upd.Title != nil {
		title = strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperrors.NewValidation("task title must not be empty")
		}
	}
	if upd.State != nil && !upd.State.Valid() {
		return nil, apperrors.NewValidation("unknown task state")
	}

	before, after, err := s.mutateTask(ctx, id, func(cur, next *models.Task) error {
		if upd.Title != nil && !strings.EqualFold(cur.Title, title) {
			if other, ok := s.store.TaskByTitle(title); ok && other.ID != id {
				return apperrors.NewDuplicateTitle(title)
			}
			next.Title = title
		}
		if upd.State != nil {
			setState(next, *upd.State)
		}
		now := s.clock.Now()
		if upd.AssignedToUserID != nil {
			userID := *upd.AssignedToUserID
			if _, ok := s.store.User(userID); !ok {
				return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
			}
			if !s.hasCapacityFor(userID, id) {
				return apperrors.NewCapacityExceeded(userID, s.maxTasks)
			}
			assignTo(next, userID, now)
			if next.State == models.StateWaiting {
				next.State = models.StateInProgress
			}
		}
		next.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	typ := events.EventTaskUpdated
	if upd.AssignedToUserID != nil {
		typ = events.EventTaskAssigned
	}
	s.publish(ctx, typ, id, deref(after.AssignedToUserID), deref(before.AssignedToUserID))
	return after, nil
}

// UnassignTask clears the assignee, keeping it as previousAssignedUserId, and
// demotes an InProgress task to Waiting. Both happen under one lock hold.
func (s *Service) UnassignTask(ctx context.Context, id string) (*models.Task, error) {
	before, after, err := s.mutateTask(ctx, id, func(cur, next *models.Task) error {
		if cur.AssignedToUserID != nil {
			next.PreviousAssignedUserID = cur.AssignedToUserID
			next.AssignedToUserID = nil
		}
		if next.State == models.StateInProgress {
			next.State = models.StateWaiting
		}
		next.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskUnassigned, id, "", deref(before.AssignedToUserID))
	return after, nil
}

// DeleteTask removes the task and discards its lock. It waits for any
// in-flight mutation of the task to finish first.
func (s *Service) DeleteTask(ctx context.Context, id string) (bool, error) {
	if _, ok := s.store.Task(id); !ok {
		return false, nil
	}
	var removed *models.Task
	err := s.locks.WithLock(ctx, id, func() error {
		if t, ok := s.store.Task(id); ok && s.store.RemoveTask(id) {
			removed = t
		}
		s.locks.Discard(id)
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed == nil {
		return false, nil
	}
	s.publish(ctx, events.EventTaskDeleted, id, "", deref(removed.AssignedToUserID))
	return true, nil
}

// AssignTaskWithHistory assigns the task to userID and marks it InProgress.
// Capacity is checked after the task's lock is taken. It returns ok=false,
// without error, when either entity is missing or the user is at capacity;
// err is only set when the lock could not be acquired.
func (s *Service) AssignTaskWithHistory(ctx context.Context, taskID, userID string) (task *models.Task, ok bool, err error) {
	if _, found := s.store.Task(taskID); !found {
		return nil, false, nil
	}
	if _, found := s.store.User(userID); !found {
		return nil, false, nil
	}

	before, after, err := s.mutateTask(ctx, taskID, func(_, next *models.Task) error {
		if _, found := s.store.User(userID); !found {
			return errNoChange
		}
		if !s.hasCapacityFor(userID, taskID) {
			return errNoChange
		}
		now := s.clock.Now()
		assignTo(next, userID, now)
		setState(next, models.StateInProgress)
		next.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errNoChange) || errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.publish(ctx, events.EventTaskAssigned, taskID, userID, deref(before.AssignedToUserID))
	return after, true, nil
}

// assignTo makes userID the assignee. The outgoing assignee, if any and
// different, becomes previousAssignedUserId; history gains userID at most once.
func assignTo(t *models.Task, userID string, now time.Time) {
	if !t.IsAssignedTo(userID) {
		vacate(t)
		t.AssignedToUserID = ptr(userID)
	}
	t.AppendHistory(userID, now)
}

// setState keeps eligibility consistent with the state: a Completed task
// leaves rotation, a task reopened from Completed rejoins it.
func setState(t *models.Task, state models.TaskState) {
	switch {
	case state == models.StateCompleted:
		t.IsEligibleForReassignment = false
	case t.State == models.StateCompleted:
		t.IsEligibleForReassignment = true
	}
	t.State = state
}
