package assignment

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/models"
)

// GetUser returns the user with id.
func (s *Service) GetUser(id string) (*models.User, error) {
	u, ok := s.store.User(id)
	if !ok {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return u, nil
}

// ListUsers returns all users in creation order.
func (s *Service) ListUsers() []*models.User {
	return s.store.Users()
}

// UserWithTasks returns the user and the tasks currently assigned to them.
func (s *Service) UserWithTasks(id string) (*models.User, []*models.Task, error) {
	u, err := s.GetUser(id)
	if err != nil {
		return nil, nil, err
	}
	return u, s.store.TasksByUser(id), nil
}

// CreateUser adds a user. Names are unique case-insensitively.
func (s *Service) CreateUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("user name is required")
	}
	now := s.clock.Now()
	u := &models.User{ID: s.newID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.InsertUser(u); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserCreated, "", u.ID, "")
	return u, nil
}

// UpdateUser renames a user.
func (s *Service) UpdateUser(ctx context.Context, id, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("user name is required")
	}
	cur, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	next := cur.Clone()
	next.Name = name
	next.UpdatedAt = s.clock.Now()
	if err := s.store.ReplaceUser(next); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserUpdated, "", id, "")
	return next, nil
}

// DeleteUser removes a user and reports whether it existed.
//
// The user is removed first so no new assignment can pick it, then each of its
// non-Completed tasks is handed to the first other user with capacity or, if
// none has room, parked as Waiting and unassigned. Each task is patched under
// its own lock, one task at a time.
func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	if !s.store.RemoveUser(id) {
		return false, nil
	}
	// Redistribution must finish even if the caller goes away, otherwise
	// tasks would keep pointing at a user that no longer exists.
	ctx = context.WithoutCancel(ctx)

	for _, t := range s.store.TasksByUser(id) {
		if !t.Active() {
			continue
		}
		if err := s.redistribute(ctx, t.ID, id); err != nil {
			s.logger.Error("redistribute task of deleted user",
				zap.String("task_id", t.ID),
				zap.String("user_id", id),
				zap.Error(err))
		}
	}
	s.publish(ctx, events.EventUserDeleted, "", "", id)
	return true, nil
}

func (s *Service) redistribute(ctx context.Context, taskID, deletedUserID string) error {
	var target *models.User
	_, after, err := s.mutateTask(ctx, taskID, func(cur, next *models.Task) error {
		if !cur.IsAssignedTo(deletedUserID) || !cur.Active() {
			return errNoChange
		}
		now := s.clock.Now()
		if u, ok := s.findAvailableUserExcept(deletedUserID); ok {
			target = u
			next.AssignedToUserID = ptr(u.ID)
			next.AppendHistory(u.ID, now)
			if next.State == models.StateWaiting {
				next.State = models.StateInProgress
			}
		} else {
			next.AssignedToUserID = nil
			next.State = models.StateWaiting
		}
		next.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errNoChange) || errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if target != nil {
		s.publish(ctx, events.EventTaskAssigned, after.ID, target.ID, deletedUserID)
	} else {
		s.publish(ctx, events.EventTaskParked, after.ID, "", deletedUserID)
	}
	return nil
}
