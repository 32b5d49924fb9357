// Package store holds the authoritative in-memory users and tasks.
//
// Stored records are immutable snapshots. Readers may hold on to a returned
// pointer freely; writers replace the whole record. Multi-key consistency is
// left to callers, which serialize per task through the locks package.
package store

import (
	"strings"
	"sync"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/models"
)

// Store is the Entity Store for users and tasks.
type Store struct {
	users *Collection[string, *models.User]
	tasks *Collection[string, *models.Task]

	// namesMu and titlesMu make the uniqueness check and the write it guards
	// one step. Lock order: task lock, then titlesMu.
	namesMu  sync.Mutex
	titlesMu sync.Mutex
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: NewCollection[string, *models.User](),
		tasks: NewCollection[string, *models.Task](),
	}
}

// User returns the user with id.
func (s *Store) User(id string) (*models.User, bool) {
	return s.users.Get(id)
}

// Users returns all users in creation order.
func (s *Store) Users() []*models.User {
	return s.users.Values()
}

// UserByName finds a user by case-insensitive exact name; first match wins.
func (s *Store) UserByName(name string) (*models.User, bool) {
	return s.users.Find(func(u *models.User) bool {
		return strings.EqualFold(u.Name, name)
	})
}

// InsertUser stores a new user, failing with DuplicateName when the name is
// taken.
func (s *Store) InsertUser(u *models.User) error {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()

	if _, ok := s.UserByName(u.Name); ok {
		return apperrors.NewDuplicateName(u.Name)
	}
	s.users.Insert(u.ID, u)
	return nil
}

// ReplaceUser swaps in an updated user record. The name must not be held by
// any other user.
func (s *Store) ReplaceUser(u *models.User) error {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()

	if other, ok := s.UserByName(u.Name); ok && other.ID != u.ID {
		return apperrors.NewDuplicateName(u.Name)
	}
	if !s.users.Replace(u.ID, u) {
		return apperrors.NewNotFound("user", map[string]any{"user_id": u.ID})
	}
	return nil
}

// RemoveUser deletes a user and reports whether it existed.
func (s *Store) RemoveUser(id string) bool {
	_, ok := s.users.Delete(id)
	return ok
}

// Task returns the task with id.
func (s *Store) Task(id string) (*models.Task, bool) {
	return s.tasks.Get(id)
}

// Tasks returns all tasks in creation order.
func (s *Store) Tasks() []*models.Task {
	return s.tasks.Values()
}

// TaskByTitle finds a task by case-insensitive exact title; first match wins.
func (s *Store) TaskByTitle(title string) (*models.Task, bool) {
	return s.tasks.Find(func(t *models.Task) bool {
		return strings.EqualFold(t.Title, title)
	})
}

// InsertTask stores a new task, failing with DuplicateTitle when the title is
// taken.
func (s *Store) InsertTask(t *models.Task) error {
	s.titlesMu.Lock()
	defer s.titlesMu.Unlock()

	if _, ok := s.TaskByTitle(t.Title); ok {
		return apperrors.NewDuplicateTitle(t.Title)
	}
	s.tasks.Insert(t.ID, t)
	return nil
}

// ReplaceTask swaps in an updated task record. Callers hold the task's lock.
// A renamed title must not be held by another task. Replacing a task that was
// removed meanwhile fails with NotFound.
func (s *Store) ReplaceTask(t *models.Task) error {
	s.titlesMu.Lock()
	defer s.titlesMu.Unlock()

	if other, ok := s.TaskByTitle(t.Title); ok && other.ID != t.ID {
		return apperrors.NewDuplicateTitle(t.Title)
	}
	if !s.tasks.Replace(t.ID, t) {
		return apperrors.NewNotFound("task", map[string]any{"task_id": t.ID})
	}
	return nil
}

// RemoveTask deletes a task and reports whether it existed.
func (s *Store) RemoveTask(id string) bool {
	_, ok := s.tasks.Delete(id)
	return ok
}

// TasksByUser returns the tasks currently assigned to userID.
func (s *Store) TasksByUser(userID string) []*models.Task {
	var out []*models.Task
	s.tasks.Range(func(t *models.Task) bool {
		if t.IsAssignedTo(userID) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// ActiveTaskCount counts the non-Completed tasks assigned to userID, ignoring
// the task named by exceptTaskID (pass "" to count all).
func (s *Store) ActiveTaskCount(userID, exceptTaskID string) int {
	n := 0
	s.tasks.Range(func(t *models.Task) bool {
		if t.ID != exceptTaskID && t.IsAssignedTo(userID) && t.Active() {
			n++
		}
		return true
	})
	return n
}
