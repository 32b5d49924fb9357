// Package assignment is the assignment and reassignment engine.
//
// It owns capacity checks, auto-assignment on task creation, manual
// assignment and unassignment, assignment-history bookkeeping and the
// round-robin reassignment cycle. Every mutation of a task happens on a
// private copy while holding that task's lock from the locks package, and
// the copy then replaces the stored record. No operation holds two task
// locks at once.
//
// The capacity limit is enforced by a read-then-write check inside the
// mutated task's lock. Two assignments of different tasks to the same user
// can still both pass the check and briefly overshoot the limit.
package assignment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/locks"
	"task-rotation-api/internal/models"
	"task-rotation-api/internal/observability"
	"task-rotation-api/internal/store"
)

// DefaultMaxTasksPerUser is the per-user limit of non-Completed tasks.
const DefaultMaxTasksPerUser = 3

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	MaxTasksPerUser int
	// Concurrency bounds how many tasks a reassignment cycle processes in
	// parallel.
	Concurrency int
	Clock       Clock
	Random      RandomSource
	NewID       func() string
	Publisher   events.Publisher
	Metrics     *observability.RotationMetrics
	Logger      *zap.Logger
}

// Service implements the engine operations over a shared Store.
type Service struct {
	store       *store.Store
	locks       *locks.Registry
	maxTasks    int
	concurrency int
	clock       Clock
	random      RandomSource
	newID       func() string
	publisher   events.Publisher
	metrics     *observability.RotationMetrics
	logger      *zap.Logger
}

// NewService wires a Service over st and reg.
func NewService(st *store.Store, reg *locks.Registry, opts Options) *Service {
	s := &Service{
		store:       st,
		locks:       reg,
		maxTasks:    opts.MaxTasksPerUser,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		random:      opts.Random,
		newID:       opts.NewID,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if s.maxTasks <= 0 {
		s.maxTasks = DefaultMaxTasksPerUser
	}
	if s.concurrency <= 0 {
		s.concurrency = 16
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.random == nil {
		s.random = GlobalRandom{}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// MaxTasksPerUser returns the configured capacity limit.
func (s *Service) MaxTasksPerUser() int {
	return s.maxTasks
}

// UserTaskCount counts the user's non-Completed tasks.
func (s *Service) UserTaskCount(userID string) int {
	return s.store.ActiveTaskCount(userID, "")
}

// CanUserAcceptMoreTasks reports whether the user is below the limit.
func (s *Service) CanUserAcceptMoreTasks(userID string) bool {
	return s.UserTaskCount(userID) < s.maxTasks
}

// hasCapacityFor is the capacity check used when assigning taskID to userID.
// The task itself is left out of the count so re-assigning a task to its
// current holder never trips the limit.
func (s *Service) hasCapacityFor(userID, taskID string) bool {
	return s.store.ActiveTaskCount(userID, taskID) < s.maxTasks
}

// FindAvailableUser returns the first user, in creation order, with capacity.
func (s *Service) FindAvailableUser() (*models.User, bool) {
	return s.findAvailableUserExcept("")
}

func (s *Service) findAvailableUserExcept(excludeID string) (*models.User, bool) {
	for _, u := range s.store.Users() {
		if u.ID == excludeID {
			continue
		}
		if s.CanUserAcceptMoreTasks(u.ID) {
			return u, true
		}
	}
	return nil, false
}

// errNoChange aborts a mutation without writing anything.
var errNoChange = errors.New("no change")

// mutateTask runs fn on a private copy of task id while holding its lock and
// stores the copy. It returns the stored copy and the record it replaced.
// A missing task never gets a lock handle: the id is checked before locking,
// and a task deleted while waiting has its fresh handle discarded.
func (s *Service) mutateTask(ctx context.Context, id string, fn func(cur, next *models.Task) error) (before, after *models.Task, err error) {
	if _, ok := s.store.Task(id); !ok {
		return nil, nil, taskNotFound(id)
	}
	err = s.locks.WithLock(ctx, id, func() error {
		cur, ok := s.store.Task(id)
		if !ok {
			s.locks.Discard(id)
			return taskNotFound(id)
		}
		before = cur
		next := cur.Clone()
		if err := fn(cur, next); err != nil {
			return err
		}
		if err := s.store.ReplaceTask(next); err != nil {
			return err
		}
		after = next
		return nil
	})
	return before, after, err
}

func taskNotFound(id string) error {
	return apperrors.NewNotFound("task", map[string]any{"task_id": id})
}

func (s *Service) publish(ctx context.Context, typ events.EventType, taskID, userID, previousUserID string) {
	s.publisher.Publish(context.WithoutCancel(ctx), events.Event{
		ID:             s.newID(),
		Type:           typ,
		TaskID:         taskID,
		UserID:         userID,
		PreviousUserID: previousUserID,
		Timestamp:      s.clock.Now(),
	})
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr(s string) *string {
	return &s
}
