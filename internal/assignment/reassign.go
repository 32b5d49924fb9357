package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/models"
	"task-rotation-api/internal/observability"
)

// EligibleTasks returns the tasks that take part in the next rotation.
func (s *Service) EligibleTasks() []*models.Task {
	var out []*models.Task
	for _, t := range s.store.Tasks() {
		if t.Active() && t.IsEligibleForReassignment {
			out = append(out, t)
		}
	}
	return out
}

// HasRotatedThroughAllUsers reports whether every live user appears in the
// task's history. With no live users this holds trivially.
func (s *Service) HasRotatedThroughAllUsers(t *models.Task) bool {
	return rotatedThroughAll(t, s.store.Users())
}

// FindNextUser picks the next assignee for t, or returns false when no
// candidate has capacity.
func (s *Service) FindNextUser(t *models.Task) (*models.User, bool) {
	return s.pickNext(t, s.store.Users())
}

func rotatedThroughAll(t *models.Task, users []*models.User) bool {
	for _, u := range users {
		if !t.HasHistoryFor(u.ID) {
			return false
		}
	}
	return true
}

// pickNext draws from users other than the current and previous assignee
// that have capacity, preferring those the task has never visited.
func (s *Service) pickNext(t *models.Task, users []*models.User) (*models.User, bool) {
	var pool, fresh []*models.User
	for _, u := range users {
		if t.IsAssignedTo(u.ID) || t.WasPreviouslyAssignedTo(u.ID) {
			continue
		}
		if !s.hasCapacityFor(u.ID, t.ID) {
			continue
		}
		pool = append(pool, u)
		if !t.HasHistoryFor(u.ID) {
			fresh = append(fresh, u)
		}
	}
	if len(fresh) > 0 {
		pool = fresh
	}
	if len(pool) == 0 {
		return nil, false
	}
	return pool[s.random.IntN(len(pool))], true
}

// CycleResult tallies the per-task outcomes of one reassignment cycle.
type CycleResult struct {
	Processed int `json:"processed"`
	Advanced  int `json:"advanced"`
	Completed int `json:"completed"`
	Parked    int `json:"parked"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (r *CycleResult) add(outcome string) {
	r.Processed++
	switch outcome {
	case observability.OutcomeAdvanced:
		r.Advanced++
	case observability.OutcomeCompleted:
		r.Completed++
	case observability.OutcomeParked:
		r.Parked++
	case observability.OutcomeSkipped:
		r.Skipped++
	case observability.OutcomeFailed:
		r.Failed++
	}
}

// RunReassignmentCycle rotates every eligible task once. See RunCycle.
func (s *Service) RunReassignmentCycle(ctx context.Context) error {
	_, err := s.RunCycle(ctx)
	return err
}

// RunCycle rotates every eligible task once and reports what happened to
// them. Tasks are processed in parallel, each under its own lock. A failing
// task does not stop the others; all failures are returned joined once every
// task has finished.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	tasks := s.EligibleTasks()
	s.metrics.SetEligible(len(tasks))

	var (
		mu     sync.Mutex
		errs   []error
		result CycleResult
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, t := range tasks {
		id := t.ID
		g.Go(func() error {
			outcome, err := s.reassignTask(ctx, id)
			s.metrics.ObserveOutcome(outcome)

			mu.Lock()
			result.add(outcome)
			if err != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", id, err))
			}
			mu.Unlock()

			if err != nil {
				s.logger.Error("reassignment failed", zap.String("task_id", id), zap.Error(err))
				return nil
			}
			s.logger.Debug("task rotated", zap.String("task_id", id), zap.String("outcome", outcome))
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	s.metrics.ObserveCycle(time.Since(start), err)
	s.logger.Info("reassignment cycle finished",
		zap.Int("eligible", len(tasks)),
		zap.Int("advanced", result.Advanced),
		zap.Int("completed", result.Completed),
		zap.Int("parked", result.Parked),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, err
}

// reassignTask applies one rotation step to task id.
func (s *Service) reassignTask(ctx context.Context, id string) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = observability.OutcomeFailed
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	outcome = observability.OutcomeSkipped
	before, after, err := s.mutateTask(ctx, id, func(cur, next *models.Task) error {
		if !cur.Active() || !cur.IsEligibleForReassignment {
			return errNoChange
		}
		now := s.clock.Now()
		next.UpdatedAt = now
		users := s.store.Users()

		if rotatedThroughAll(cur, users) {
			vacate(next)
			next.State = models.StateCompleted
			next.IsEligibleForReassignment = false
			outcome = observability.OutcomeCompleted
			return nil
		}

		u, ok := s.pickNext(cur, users)
		if !ok {
			vacate(next)
			next.State = models.StateWaiting
			outcome = observability.OutcomeParked
			return nil
		}
		vacate(next)
		next.AssignedToUserID = ptr(u.ID)
		next.State = models.StateInProgress
		next.AppendHistory(u.ID, now)
		outcome = observability.OutcomeAdvanced
		return nil
	})
	if errors.Is(err, errNoChange) || errors.Is(err, apperrors.ErrNotFound) {
		return observability.OutcomeSkipped, nil
	}
	if err != nil {
		return observability.OutcomeFailed, err
	}

	switch outcome {
	case observability.OutcomeCompleted:
		s.publish(ctx, events.EventTaskCompleted, id, "", deref(before.AssignedToUserID))
	case observability.OutcomeParked:
		s.publish(ctx, events.EventTaskParked, id, "", deref(before.AssignedToUserID))
	case observability.OutcomeAdvanced:
		s.publish(ctx, events.EventTaskAssigned, id, deref(after.AssignedToUserID), deref(before.AssignedToUserID))
	}
	return outcome, nil
}

// vacate moves the current assignee, if any, into the previous slot. An
// unassigned task keeps its previous assignee so the next pick still skips it.
func vacate(t *models.Task) {
	if t.AssignedToUserID == nil {
		return
	}
	t.PreviousAssignedUserID = t.AssignedToUserID
	t.AssignedToUserID = nil
}
