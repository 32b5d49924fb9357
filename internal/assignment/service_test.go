package assignment

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"task-rotation-api/internal/locks"
	"task-rotation-api/internal/models"
	"task-rotation-api/internal/store"
)

type testEnv struct {
	svc   *Service
	store *store.Store
	locks *locks.Registry
	clock *FakeClock
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	var seq atomic.Int64
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	opts := Options{
		Clock:  clock,
		Random: FirstCandidate{},
		NewID: func() string {
			return fmt.Sprintf("id-%d", seq.Add(1))
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	st := store.New()
	reg := locks.NewRegistry()
	return &testEnv{svc: NewService(st, reg, opts), store: st, locks: reg, clock: clock}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.svc.CreateUser(context.Background(), name)
	require.NoError(t, err)
	return u
}

func (e *testEnv) task(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := e.svc.CreateTask(context.Background(), title)
	require.NoError(t, err)
	return task
}

// filler stores an InProgress task that counts against userID's capacity
// but never rotates.
func (e *testEnv) filler(t *testing.T, title, userID string) {
	t.Helper()
	task := models.NewTask("filler-"+title, title, e.clock.Now())
	task.State = models.StateInProgress
	task.AssignedToUserID = ptr(userID)
	task.IsEligibleForReassignment = false
	require.NoError(t, e.store.InsertTask(task))
}

func (e *testEnv) reload(t *testing.T, id string) *models.Task {
	t.Helper()
	task, err := e.svc.GetTask(id)
	require.NoError(t, err)
	return task
}

func historyIDs(task *models.Task) []string {
	ids := make([]string, 0, len(task.AssignmentHistory))
	for _, h := range task.AssignmentHistory {
		ids = append(ids, h.UserID)
	}
	return ids
}

func TestService_Defaults(t *testing.T) {
	svc := NewService(store.New(), locks.NewRegistry(), Options{})
	require.Equal(t, DefaultMaxTasksPerUser, svc.MaxTasksPerUser())

	svc = NewService(store.New(), locks.NewRegistry(), Options{MaxTasksPerUser: 5})
	require.Equal(t, 5, svc.MaxTasksPerUser())
}

func TestService_CapacityCountsOnlyActiveTasks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	for i := 0; i < 3; i++ {
		env.task(t, fmt.Sprintf("task %d", i))
	}
	require.Equal(t, 3, env.svc.UserTaskCount(alice.ID))
	require.False(t, env.svc.CanUserAcceptMoreTasks(alice.ID))

	tasks := env.svc.ListTasksByUser(alice.ID)
	completed := models.StateCompleted
	_, err := env.svc.UpdateTask(context.Background(), tasks[0].ID, TaskUpdate{State: &completed})
	require.NoError(t, err)

	require.Equal(t, 2, env.svc.UserTaskCount(alice.ID))
	require.True(t, env.svc.CanUserAcceptMoreTasks(alice.ID))
}

func TestService_FindAvailableUserFollowsCreationOrder(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.MaxTasksPerUser = 1 })
	_, ok := env.svc.FindAvailableUser()
	require.False(t, ok)

	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	u, ok := env.svc.FindAvailableUser()
	require.True(t, ok)
	require.Equal(t, alice.ID, u.ID)

	env.task(t, "one")
	u, ok = env.svc.FindAvailableUser()
	require.True(t, ok)
	require.Equal(t, bob.ID, u.ID)

	env.task(t, "two")
	_, ok = env.svc.FindAvailableUser()
	require.False(t, ok)
}
