package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/models"
)

func newUser(id, name string) *models.User {
	now := time.Now()
	return &models.User{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
}

func TestStore_UserNamesAreCaseInsensitive(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertUser(newUser("u-1", "Alice")))

	err := s.InsertUser(newUser("u-2", "alice"))
	require.ErrorIs(t, err, apperrors.ErrDuplicateName)

	u, ok := s.UserByName("ALICE")
	require.True(t, ok)
	require.Equal(t, "u-1", u.ID)
}

func TestStore_ReplaceUserRename(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertUser(newUser("u-1", "alice")))
	require.NoError(t, s.InsertUser(newUser("u-2", "bob")))

	renamed := newUser("u-1", "Bob")
	require.ErrorIs(t, s.ReplaceUser(renamed), apperrors.ErrDuplicateName)

	// renaming to a different casing of one's own name is allowed
	require.NoError(t, s.ReplaceUser(newUser("u-1", "ALICE")))

	require.ErrorIs(t, s.ReplaceUser(newUser("u-9", "zed")), apperrors.ErrNotFound)
}

func TestStore_TaskTitleUniqueness(t *testing.T) {
	s := New()
	now := time.Now()
	require.NoError(t, s.InsertTask(models.NewTask("t-1", "Deploy", now)))
	require.ErrorIs(t, s.InsertTask(models.NewTask("t-2", "deploy", now)), apperrors.ErrDuplicateTitle)

	other := models.NewTask("t-2", "Review", now)
	require.NoError(t, s.InsertTask(other))

	clash := other.Clone()
	clash.Title = "DEPLOY"
	require.ErrorIs(t, s.ReplaceTask(clash), apperrors.ErrDuplicateTitle)
}

func TestStore_ReplaceRemovedTask(t *testing.T) {
	s := New()
	task := models.NewTask("t-1", "x", time.Now())
	require.NoError(t, s.InsertTask(task))
	require.True(t, s.RemoveTask("t-1"))
	require.False(t, s.RemoveTask("t-1"))

	require.ErrorIs(t, s.ReplaceTask(task.Clone()), apperrors.ErrNotFound)
	_, ok := s.Task("t-1")
	require.False(t, ok)
}

func TestStore_ActiveTaskCount(t *testing.T) {
	s := New()
	now := time.Now()
	uid := "u-1"
	for i, state := range []models.TaskState{models.StateInProgress, models.StateWaiting, models.StateCompleted} {
		task := models.NewTask(string(rune('a'+i)), string(rune('A'+i)), now)
		task.State = state
		task.AssignedToUserID = &uid
		require.NoError(t, s.InsertTask(task))
	}
	unassigned := models.NewTask("z", "Z", now)
	require.NoError(t, s.InsertTask(unassigned))

	require.Equal(t, 2, s.ActiveTaskCount(uid, ""))
	require.Equal(t, 1, s.ActiveTaskCount(uid, "a"))
	require.Len(t, s.TasksByUser(uid), 3)
	require.Equal(t, 0, s.ActiveTaskCount("nobody", ""))
}

func TestStore_ConcurrentInsertSameName(t *testing.T) {
	s := New()
	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.InsertUser(newUser(string(rune('A'+i)), "same"))
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	require.Equal(t, 1, ok)
	require.Len(t, s.Users(), 1)
}
