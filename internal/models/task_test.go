package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTask_CloneIsDeep(t *testing.T) {
	now := time.Now()
	orig := NewTask("t-1", "rotate me", now)
	uid := "u-1"
	orig.AssignedToUserID = &uid
	orig.AppendHistory(uid, now)

	c := orig.Clone()
	*c.AssignedToUserID = "u-2"
	c.AppendHistory("u-2", now)

	require.Equal(t, "u-1", *orig.AssignedToUserID)
	require.Len(t, orig.AssignmentHistory, 1)
	require.Len(t, c.AssignmentHistory, 2)
}

func TestTask_AppendHistoryOncePerUser(t *testing.T) {
	task := NewTask("t-1", "x", time.Now())
	require.True(t, task.AppendHistory("a", time.Now()))
	require.True(t, task.AppendHistory("b", time.Now()))
	require.False(t, task.AppendHistory("a", time.Now()))
	require.Equal(t, "a", task.AssignmentHistory[0].UserID)
	require.Equal(t, "b", task.AssignmentHistory[1].UserID)
}

func TestParseTaskState(t *testing.T) {
	s, err := ParseTaskState("InProgress")
	require.NoError(t, err)
	require.Equal(t, StateInProgress, s)

	_, err = ParseTaskState("inProgress")
	require.Error(t, err)
}

func TestNewTask_Defaults(t *testing.T) {
	task := NewTask("t-1", "x", time.Now())
	require.Equal(t, StateWaiting, task.State)
	require.True(t, task.IsEligibleForReassignment)
	require.Nil(t, task.AssignedToUserID)
	require.True(t, task.Active())
}
