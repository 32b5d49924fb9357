package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-rotation-api/internal/events"
	"task-rotation-api/internal/testutil"
)

func newRecorder(t *testing.T) *Recorder {
	t.Helper()
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	return NewRecorder(db, zap.NewNop())
}

func TestRecorder_RecordAndList(t *testing.T) {
	r := newRecorder(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Record(ctx, events.Event{ID: "e-1", Type: events.EventTaskCreated, TaskID: "t-1", UserID: "u-1", Timestamp: now}))
	require.NoError(t, r.Record(ctx, events.Event{ID: "e-2", Type: events.EventTaskCreated, TaskID: "t-2", Timestamp: now}))
	require.NoError(t, r.Record(ctx, events.Event{ID: "e-3", Type: events.EventTaskAssigned, TaskID: "t-1", UserID: "u-2", PreviousUserID: "u-1", Timestamp: now.Add(time.Minute)}))

	rows, err := r.ListByTask(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "e-1", rows[0].EventID)
	require.Equal(t, "task_created", rows[0].Kind)
	require.Equal(t, "e-3", rows[1].EventID)
	require.Equal(t, "u-2", rows[1].UserID)
	require.Equal(t, "u-1", rows[1].PreviousUserID)

	rows, err = r.ListByTask(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestRecorder_DuplicateEventRejected(t *testing.T) {
	r := newRecorder(t)
	e := events.Event{ID: "e-1", Type: events.EventTaskCreated, TaskID: "t-1", Timestamp: time.Now()}
	require.NoError(t, r.Record(context.Background(), e))
	require.Error(t, r.Record(context.Background(), e))
}

func TestRecorder_SubscribeSkipsUserEvents(t *testing.T) {
	r := newRecorder(t)
	d := events.NewInMemoryDispatcher(zap.NewNop())
	r.Subscribe(d)

	ctx := context.Background()
	d.Publish(ctx, events.Event{ID: "e-1", Type: events.EventUserCreated, UserID: "u-1", Timestamp: time.Now()})
	d.Publish(ctx, events.Event{ID: "e-2", Type: events.EventTaskParked, TaskID: "t-1", PreviousUserID: "u-1", Timestamp: time.Now()})

	rows, err := r.ListByTask(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "task_parked", rows[0].Kind)

	var count int64
	require.NoError(t, r.db.Table("assignment_events").Count(&count).Error)
	require.EqualValues(t, 1, count)
}
