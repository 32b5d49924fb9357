package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-rotation-api/internal/assignment"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/handlers"
	"task-rotation-api/internal/locks"
	"task-rotation-api/internal/observability"
	"task-rotation-api/internal/realtime"
	"task-rotation-api/internal/store"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	hub := realtime.NewHub(zap.NewNop())
	hub.Subscribe(dispatcher)
	svc := assignment.NewService(store.New(), locks.NewRegistry(), assignment.Options{
		Publisher: dispatcher,
		Metrics:   observability.NewRotationMetrics(reg),
	})

	return SetupRoutes(Deps{
		Handler:  handlers.New(svc, nil, hub, zap.NewNop()),
		Logger:   zap.NewNop(),
		Gatherer: reg,
	})
}

func serve(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	w := serve(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRotationFlowAndMetrics(t *testing.T) {
	r := newRouter(t)

	for _, name := range []string{"A", "B", "C"} {
		w := serve(r, http.MethodPost, "/api/users", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := serve(r, http.MethodPost, "/api/tasks", map[string]string{"title": "T"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task handlers.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, "A", *task.AssignedToUserName)

	seen := map[string]bool{"A": true}
	for i := 0; i < 2; i++ {
		w = serve(r, http.MethodPost, "/api/reassignment/run", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = serve(r, http.MethodGet, "/api/tasks/"+task.ID, nil)
		var got handlers.TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.NotNil(t, got.AssignedToUserName)
		require.False(t, seen[*got.AssignedToUserName], "user %s visited twice", *got.AssignedToUserName)
		seen[*got.AssignedToUserName] = true
	}

	w = serve(r, http.MethodPost, "/api/reassignment/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = serve(r, http.MethodGet, "/api/tasks/"+task.ID, nil)
	var done handlers.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	require.EqualValues(t, "Completed", done.State)
	require.Nil(t, done.AssignedToUserID)

	w = serve(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `task_rotation_cycles_total{result="ok"} 3`)
	require.Contains(t, w.Body.String(), `task_rotation_task_outcomes_total{outcome="completed"} 1`)
}

func TestAuditWithoutRecorderIsEmpty(t *testing.T) {
	r := newRouter(t)
	w := serve(r, http.MethodGet, "/api/tasks/anything/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"events":[],"count":0}`, w.Body.String())
}
