package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-rotation-api/internal/assignment"
	"task-rotation-api/internal/audit"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/locks"
	"task-rotation-api/internal/realtime"
	"task-rotation-api/internal/store"
	"task-rotation-api/internal/testutil"
)

type testServer struct {
	router *gin.Engine
	svc    *assignment.Service
	hub    *realtime.Hub
}

func newTestServer(t *testing.T, opts assignment.Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	recorder := audit.NewRecorder(db, zap.NewNop())
	recorder.Subscribe(dispatcher)
	hub := realtime.NewHub(zap.NewNop())
	hub.Subscribe(dispatcher)

	if opts.Random == nil {
		opts.Random = assignment.FirstCandidate{}
	}
	opts.Publisher = dispatcher
	svc := assignment.NewService(store.New(), locks.NewRegistry(), opts)
	h := New(svc, recorder, hub, zap.NewNop())

	r := gin.New()
	r.GET("/ws", h.WebSocket)
	r.GET("/api/users", h.ListUsers)
	r.GET("/api/users/:id", h.GetUser)
	r.GET("/api/users/:id/tasks", h.GetUserTasks)
	r.POST("/api/users", h.CreateUser)
	r.PUT("/api/users/:id", h.UpdateUser)
	r.DELETE("/api/users/:id", h.DeleteUser)
	r.GET("/api/tasks", h.ListTasks)
	r.GET("/api/tasks/:id", h.GetTask)
	r.GET("/api/tasks/:id/audit", h.GetTaskAudit)
	r.POST("/api/tasks", h.CreateTask)
	r.PUT("/api/tasks/:id", h.UpdateTask)
	r.DELETE("/api/tasks/:id", h.DeleteTask)
	r.POST("/api/tasks/:id/assign/:userId", h.AssignTask)
	r.POST("/api/tasks/:id/unassign", h.UnassignTask)
	r.POST("/api/reassignment/run", h.RunReassignment)

	return &testServer{router: r, svc: svc, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createUser(t *testing.T, name string) UserResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/users", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var u UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	return u
}

func (s *testServer) createTask(t *testing.T, title string) TaskResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeTask(t, w)
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) TaskResponse {
	t.Helper()
	var task TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestRespondError_UnknownErrorIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil, nil)
	r := gin.New()
	r.GET("/fail", func(c *gin.Context) { h.respondError(c, context.DeadlineExceeded) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Code)
}
