package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"task-rotation-api/internal/handlers"
	"task-rotation-api/internal/middleware"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Handler  *handlers.Handler
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

func SetupRoutes(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := deps.Handler

	ginRouter := gin.New()
	ginRouter.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(),
	)

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Rotation API is running",
		})
	})
	ginRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	ginRouter.GET("/ws", h.WebSocket)

	api := ginRouter.Group("/api")
	{
		users := api.Group("/users")
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/tasks", h.GetUserTasks)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)

		tasks := api.Group("/tasks")
		tasks.GET("", h.ListTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.GET("/:id/audit", h.GetTaskAudit)
		tasks.POST("", h.CreateTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
		tasks.POST("/:id/assign/:userId", h.AssignTask)
		tasks.POST("/:id/unassign", h.UnassignTask)

		api.POST("/reassignment/run", h.RunReassignment)
	}

	return ginRouter
}
