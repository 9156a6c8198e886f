package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
)

// WorkflowRunner is the coordinator surface the HTTP layer depends on.
type WorkflowRunner interface {
	Run(ctx context.Context, question string, scope *models.ScopeHint) (*models.RunResult, error)
}

// QueryHandler adapts HTTP requests to workflow runs. It carries no
// business logic: it binds the request, calls the coordinator, and
// serializes the response envelope.
type QueryHandler struct {
	runner WorkflowRunner
	logger *logger.Logger
}

func NewQueryHandler(runner WorkflowRunner, log *logger.Logger) *QueryHandler {
	return &QueryHandler{runner: runner, logger: log}
}

func (handler *QueryHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/query", handler.HandleQuery)
	router.POST("/query/contextual", handler.HandleContextualQuery)
	router.GET("/health", handler.HandleHealth)
}

func (handler *QueryHandler) HandleQuery(c *gin.Context) {
	var request models.QueryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	// global mode ignores any scope the client sent
	handler.run(c, request.Question, nil)
}

func (handler *QueryHandler) HandleContextualQuery(c *gin.Context) {
	var request models.QueryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	handler.run(c, request.Question, request.Context)
}

func (handler *QueryHandler) run(c *gin.Context, question string, scope *models.ScopeHint) {
	startTime := time.Now()

	result, err := handler.runner.Run(c.Request.Context(), question, scope)
	if err != nil {
		handler.logger.WithError(err).Error("workflow run failed", "question", question)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	handler.logger.LogService("http", "query", time.Since(startTime), map[string]any{
		"question":    question,
		"agent_count": len(result.Trace.AgentsInvoked),
		"error_count": len(result.Errors),
	}, nil)

	c.JSON(http.StatusOK, models.NewQueryResponse(question, result, scope))
}

func (handler *QueryHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"source":  models.ResponseSourceMultiAgent,
		"version": models.WorkflowVersion,
	})
}
