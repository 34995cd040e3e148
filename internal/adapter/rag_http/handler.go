package rag_http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"course-advisor/internal/domain"
	"course-advisor/internal/infra/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	serviceName        = "Course Advisor API"
	serviceDescription = "AI-Powered University Course Advisor"
	serviceVersion     = "1.0.0"

	maxBodyBytes = 1 << 20
)

// QueryDispatcher is the agent behind POST /chat.
type QueryDispatcher interface {
	Query(ctx context.Context, text string) (*domain.AnswerResult, error)
	Tools() []domain.SourceTool
}

// DocumentCounter reports the size of the document index for /stats.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

type ChatRequest struct {
	Query string `json:"query"`
}

type ChatResponse struct {
	Answer           string   `json:"answer"`
	SourceTool       string   `json:"source_tool"`
	RetrievedContext []string `json:"retrieved_context"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	AgentInitialized bool   `json:"agent_initialized"`
}

type StatsResponse struct {
	TotalDocuments interface{} `json:"total_documents"`
	AgentStatus    string      `json:"agent_status"`
	AvailableTools []string    `json:"available_tools"`
	Error          string      `json:"error,omitempty"`
}

type Handler struct {
	dispatcher QueryDispatcher
	counter    DocumentCounter
	validator  *requestValidator
	log        *logger.ContextLogger
}

// NewHandler builds the HTTP handler. A nil dispatcher serves the degraded
// mode where /chat and /stats answer 503.
func NewHandler(dispatcher QueryDispatcher, counter DocumentCounter, log *slog.Logger) (*Handler, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Handler{
		dispatcher: dispatcher,
		counter:    counter,
		validator:  validator,
		log:        logger.NewContextLogger(log),
	}, nil
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/stats", h.Stats)
	e.GET("/openapi.json", h.OpenAPI)
	e.POST("/chat", h.Chat)
}

// Root describes the service
// (GET /)
func (h *Handler) Root(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Welcome to " + serviceName,
		"description": serviceDescription,
		"version":     serviceVersion,
		"endpoints": map[string]string{
			"/chat":         "POST - Main chat endpoint for course queries",
			"/health":       "GET - Health check endpoint",
			"/stats":        "GET - Index statistics",
			"/openapi.json": "GET - API document",
		},
	})
}

// Health reports whether the agent is ready
// (GET /health)
func (h *Handler) Health(ctx echo.Context) error {
	ready := h.dispatcher != nil
	status := "healthy"
	if !ready {
		status = "unhealthy"
	}
	return ctx.JSON(http.StatusOK, HealthResponse{Status: status, AgentInitialized: ready})
}

// OpenAPI serves the embedded API document
// (GET /openapi.json)
func (h *Handler) OpenAPI(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSON, openapiDocument)
}

// Chat answers a query through the dispatcher
// (POST /chat)
func (h *Handler) Chat(ctx echo.Context) error {
	reqCtx := logger.WithRequestID(ctx.Request().Context(), requestID(ctx))
	log := h.log.WithContext(reqCtx)

	if h.dispatcher == nil {
		log.Error("agent_not_initialized")
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Service temporarily unavailable. Agent not initialized."})
	}

	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxBodyBytes))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req, err := h.validator.decodeChat(body)
	if err != nil {
		log.Warn("chat_request_invalid", slog.String("error", err.Error()))
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Query cannot be empty."})
	}

	log.Info("chat_query_received", slog.Int("query_length", len(req.Query)))
	result, err := h.dispatcher.Query(reqCtx, req.Query)
	if err != nil || result == nil {
		if err != nil {
			log.Error("chat_query_failed", slog.String("error", err.Error()))
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "An error occurred while processing your query"})
	}

	contexts := result.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	log.Info("chat_query_answered",
		slog.String("source_tool", string(result.SourceTool)),
		slog.String("route", result.Route.String()))

	return ctx.JSON(http.StatusOK, ChatResponse{
		Answer:           result.Answer,
		SourceTool:       string(result.SourceTool),
		RetrievedContext: contexts,
	})
}

// Stats reports index size and the available tools
// (GET /stats)
func (h *Handler) Stats(ctx echo.Context) error {
	if h.dispatcher == nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Agent not initialized"})
	}

	tools := h.dispatcher.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, string(t))
	}
	resp := StatsResponse{AgentStatus: "active", AvailableTools: names}

	if h.counter == nil {
		resp.TotalDocuments = "unknown"
		resp.Error = "document index not configured"
		return ctx.JSON(http.StatusOK, resp)
	}
	count, err := h.counter.Count(ctx.Request().Context())
	if err != nil {
		h.log.WithContext(ctx.Request().Context()).Error("stats_count_failed", slog.String("error", err.Error()))
		resp.TotalDocuments = "unknown"
		resp.Error = err.Error()
		return ctx.JSON(http.StatusOK, resp)
	}
	resp.TotalDocuments = count
	return ctx.JSON(http.StatusOK, resp)
}

func requestID(ctx echo.Context) string {
	if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := ctx.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
