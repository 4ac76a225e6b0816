// Package server exposes the sift HTTP API.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fentz26/sift/internal/models"
	"github.com/fentz26/sift/internal/store"
)

// Server wraps the echo instance and its handlers.
type Server struct {
	echo *echo.Echo
	svc  *Service
	st   *store.Store
	log  zerolog.Logger
}

// New creates the HTTP server and registers all routes.
func New(svc *Service, st *store.Store, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			log.Info().
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("http request")

			return err
		}
	})

	s := &Server{echo: e, svc: svc, st: st, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/todos", s.handleListTodos)
	api.POST("/todos", s.handleCreateTodo)
	api.GET("/todos/:id", s.handleGetTodo)
	api.PATCH("/todos/:id", s.handleUpdateTodo)
	api.DELETE("/todos/:id", s.handleDeleteTodo)
	api.POST("/todos/:id/toggle", s.handleToggleTodo)
	api.POST("/todos/:id/reassign", s.handleReassignTodo)

	api.GET("/today", s.handleToday)
	api.GET("/calendar", s.handleCalendar)

	api.GET("/suggestions", s.handleListSuggestions)
	api.POST("/suggestions/:id/accept", s.handleAcceptSuggestion)
	api.POST("/suggestions/:id/discard", s.handleDiscardSuggestion)

	api.POST("/sync", s.handleSync)
	api.GET("/syncs", s.handleListSyncRuns)
	api.GET("/status", s.handleStatus)
	api.POST("/digest", s.handleDigest)
}

// Start serves on the given address until the listener fails or Shutdown is
// called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.st.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func todoID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid todo id")
	}
	return id, nil
}

// scheduleRequest is the shared body for create, accept and reassign.
// Either shortcut or timeline_type+value is provided.
type scheduleRequest struct {
	Shortcut     string              `json:"shortcut"`
	TimelineType models.TimelineType `json:"timeline_type"`
	Value        string              `json:"value"`
}

func (r scheduleRequest) resolve() (models.TimelineType, string, error) {
	return ResolveSchedule(r.Shortcut, r.TimelineType, r.Value, time.Now())
}

type createTodoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	scheduleRequest
}

func (s *Server) handleCreateTodo(c echo.Context) error {
	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tt, value, err := req.resolve()
	if err != nil {
		return httpError(err)
	}

	todo, err := s.st.CreateTodo(store.CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		TimelineType: tt,
		DueValue:     value,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, todo)
}

func (s *Server) handleListTodos(c echo.Context) error {
	todos, err := s.st.ListTodos(models.TodoStatus(c.QueryParam("status")))
	if err != nil {
		return httpError(err)
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return c.JSON(http.StatusOK, todos)
}

func (s *Server) handleGetTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	todo, err := s.st.GetTodo(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

type updateTodoRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

func (s *Server) handleUpdateTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	todo, err := s.st.UpdateTodo(id, store.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	if err := s.st.DeleteTodo(id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleToggleTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	todo, err := s.svc.Toggle(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

func (s *Server) handleReassignTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tt, value, err := req.resolve()
	if err != nil {
		return httpError(err)
	}
	todo, err := s.st.Reassign(id, tt, value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

func (s *Server) handleToday(c echo.Context) error {
	view, err := s.st.TodayView(time.Now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleCalendar(c echo.Context) error {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := c.QueryParam("year"); v != "" {
		if year, _ = strconv.Atoi(v); year < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
		}
	}
	if v := c.QueryParam("month"); v != "" {
		if month, _ = strconv.Atoi(v); month < 1 || month > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
		}
	}

	view, err := s.st.CalendarView(year, time.Month(month))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleListSuggestions(c echo.Context) error {
	sugs, err := s.st.Suggestions()
	if err != nil {
		return httpError(err)
	}
	if sugs == nil {
		sugs = []models.Todo{}
	}
	return c.JSON(http.StatusOK, sugs)
}

func (s *Server) handleAcceptSuggestion(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tt, value, err := req.resolve()
	if err != nil {
		return httpError(err)
	}
	todo, err := s.st.AcceptSuggestion(id, tt, value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

func (s *Server) handleDiscardSuggestion(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	todo, err := s.st.DiscardSuggestion(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

type syncRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleSync(c echo.Context) error {
	var req syncRequest
	// The body is optional.
	_ = c.Bind(&req)

	stats, err := s.svc.Sync(c.Request().Context(), req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListSyncRuns(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := s.st.ListSyncRuns(limit)
	if err != nil {
		return httpError(err)
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Status())
}

type digestRequest struct {
	Push bool `json:"push"`
}

type digestResponse struct {
	Text   string `json:"text"`
	Pushed bool   `json:"pushed"`
}

func (s *Server) handleDigest(c echo.Context) error {
	var req digestRequest
	_ = c.Bind(&req)

	text, pushed, err := s.svc.Digest(c.Request().Context(), time.Now(), req.Push)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, digestResponse{Text: text, Pushed: pushed})
}
