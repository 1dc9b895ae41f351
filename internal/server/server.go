// Package server exposes the chat and upload operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chat"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/metrics"
)

// Turner runs one chat turn.
type Turner interface {
	Turn(ctx context.Context, history chat.History, message string) chat.History
}

// Uploader stores an uploaded file.
type Uploader interface {
	Save(name string, content io.Reader) (string, error)
}

type Options struct {
	Agent          Turner
	Uploads        Uploader
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	MaxUploadBytes int64
}

type Server struct {
	echo    *echo.Echo
	agent   Turner
	uploads Uploader
	logger  *slog.Logger
}

type chatRequest struct {
	Message string       `json:"message"`
	History chat.History `json:"history"`
}

type chatResponse struct {
	Input   string       `json:"input"`
	History chat.History `json:"history"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		echo:    echo.New(),
		agent:   opts.Agent,
		uploads: opts.Uploads,
		logger:  logger.With("component", "http"),
	}
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))

	api := e.Group("/api")
	limit := opts.MaxUploadBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	api.POST("/upload", s.upload, middleware.BodyLimit(fmt.Sprintf("%dB", limit)))
	api.POST("/chat", s.chat)
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	status, err := s.uploads.Save(fh.Filename, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "Error: " + err.Error()})
	}
	s.logger.Info("file uploaded", "name", fh.Filename, "bytes", fh.Size)
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	history := s.agent.Turn(c.Request().Context(), req.History, req.Message)
	return c.JSON(http.StatusOK, chatResponse{Input: "", History: history})
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	s.logger.Warn("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "remote", c.RealIP(), "error", err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
