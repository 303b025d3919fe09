// Package web exposes the engine over HTTP and streams events over a websocket.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gnana997/tokensync/pkg/engine"
	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/exporter"
	"github.com/gnana997/tokensync/pkg/parser"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// maxImportBytes is the default cap on /api/import request bodies.
const maxImportBytes = 16 << 20

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Server holds the HTTP handlers.
type Server struct {
	engine  *engine.Engine
	feed    *events.Broadcaster
	logger  *slog.Logger
	maxBody int64
}

// NewServer creates a Server. feed may be nil, in which case /api/events is
// not registered.
func NewServer(e *engine.Engine, feed *events.Broadcaster, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: e, feed: feed, logger: logger, maxBody: maxImportBytes}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.GET("/collections", s.handleCollections)
	api.POST("/import", s.handleImport)
	api.GET("/export", s.handleExport)
	api.POST("/clear", s.handleClear)
	if s.feed != nil {
		api.GET("/events", s.handleEvents)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, exporter.ErrUnknownFormat), errors.Is(err, tokens.ErrNotObject),
		errors.Is(err, tokens.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrSyntax):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleCollections(c *gin.Context) {
	list, err := s.engine.Collections(c.Request.Context())
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": list})
}

func (s *Server) handleImport(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		abort(c, http.StatusBadRequest, err)
		return
	}
	report, err := s.engine.Import(c.Request.Context(), data)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	f, err := exporter.ParseFormat(c.DefaultQuery("format", string(exporter.FormatSimplified)))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	artifact, err := s.engine.Export(c.Request.Context(), f)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	if c.Query("download") != "" {
		c.Header("Content-Disposition", `attachment; filename="`+artifact.FileName+`"`)
	}
	c.Data(http.StatusOK, artifact.MediaType, artifact.Content)
}

func (s *Server) handleClear(c *gin.Context) {
	res, err := s.engine.Clear(c.Request.Context())
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleEvents streams every engine event as a JSON websocket message until
// the client disconnects.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub, cancel := s.feed.Subscribe()
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		s.logger.Warn("Event stream set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// The reader only exists to process control frames and notice disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			return
		case <-c.Request.Context().Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
