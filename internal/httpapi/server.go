// Package httpapi exposes catalog refreshes over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/bowmanmike/chartsync/internal/app"
)

// Refresher runs one catalog refresh.
type Refresher interface {
	Refresh(ctx context.Context) (app.RunSummary, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the refresh and health endpoints. Overlapping refresh
// requests join the run already in flight.
type Server struct {
	refresher Refresher
	pinger    Pinger
	logger    *slog.Logger
	runs      singleflight.Group
}

// New builds a Server. pinger may be nil.
func New(refresher Refresher, pinger Pinger, logger *slog.Logger) *Server {
	return &Server{refresher: refresher, pinger: pinger, logger: logger}
}

// Handler returns the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.POST("/refresh", s.refresh)
	r.GET("/fetch-lastfm", s.refresh)

	return r
}

func (s *Server) refresh(c *gin.Context) {
	// Runs are not cancelled when the caller goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	v, err, shared := s.runs.Do("refresh", func() (interface{}, error) {
		return s.refresher.Refresh(ctx)
	})
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if shared {
		c.Header("X-Refresh-Shared", "true")
	}
	c.JSON(http.StatusOK, v.(app.RunSummary))
}

func (s *Server) health(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
