// Package server exposes the detection pipeline and calibration management
// over HTTP.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tanklens/tanklens/internal/calibration"
	"github.com/tanklens/tanklens/internal/pipeline"
)

// Server holds the HTTP surface's collaborators.
type Server struct {
	orchestrator *pipeline.Orchestrator
	store        calibration.Store
	history      *pipeline.MemorySink
	log          *logrus.Logger
}

// New creates a server. history may be nil when no history endpoint is wanted.
func New(orchestrator *pipeline.Orchestrator, store calibration.Store, history *pipeline.MemorySink, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		history:      history,
		log:          log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/healthz", s.health)

	api := router.Group("/api/v1")
	api.POST("/detect", s.detect)
	api.GET("/history", s.historyList)

	cals := api.Group("/calibrations")
	cals.GET("", s.calibrationList)
	cals.POST("", s.calibrationCreate)
	cals.POST("/import", s.calibrationImport)
	cals.GET("/:id", s.calibrationGet)
	cals.GET("/:id/export", s.calibrationExport)
	cals.DELETE("/:id", s.calibrationDelete)

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}).Debug("http request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
