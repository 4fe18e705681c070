package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/kmodctl/internal/auth"
	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": "kmodctl",
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	modules := s.router.Group("/modules", auth.RequireBearer(s.validator()))
	modules.POST("/inspect", s.handleInspect)
	modules.POST("/verify", s.handleVerify)
}

func (s *Server) handleInspect(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes)
	rep, err := inspect.Header(body)
	if err != nil {
		s.reject(c, "inspect", rep, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleVerify(c *gin.Context) {
	strategy := s.cfg.Strategy()
	if raw, ok := c.GetQuery("strategy"); ok {
		parsed, err := kmod.ParseVersionCheckStrategy(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		strategy = parsed
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes)
	rep, _, err := inspect.Verify(body, inspect.Options{
		Runtime:   s.cfg.Runtime(),
		Supported: s.cfg.SupportedVersions,
		Strategy:  strategy,
	})
	if err != nil {
		s.reject(c, "verify", rep, err)
		return
	}
	s.logger.Info().
		Str("runtime_version", rep.Header.RuntimeVersion).
		Int("payload_bytes", rep.PayloadBytes).
		Msg("module verified")
	c.JSON(http.StatusOK, rep)
}

func (s *Server) reject(c *gin.Context, op string, rep inspect.Report, err error) {
	status := http.StatusUnprocessableEntity
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	s.logger.Warn().Str("op", op).Str("kind", rep.Kind).Err(err).Msg("module rejected")
	c.JSON(status, rep)
}
