// Package server expose le rapport RFM en HTTP pour la couche de présentation.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rfm-dashboard/pkg/calculator"
	"rfm-dashboard/pkg/logger"
	"rfm-dashboard/pkg/models"
	"rfm-dashboard/pkg/report"
	"rfm-dashboard/pkg/source"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	src      source.Source
	defaults models.Config
	log      *zap.SugaredLogger
	engine   *gin.Engine
}

// New enregistre les routes. defaults fournit TopN et HistogramBins quand la requête ne les précise pas.
func New(src source.Source, defaults models.Config, log *zap.SugaredLogger) *Server {
	s := &Server{src: src, defaults: defaults, log: logger.OrNop(log), engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.requestLog())

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.engine.Group("/api/v1")
	api.GET("/segments", s.segments)
	api.GET("/rfm", s.rfm)
	api.GET("/rfm.csv", s.rfmCSV)
	return s
}

// Handler renvoie le routeur enveloppé par le middleware CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.engine)
}

// Run écoute sur addr jusqu'à l'annulation de ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Infow("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) segments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"segments": calculator.SegmentChoices()})
}

func (s *Server) rfm(c *gin.Context) {
	r, ok := s.compute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) rfmCSV(c *gin.Context) {
	r, ok := s.compute(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="rfm.csv"`)
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, r.Metrics); err != nil {
		s.log.Errorw("write csv", "error", err)
	}
}

// compute exécute le pipeline complet pour la requête ; écrit la réponse d'erreur si besoin.
func (s *Server) compute(c *gin.Context) (*models.Report, bool) {
	cfg := s.defaults
	cfg.Progress = false

	w, err := calculator.ParseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, false
	}
	cfg.Window = w
	cfg.Segment = c.DefaultQuery("segment", models.AllSegments)
	if top := c.Query("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n < 1 {
			s.fail(c, http.StatusBadRequest, errors.New("top doit être un entier >= 1"))
			return nil, false
		}
		cfg.TopN = n
	}

	ds, err := s.src.Fetch(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return nil, false
	}
	r, err := calculator.Compute(ds, cfg)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return nil, false
	}
	return r, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, calculator.ErrUnknownSegment), errors.Is(err, calculator.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, calculator.ErrDegenerateQuartiles), errors.Is(err, calculator.ErrNoOrders):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Errorw("rfm request failed", "status", status, "error", err)
	} else {
		s.log.Warnw("rfm request rejected", "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
