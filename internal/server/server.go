// Package server exposes the cutting planner over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/piwi3910/lotcut/internal/engine"
	"github.com/piwi3910/lotcut/internal/metrics"
	"github.com/piwi3910/lotcut/internal/model"
	"github.com/piwi3910/lotcut/internal/tolerance"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the HTTP service settings.
type Config struct {
	Addr         string
	Settings     model.SolveSettings // defaults for requests that leave fields unset
	Bands        model.ToleranceBands
	SolveTimeout time.Duration
}

// Server serves POST /optimize, POST /group, POST /compare, GET /healthz and GET /metrics.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	logger   *zap.Logger
	recorder engine.RunRecorder
	validate *validator.Validate
}

// New builds the router. recorder may be nil.
func New(cfg Config, logger *zap.Logger, recorder engine.RunRecorder) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if !cfg.Bands.Valid() {
		cfg.Bands = model.DefaultToleranceBands()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		validate: validator.New(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/optimize", s.optimize)
	r.POST("/group", s.group)
	r.POST("/compare", s.compare)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// settingsFor applies the request's overrides to the server defaults.
func (s *Server) settingsFor(strategy string, inflation *float64, seed int64) (model.SolveSettings, error) {
	settings := s.cfg.Settings
	if strategy != "" {
		st, ok := model.ParseStrategy(strategy)
		if !ok {
			return settings, fmt.Errorf("%w: %q", engine.ErrUnknownStrategy, strategy)
		}
		settings.Strategy = st
	}
	if inflation != nil {
		settings.InflationPct = *inflation
	}
	if seed != 0 {
		settings.Genetic.Seed = seed
	}
	return settings, nil
}

func (s *Server) solveContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.SolveTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.SolveTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) optimize(c *gin.Context) {
	var req OptimizeRequest
	if !s.bind(c, &req) {
		return
	}
	settings, err := s.settingsFor(req.Strategy, req.InflationPct, req.Seed)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := s.solveContext(c)
	defer cancel()

	opt := engine.New(settings, engine.WithLogger(s.logger), engine.WithRecorder(s.recorder))
	result, err := opt.Run(ctx, req.engineRequest())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) group(c *gin.Context) {
	var req GroupRequest
	if !s.bind(c, &req) {
		return
	}
	bands := s.cfg.Bands
	if req.Bands != nil {
		if !req.Bands.Valid() {
			s.fail(c, fmt.Errorf("%w: invalid tolerance bands", engine.ErrInvalidInput))
			return
		}
		bands = *req.Bands
	}

	groups := tolerance.GroupRolls(req.Rolls, tolerance.BandClassifier(bands))
	c.JSON(http.StatusOK, GroupResponse{
		LotGroups: groups,
		Totals:    tolerance.ClassTotals(groups),
	})
}

func (s *Server) compare(c *gin.Context) {
	var req CompareRequest
	if !s.bind(c, &req) {
		return
	}
	base, err := s.settingsFor("", req.InflationPct, req.Seed)
	if err != nil {
		s.fail(c, err)
		return
	}
	var strategies []model.Strategy
	for _, name := range req.Strategies {
		st, ok := model.ParseStrategy(name)
		if !ok {
			s.fail(c, fmt.Errorf("%w: %q", engine.ErrUnknownStrategy, name))
			return
		}
		strategies = append(strategies, st)
	}

	ctx, cancel := s.solveContext(c)
	defer cancel()

	results := engine.CompareStrategies(ctx, base, strategies, req.engineRequest(), engine.WithLogger(s.logger))
	out := make([]ComparisonEntry, 0, len(results))
	for _, r := range results {
		out = append(out, newComparisonEntry(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// bind decodes and validates the JSON body, writing a 400 on failure.
func (s *Server) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		metrics.RecordInvalidInput("http", 1)
		s.fail(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, engine.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrSolverTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
