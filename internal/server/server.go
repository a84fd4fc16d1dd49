// Package server exposes the analytics core as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/cannalytics/internal/aggregate"
	"github.com/KaramelBytes/cannalytics/internal/chart"
	"github.com/KaramelBytes/cannalytics/internal/county"
	"github.com/KaramelBytes/cannalytics/internal/dataset"
	"github.com/KaramelBytes/cannalytics/internal/filter"
	"github.com/KaramelBytes/cannalytics/internal/memo"
	"github.com/KaramelBytes/cannalytics/internal/quality"
	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/validation"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Presets  validation.Presets
	Defaults filter.Defaults
	Regions  []county.Region
	Cache    *memo.Cache
	Logger   *slog.Logger
	Debug    bool
}

// Server holds the loaded bundle; handlers only read it.
type Server struct {
	bundle   *dataset.Bundle
	presets  validation.Presets
	defaults filter.Defaults
	cache    *memo.Cache
	calc     *aggregate.Calculator
	log      *slog.Logger
	engine   *gin.Engine
}

// New builds the router over b.
func New(b *dataset.Bundle, opt Options) *Server {
	if opt.Presets == nil {
		opt.Presets = validation.DefaultPresets()
	}
	if opt.Defaults.LicenseTypes == nil {
		opt.Defaults = filter.StandardDefaults()
	}
	if opt.Regions == nil {
		opt.Regions = county.CaliforniaRegions
	}
	if opt.Cache == nil {
		opt.Cache = memo.New(memo.DefaultTTL)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	s := &Server{
		bundle:   b,
		presets:  opt.Presets,
		defaults: opt.Defaults,
		cache:    opt.Cache,
		calc:     &aggregate.Calculator{Cache: opt.Cache, Regions: opt.Regions},
		log:      opt.Logger,
	}
	if opt.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/cache/reset", s.resetCache)
	api.GET("/quality", s.quality)
	api.GET("/validation", s.validation)
	api.GET("/filters/summary", s.filterSummary)
	api.GET("/growth", s.growth)
	api.GET("/density/regions", s.regions)
	api.GET("/density/top", s.topCounties)
	api.GET("/sentiment/counties", s.countySentiment)
	api.GET("/sentiment/monthly", s.monthlySentiment)
	api.GET("/correlation", s.correlation)
	api.GET("/licenses/types", s.licenseTypes)
	api.GET("/boundaries/coverage", s.coverage)
	api.GET("/charts/:kind", s.chart)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// envelope wraps filtered results so callers can tell an empty selection
// from a failure.
type envelope struct {
	Filters string `json:"filters"`
	Empty   bool   `json:"empty"`
	Rows    int    `json:"rows"`
	Data    any    `json:"data"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// selection parses the filter query and applies it to one dataset.
func (s *Server) selection(c *gin.Context, name string) (*table.Table, filter.Spec, bool) {
	spec, err := filter.FromQuery(c.Request.URL.Query())
	if err != nil {
		badRequest(c, err)
		return nil, spec, false
	}
	t, ok := s.bundle.Table(name)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset " + name + " is not loaded"})
		return nil, spec, false
	}
	return filter.Apply(t, spec), spec, true
}

func (s *Server) respond(c *gin.Context, spec filter.Spec, t *table.Table, data any) {
	c.JSON(http.StatusOK, envelope{
		Filters: filter.Summary(spec, s.defaults),
		Empty:   t.Empty(),
		Rows:    t.NumRows(),
		Data:    data,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": s.cache.Stats(), "warnings": s.bundle.Warnings})
}

func (s *Server) resetCache(c *gin.Context) {
	s.cache.Reset()
	c.JSON(http.StatusOK, gin.H{"session": s.cache.Session()})
}

func (s *Server) quality(c *gin.Context) {
	metrics := quality.ComputeAll(s.cache, s.bundle.Tables())
	c.JSON(http.StatusOK, gin.H{"datasets": metrics, "summary": quality.Overall(metrics)})
}

func (s *Server) validation(c *gin.Context) {
	results := validation.ValidateAll(s.bundle.Tables(), s.presets)
	c.JSON(http.StatusOK, gin.H{"valid": validation.AllValid(results), "datasets": results})
}

func (s *Server) filterSummary(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Dispensaries)
	if !ok {
		return
	}
	full, _ := s.bundle.Table(dataset.Dispensaries)
	opts := filter.OptionsFor(full)
	c.JSON(http.StatusOK, gin.H{
		"summary":  filter.Summary(spec, s.defaults),
		"active":   filter.HasActive(spec, s.defaults),
		"rows":     t.NumRows(),
		"empty":    t.Empty(),
		"options":  opts,
		"defaults": gin.H{"years": s.defaults.Years, "license_types": s.defaults.LicenseTypes},
	})
}

func (s *Server) growth(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Dispensaries)
	if !ok {
		return
	}
	s.respond(c, spec, t, s.calc.YearlyGrowth(t))
}

func (s *Server) regions(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Density)
	if !ok {
		return
	}
	s.respond(c, spec, t, s.calc.RegionalDensity(t))
}

func (s *Server) topCounties(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Density)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n < 0 {
		badRequest(c, errors.New("n must be a non-negative integer"))
		return
	}
	top := s.calc.TopCounties(t, n, c.Query("metric"))
	s.respond(c, spec, t, top.Records())
}

func (s *Server) countySentiment(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Sentiment)
	if !ok {
		return
	}
	s.respond(c, spec, t, s.calc.CountySentiments(t))
}

func (s *Server) monthlySentiment(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Sentiment)
	if !ok {
		return
	}
	months := s.calc.MonthlySentiments(t)
	s.respond(c, spec, t, gin.H{"months": months, "volume_growth": aggregate.VolumeGrowth(months)})
}

func (s *Server) correlation(c *gin.Context) {
	sent, spec, ok := s.selection(c, dataset.Sentiment)
	if !ok {
		return
	}
	density, _, ok := s.selection(c, dataset.Density)
	if !ok {
		return
	}
	s.respond(c, spec, sent, s.calc.MarketCorrelation(sent, density))
}

func (s *Server) licenseTypes(c *gin.Context) {
	t, spec, ok := s.selection(c, dataset.Dispensaries)
	if !ok {
		return
	}
	s.respond(c, spec, t, s.calc.LicenseTypeDistribution(t))
}

func (s *Server) coverage(c *gin.Context) {
	if s.bundle.Boundaries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "boundaries are not loaded"})
		return
	}
	out := gin.H{}
	for name, t := range s.bundle.Tables() {
		if t == nil {
			continue
		}
		cov := s.bundle.Boundaries.CoverageOf(county.Unique(t, "County"))
		out[name] = gin.H{"complete": cov.Complete(), "coverage": cov}
	}
	c.JSON(http.StatusOK, gin.H{"features": len(s.bundle.Boundaries.Features), "datasets": out})
}

func (s *Server) chart(c *gin.Context) {
	kind, ok := chart.Normalize(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + c.Param("kind")})
		return
	}
	var name string
	switch kind {
	case "growth":
		name = dataset.Dispensaries
	case "density":
		name = dataset.Density
	default:
		name = dataset.Sentiment
	}
	t, _, ok := s.selection(c, name)
	if !ok {
		return
	}
	density := s.bundle.Density
	if kind == "correlation" {
		if density, _, ok = s.selection(c, dataset.Density); !ok {
			return
		}
	}
	p, err := chart.Build(kind, s.calc, t, density)
	if errors.Is(err, chart.ErrNoData) {
		c.JSON(http.StatusOK, gin.H{"empty": true})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := chart.WritePNG(p, c.Writer); err != nil {
		s.log.Error("render chart", "kind", kind, "err", err)
	}
}
