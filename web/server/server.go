package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	geojson "github.com/paulmach/go.geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/df07/go-nearfield-flow/pkg/export"
	"github.com/df07/go-nearfield-flow/pkg/field"
	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/scene"
)

// Server handles web requests for field maps and power-flow lines
type Server struct {
	port      int
	configDir string
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *Metrics
	router    chi.Router
}

// NewServer creates a new web server. configDir holds additional YAML
// configurations listed next to the presets; it may be empty.
func NewServer(port int, configDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := &Server{
		port:      port,
		configDir: configDir,
		logger:    logger,
		registry:  reg,
		metrics:   NewMetrics(reg),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/presets", s.handlePresets)
	r.Get("/api/field", s.handleField)
	r.Get("/api/streamlines", s.handleStreamlines)
	r.Get("/api/flow", s.handleFlow)
	r.Get("/api/probe", s.handleProbe)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePresets lists presets and configuration files
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.configDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// buildScene resolves the requested configuration and applies overrides
func (s *Server) buildScene(req *PlotRequest) (*scene.Scene, error) {
	cfg, err := scene.Resolve(req.Scene, s.configDir)
	if err != nil {
		return nil, err
	}
	if req.Plane != "" {
		cfg.Plot.Plane = req.Plane
	}
	if req.Quantity != "" {
		cfg.Plot.Quantity = req.Quantity
	}
	if req.Points != 0 {
		cfg.Plot.Points = req.Points
	}
	if req.Factor != 0 {
		cfg.Plot.Factor = req.Factor
	}
	if req.Flows != nil {
		cfg.Plot.SetFlows(*req.Flows)
	}
	if req.Extend != nil {
		cfg.Plot.Extend = req.Extend
	}
	if req.Fixed != nil {
		cfg.Plot.FixedStep = *req.Fixed
	}
	if req.Cap != 0 {
		cfg.Trace.IterationCap = req.Cap
	}
	if req.Change != nil {
		cfg.Trace.MaxChange = *req.Change
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sc, err := scene.New(cfg)
	if err != nil {
		return nil, err
	}
	sc.Workers = req.Workers
	return sc, nil
}

func (s *Server) sceneFromRequest(w http.ResponseWriter, r *http.Request) (*PlotRequest, *scene.Scene, bool) {
	req, err := parsePlotRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return nil, nil, false
	}
	sc, err := s.buildScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, nil, false
	}
	return req, sc, true
}

// handleField renders the field map with streamlines as PNG
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	_, sc, ok := s.sceneFromRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	start := time.Now()
	grid, err := sc.Grid(ctx)
	s.metrics.observeGrid(start)
	if err != nil {
		if ctx.Err() == nil {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	start = time.Now()
	lines, err := sc.FlowLines(ctx, grid, s.logger)
	s.metrics.observeFlow(start)
	if err != nil {
		if ctx.Err() == nil {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	fig, err := sc.Render(grid, lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := fig.WritePNG(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", sc.FileName()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleStreamlines traces the configured bundle and returns GeoJSON
func (s *Server) handleStreamlines(w http.ResponseWriter, r *http.Request) {
	req, sc, ok := s.sceneFromRequest(w, r)
	if !ok {
		return
	}

	opts := export.Options{Points: req.Vertices}
	if req.Physical {
		opts.Scale = sc.Scale()
	}

	var fc *geojson.FeatureCollection
	start := time.Now()
	if sc.Config.Plot.FixedStep {
		if sc.Config.PlotPlane() == field.PlaneXY {
			s.traceOK(w, r, fmt.Errorf("%w: %s", flow.ErrUnsupportedPlane, field.PlaneXY))
			return
		}
		grid, err := sc.Grid(r.Context())
		s.metrics.observeGrid(start)
		if !s.traceOK(w, r, err) {
			return
		}
		start = time.Now()
		results := sc.TracePlanar(grid, s.logger)
		s.metrics.observeFlow(start)
		fc = export.PlanarStreamlines(sc.Config.PlotPlane(), results, opts)
	} else {
		results, err := sc.Trace(r.Context(), s.logger)
		s.metrics.observeFlow(start)
		if !s.traceOK(w, r, err) {
			return
		}
		for _, res := range results {
			s.metrics.observeResult(res)
		}
		fc = export.Streamlines(results, opts)
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.Write(w, fc); err != nil {
		s.logger.Error("failed to write GeoJSON", "error", err)
	}
}

// traceOK writes the error response for a failed trace: 400 for planes
// without flow lines, 500 otherwise, nothing once the client is gone.
func (s *Server) traceOK(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, flow.ErrUnsupportedPlane):
		writeError(w, http.StatusBadRequest, err)
	case r.Context().Err() == nil:
		writeError(w, http.StatusInternalServerError, err)
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
