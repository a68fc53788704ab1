package target

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const body = "Hello from example application."

type ServerConfig struct {
	Addr string
	// Instant skips the simulated latency of every endpoint.
	Instant bool
}

// Server is the demo service the built-in traffic mixes are written for.
type Server struct {
	cfg ServerConfig
	log *zap.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(cfg ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of all HTTP requests",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of all HTTP requests",
		}, []string{"code", "handler", "method"}),
	}
	s.registry.MustRegister(s.requests, s.duration)
	return s
}

// Handler returns the instrumented mux with all seven endpoints and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "/good", "found", s.good)
	s.route(mux, "/ok", "found", s.ok)
	s.route(mux, "/acceptable", "found", s.acceptable)
	s.route(mux, "/veryslow", "found", s.verySlow)
	s.route(mux, "/err", "found", s.err)
	s.route(mux, "/bad", "found", s.bad)
	s.route(mux, "/notfound", "not-found", s.notFound)

	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) route(mux *http.ServeMux, path, label string, h http.HandlerFunc) {
	mux.Handle(path,
		promhttp.InstrumentHandlerDuration(
			s.duration.MustCurryWith(prometheus.Labels{"handler": label}),
			promhttp.InstrumentHandlerCounter(s.requests, h),
		),
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("target listening", zap.String("addr", s.cfg.Addr), zap.Bool("instant", s.cfg.Instant))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("target shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Happy path. Fast and returns successfully
func (s *Server) good(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// Small delay but successful
func (s *Server) ok(w http.ResponseWriter, r *http.Request) {
	s.delay(r, 100, 300)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// Significant delay, but successful
func (s *Server) verySlow(w http.ResponseWriter, r *http.Request) {
	s.delay(r, 500, 800)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// Reasonable delay, then a 500 roughly one time in ten
func (s *Server) acceptable(w http.ResponseWriter, r *http.Request) {
	s.delay(r, 200, 300)
	if rand.IntN(100) > 10 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
}

// No delay, and returns 404
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

// Small delay, and returns 500
func (s *Server) err(w http.ResponseWriter, r *http.Request) {
	s.delay(r, 400, 600)
	w.WriteHeader(http.StatusInternalServerError)
}

// Significant delay with an empty 200
func (s *Server) bad(w http.ResponseWriter, r *http.Request) {
	s.delay(r, 500, 800)
	w.WriteHeader(http.StatusOK)
}

// delay sleeps a uniform [minMs, maxMs] milliseconds, returning early if the
// client goes away.
func (s *Server) delay(r *http.Request, minMs, maxMs int) {
	if s.cfg.Instant {
		return
	}
	d := time.Duration(minMs+rand.IntN(maxMs-minMs+1)) * time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.Context().Done():
	case <-t.C:
	}
}
