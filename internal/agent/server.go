// Package agent serves the slippage estimator over HTTP together with the
// discovery, payment and health routes agents expect.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	chainsApp "github.com/DeganAI/slippage-sentinel/business/chains/app"
	paymentApp "github.com/DeganAI/slippage-sentinel/business/payment/app"
	slippageApp "github.com/DeganAI/slippage-sentinel/business/slippage/app"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/health"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/ratelimit"
)

// Deps are the collaborators of the HTTP server. Limiter, Metrics and Observer are optional.
type Deps struct {
	Config    *config.Config
	Logger    logger.LoggerInterface
	Estimator slippageApp.Estimator
	Chains    *chainsApp.ChainService
	Gate      paymentApp.Gate
	Health    *health.Registry
	Limiter   *ratelimit.Limiter
	Metrics   http.Handler
	Observer  Observer
}

// Server hosts the agent routes.
type Server struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	estimator slippageApp.Estimator
	chains    *chainsApp.ChainService
	gate      paymentApp.Gate
	health    *health.Registry
	limiter   *ratelimit.Limiter
	metrics   http.Handler
	observer  Observer

	handler http.Handler
}

// NewServer builds the router.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:       d.Config,
		log:       d.Logger,
		estimator: d.Estimator,
		chains:    d.Chains,
		gate:      d.Gate,
		health:    d.Health,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		observer:  d.Observer,
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.health == nil {
		s.health = health.NewRegistry(s.cfg.App.Version, 0)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Payment-Response", headerRequestID},
		AllowCredentials: false,
	}).Handler)
	r.Use(otelhttp.NewMiddleware(s.cfg.App.Name,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperror.NotFound(apperror.CodeNotFound, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperror.New(apperror.CodeMethodNotAllowed, apperror.WithContext(r.Method+" "+r.URL.Path)))
	})

	// probes stay outside the rate limit
	r.Get("/live", health.LiveHandler)
	r.Get("/ready", s.health.ReadyHandler())
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle(s.metricsPath(), s.metrics)
	}

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.handleRateLimited))
		}

		r.Get("/", s.handleLanding)
		r.Head("/", s.handleLanding)
		r.Post("/", s.handleEstimate(s.cfg.Payment.GateAllEstimates, false))
		r.Post("/slippage/estimate", s.handleEstimate(s.cfg.Payment.GateAllEstimates, false))

		r.Get(entrypointPath, s.handleChallenge(entrypointDescription))
		r.Head(entrypointPath, s.handleChallenge(entrypointDescription))
		r.Post(entrypointPath, s.handleEstimate(true, true))

		r.Get("/.well-known/agent.json", s.handleAgentCard)
		r.Head("/.well-known/agent.json", s.handleAgentCard)
		r.Get("/.well-known/x402", s.handleChallenge(x402Description))
		r.Head("/.well-known/x402", s.handleChallenge(x402Description))

		r.Get("/chains", s.handleChains)
		r.Get("/chains/{id}", s.handleChain)

		r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func (s *Server) metricsPath() string {
	if p := s.cfg.Telemetry.MetricsPath; p != "" {
		return p
	}
	return "/metrics"
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return apperror.Internal(apperror.CodeConfigurationError, "listen "+s.cfg.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully when ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", ln.Addr().String(), "free_mode", s.gate.FreeMode())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.log.Info(ctx, "http server shutting down", "timeout", timeout.String())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders an AppError body. Unknown errors become INTERNAL_ERROR.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.Wrap(err, apperror.CodeInternalError, "")

	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		appErr.WithTraceID(sc.TraceID().String())
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", appErr.ToLog())
	}
	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}
