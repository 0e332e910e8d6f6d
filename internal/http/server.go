package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"salesledger/internal/ledger"
	"salesledger/internal/log"
	"salesledger/internal/middleware/ratelimit"
	"salesledger/internal/middleware/security"
	"salesledger/internal/middleware/trace"
	"salesledger/internal/services"
)

// SalesQuerier answers dashboard queries.
type SalesQuerier interface {
	Query(ctx context.Context, q services.SalesQuery) (services.SalesResponse, error)
	DefaultCurrency() string
}

// Reloader swaps in a fresh ledger snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*ledger.Snapshot, error)
	Ready() bool
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	ReloadLimit    ratelimit.Config
	Logger         *log.Logger
}

// Server serves the sales API.
type Server struct {
	http.Server
	querier  SalesQuerier
	reloader Reloader
	logger   *log.Logger
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, querier SalesQuerier, reloader Reloader) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if opts.ReloadLimit.Requests == 0 {
		opts.ReloadLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		querier:  querier,
		reloader: reloader,
		logger:   logger,
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(opts.ReloadLimit),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Reload rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		TooManyRequestsError("rate limit exceeded").Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sales-data", s.handleSalesData)
	mux.Handle("/api/reload", limited(http.HandlerFunc(s.handleReload)))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.flagSuspicious(handler)
	handler = corsHandler.Handler(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// flagSuspicious logs requests that look like probing. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Stats reports request counters from the middleware chain.
type Stats struct {
	Trace     trace.Metrics
	RateLimit ratelimit.Metrics
	Security  security.DetectionMetrics
}

// Stats returns a point-in-time view of the middleware counters.
func (s *Server) Stats() Stats {
	return Stats{
		Trace:     s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}
}
