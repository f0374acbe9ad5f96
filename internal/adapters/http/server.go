package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"phishdetect/internal/credentials"
	"phishdetect/internal/metrics"
	"phishdetect/internal/services/console"
	"phishdetect/internal/services/store"
	"phishdetect/internal/workers/analysisrunner"
)

const (
	defaultWaitTimeout = 120 * time.Second
	maxBodyBytes       = 1 << 20
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// AnalyzeRPS and AnalyzeBurst bound the analyze routes. Zero RPS disables
	// the limit.
	AnalyzeRPS   float64
	AnalyzeBurst int
}

// Server serves the console API.
type Server struct {
	console *console.Service
	store   *store.Store
	runner  *analysisrunner.Runner
	creds   *credentials.Selector
	metrics *metrics.Metrics
	logger  *slog.Logger
	limiter *rate.Limiter
}

func New(c *console.Service, st *store.Store, runner *analysisrunner.Runner, creds *credentials.Selector, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		console: c,
		store:   st,
		runner:  runner,
		creds:   creds,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if opts.AnalyzeRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.AnalyzeRPS), max(1, opts.AnalyzeBurst))
	}
	return s
}

// Routes returns a chi.Router with every console route mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/analyze/{kind}", s.postAnalyze)
			r.Post("/scans/test-vector", s.postTestVector)
		})
		r.Get("/jobs/{id}", s.getJob)
		r.Get("/scans", s.getScans)
		r.Get("/scans/{id}", s.getScan)

		r.Get("/posts", s.getPosts)
		r.Get("/posts/{id}", s.getPost)
		r.Post("/messages", s.postMessage)
		r.Get("/settings", s.getSettings)

		r.Get("/session", s.getSession)
		r.Post("/session/login", s.postLogin)
		r.Post("/session/logout", s.postLogout)

		// Console administration.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/dashboard", s.getDashboard)
			r.Get("/profile", s.getProfile)

			r.Post("/posts", s.postPost)
			r.Delete("/posts/{id}", s.deletePost)

			r.Get("/messages", s.getMessages)
			r.Delete("/messages/{id}", s.deleteMessage)
			r.Post("/messages/{id}/read", s.postMessageRead)

			r.Patch("/settings", s.patchSettings)

			r.Get("/credentials", s.getCredentials)
			r.Put("/credentials", s.putCredentials)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeProblem(w, http.StatusTooManyRequests, "rate_limited", "too many analysis requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Session().Authenticated {
			writeProblem(w, http.StatusUnauthorized, "session_required", "sign in to use the console")
			return
		}
		next.ServeHTTP(w, r)
	})
}
