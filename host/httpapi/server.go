// Package httpapi serves the attachment edit endpoint and the JSON API around
// the media library.
package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/media"
	"github.com/edigermatthew/wonder-alt/host/metrics"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP surface.
type Options struct {
	AdminToken    string
	CORSOrigins   []string
	RatePerSecond float64
	RateBurst     int
}

// Server routes requests to the media library.
type Server struct {
	library *media.Service
	metrics *metrics.Metrics
	logger  host.Logger
	limiter *RateLimiter
	token   string
	handler http.Handler
}

// New builds the router. metrics may be nil.
func New(library *media.Service, m *metrics.Metrics, logger host.Logger, opts Options) *Server {
	s := &Server{
		library: library,
		metrics: m,
		logger:  logger,
		limiter: NewRateLimiter(opts.RatePerSecond, opts.RateBurst),
		token:   opts.AdminToken,
	}

	router := httprouter.New()
	router.POST("/wp-admin/admin-ajax.php/save-attachment", s.instrument("save_attachment", s.guard(s.handleEdit)))
	router.POST("/api/attachments/:id/edit", s.instrument("edit_attachment", s.guard(s.handleEdit)))
	router.POST("/api/attachments", s.instrument("create_attachment", s.guard(s.handleCreate)))
	router.GET("/api/attachments/:id", s.instrument("get_attachment", s.guard(s.handleGet)))
	router.GET("/healthz", s.handleHealth)
	if m != nil {
		metricsHandler := m.Handler()
		router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			metricsHandler.ServeHTTP(w, r)
		})
	}

	s.handler = withCORS(router, opts.CORSOrigins)
	return s
}

// Handler returns the root handler including CORS.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func withCORS(handler http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return handler
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
	})
	return c.Handler(handler)
}

// guard applies rate limiting and admin token checks.
func (s *Server) guard(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !s.limiter.Allow(clientKey(r)) {
			writeFailure(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.token != "" && !s.authorized(r) {
			writeFailure(w, http.StatusForbidden, "forbidden")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next(w, r, ps)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.token)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, ps)

		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordRequest(route, rec.status, elapsed)
			s.metrics.SetScheduled(s.library.Pending())
		}
		s.logger.Debug("http request", "route", route, "status", rec.status, "elapsed", elapsed)
	}
}
