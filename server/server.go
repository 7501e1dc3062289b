// Package server implements the stateless HTTP backend: access-code auth with
// silently refreshable tokens, the bootstrap snapshot endpoint, and the
// rate-limited per-field update endpoint over the config store.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xingkaijun/modernnav/configstore"
	"github.com/xingkaijun/modernnav/internal/config"
	"github.com/xingkaijun/modernnav/ratelimit"
)

const (
	loginRateMax    = 15
	loginRateWindow = 15 * time.Minute

	updateRateMax    = 20
	updateRateWindow = time.Minute

	// maxValueBytes bounds the serialized size of a single config value.
	maxValueBytes = 100_000

	// maxRequestBytes caps the update request body at read time; the slack
	// covers the JSON envelope around the value.
	maxRequestBytes = maxValueBytes + 4096
)

type Server struct {
	mux    *http.ServeMux
	routes []string

	config        config.Config
	store         configstore.Repo
	authLimiter   *ratelimit.Limiter
	updateLimiter *ratelimit.Limiter
	log           zerolog.Logger
	nowFunc       func() time.Time
}

type ServerOption func(*Server)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(cfg config.Config, store configstore.Repo, log zerolog.Logger, options ...ServerOption) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		store:   store,
		log:     log,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	s.authLimiter = ratelimit.New(loginRateMax, loginRateWindow, ratelimit.WithNowFunc(s.nowFunc))
	s.updateLimiter = ratelimit.New(updateRateMax, updateRateWindow, ratelimit.WithNowFunc(s.nowFunc))

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.registerRoute("POST /api/auth", s.AuthHandler())
	s.registerRoute("GET /api/bootstrap", s.BootstrapHandler())
	s.registerRoute("POST /api/update", s.UpdateHandler())
	s.registerRoute("GET /api/health", s.HealthHandler())
}

func (s *Server) registerRoute(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, s.logRequest(handler))
}

func (s *Server) logRoutes() {
	if s.config.GetEnv() != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		s.log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
	}
}

func (s *Server) logRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := s.nowFunc()
		next(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", clientIP(r)).
			Dur("elapsed", s.nowFunc().Sub(start)).
			Msg("request")
	}
}

// clientIP resolves the caller's identity for rate limiting. Proxy headers
// win over the socket address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = ip[:idx]
		}
		return strings.TrimSpace(ip)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if host == "" {
		return "unknown"
	}
	return host
}
