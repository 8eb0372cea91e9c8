// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"financas/internal/auth"
	authmw "financas/internal/middleware/auth"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

type Server struct {
	http.Server
	users  *services.UserService
	ledger *services.LedgerService
	tokens *auth.JWTManager

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. A nil token manager leaves the API open; when one is
// configured, the entry and balance routes require a Bearer token.
func NewServer(addr string, users *services.UserService, ledger *services.LedgerService, tokens *auth.JWTManager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		users:       users,
		ledger:      ledger,
		tokens:      tokens,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /ready", handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/usuarios", s.handleRegister)
	mux.HandleFunc("POST /api/usuarios/autenticar", s.handleAuthenticate)

	guard := authmw.Require(tokens)
	mux.Handle("GET /api/usuarios/{id}/saldo", guard(http.HandlerFunc(s.handleBalance)))
	mux.Handle("POST /api/lancamentos", guard(http.HandlerFunc(s.handleCreateEntry)))
	mux.Handle("GET /api/lancamentos", guard(http.HandlerFunc(s.handleFindEntries)))
	mux.Handle("GET /api/lancamentos/{id}", guard(http.HandlerFunc(s.handleGetEntry)))
	mux.Handle("PUT /api/lancamentos/{id}", guard(http.HandlerFunc(s.handleUpdateEntry)))
	mux.Handle("PUT /api/lancamentos/{id}/atualiza-status", guard(http.HandlerFunc(s.handleUpdateStatus)))
	mux.Handle("DELETE /api/lancamentos/{id}", guard(http.HandlerFunc(s.handleDeleteEntry)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           trace.Middleware(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// withSecurity adds security headers and rate-limits mutating requests.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeText(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
