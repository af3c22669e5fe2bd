// Package http exposes the JSON API over the ledger, goals, reports,
// currency, and export services.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nestegg/internal/cache"
	"nestegg/internal/currency"
	"nestegg/internal/export"
	"nestegg/internal/goals"
	"nestegg/internal/ledger"
	"nestegg/internal/log"
	"nestegg/internal/reports"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// Config carries the server knobs taken from the application config.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
}

type Server struct {
	http.Server
	ledger   *ledger.Service
	goals    *goals.Service
	currency *currency.Service
	export   *export.Service
	logger   *log.Logger

	rateLimiter *rateLimiter

	// Memoized report aggregations, flushed wholesale on any ledger write.
	breakdownCache *cache.LRU[[]reports.CategoryShare]
	monthlyCache   *cache.LRU[[]reports.MonthTotal]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(cfg Config, led *ledger.Service, gls *goals.Service, cur *currency.Service, exp *export.Service, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:         led,
		goals:          gls,
		currency:       cur,
		export:         exp,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(cfg.RateLimitPerMinute),
		breakdownCache: cache.NewLRU[[]reports.CategoryShare](cfg.CacheSize, cfg.CacheTTL),
		monthlyCache:   cache.NewLRU[[]reports.MonthTotal](cfg.CacheSize, cfg.CacheTTL),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/balance", s.withMiddleware(s.handleBalance))
	mux.HandleFunc("GET /api/payees", s.withMiddleware(s.handlePayees))

	mux.HandleFunc("GET /api/goals", s.withMiddleware(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withMiddleware(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/{id}", s.withMiddleware(s.handleGetGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withMiddleware(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/fund", s.withMiddleware(s.handleFundGoal))
	mux.HandleFunc("PUT /api/goals/{id}/saved", s.withMiddleware(s.handleSetSaved))
	mux.HandleFunc("POST /api/goals/{id}/complete", s.withMiddleware(s.handleCompleteGoal))
	mux.HandleFunc("GET /api/goals/{id}/history", s.withMiddleware(s.handleGoalHistory))
	mux.HandleFunc("GET /api/goals/{id}/pacing", s.withMiddleware(s.handleGoalPacing))

	mux.HandleFunc("GET /api/reports/categories", s.withMiddleware(s.handleCategoryReport))
	mux.HandleFunc("GET /api/reports/monthly", s.withMiddleware(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/change", s.withMiddleware(s.handleChangeReport))

	mux.HandleFunc("GET /api/currencies", s.withMiddleware(s.handleListCurrencies))
	mux.HandleFunc("GET /api/currency", s.withMiddleware(s.handleGetCurrency))
	mux.HandleFunc("PUT /api/currency", s.withMiddleware(s.handleSelectCurrency))

	mux.HandleFunc("GET /export", s.withMiddleware(s.handleExport))

	return s
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateReports flushes memoized aggregations after a ledger write.
func (s *Server) invalidateReports() {
	s.breakdownCache.Clear()
	s.monthlyCache.Clear()
}

// withMiddleware adds security headers, request IDs, rate limiting on
// mutating methods, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
