// Package http serves the invoicing API: invoice CRUD plus the aggregate
// report endpoints. Handlers stay thin; domain errors are translated to
// status codes in one place and everything else lives in the services and
// reports packages.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"facturas/internal/middleware/ratelimit"
	"facturas/internal/middleware/security"
	"facturas/internal/middleware/trace"
	"facturas/internal/reports"
	"facturas/internal/services"
)

type Server struct {
	http.Server

	invoices *services.InvoiceService
	engine   *reports.Engine

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, invoices *services.InvoiceService, engine *reports.Engine) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		invoices: invoices,
		engine:   engine,
		limiter:  ratelimit.New(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/v1/invoices", s.handleListInvoices)
	mux.HandleFunc("POST /api/v1/invoices", s.handleCreateInvoice)
	mux.HandleFunc("GET /api/v1/invoices/pending", s.handlePendingInvoices)
	mux.HandleFunc("GET /api/v1/invoices/{id}", s.handleGetInvoice)
	mux.HandleFunc("PUT /api/v1/invoices/{id}", s.handleUpdateInvoice)
	mux.HandleFunc("DELETE /api/v1/invoices/{id}", s.handleDeleteInvoice)

	mux.HandleFunc("GET /api/v1/clients/total-paid", s.handleTotalPaidByClient)
	mux.HandleFunc("GET /api/v1/transactions", s.handleTransactionsByPlatform)

	mux.HandleFunc("GET /api/v1/kpi/monthly-income", s.handleMonthlyIncome)
	mux.HandleFunc("GET /api/v1/kpi/payment-distribution", s.handlePaymentDistribution)
	mux.HandleFunc("GET /api/v1/kpi/top-customers", s.handleTopCustomers)
	mux.HandleFunc("GET /api/v1/kpi/delinquency-rate", s.handleDelinquencyRate)
	mux.HandleFunc("GET /api/v1/kpi/dashboard", s.handleDashboard)

	// Middleware chain, outermost first: tracing, security headers, rate
	// limiting.
	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = security.Headers(handler)
	handler = trace.Middleware(clientIP)(handler)
	s.Handler = handler

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine and then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP(r), "path", r.URL.Path)
			respondError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the usual proxy headers, falling back to the socket peer.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady verifies the store answers a snapshot read before reporting
// ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.engine.DelinquencyRate(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
