package http

import (
	"net/http"
	"strconv"

	"facturas/internal/core"
	"facturas/internal/reports"
)

func (s *Server) handleMonthlyIncome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.MonthlyIncome(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handlePaymentDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.PaymentDistribution(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handleTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit := reports.DefaultTopCustomers
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondDomainError(w, r, &core.ValidationError{Message: "invalid limit"})
			return
		}
		limit = n
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.TopCustomers(ctx, limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handleDelinquencyRate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	report, err := s.engine.DelinquencyRate(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

func (s *Server) handlePendingInvoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.PendingInvoices(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handleTransactionsByPlatform(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		respondDomainError(w, r, &core.ValidationError{Message: "platform query parameter is required"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.TransactionsByPlatform(ctx, platform)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handleTotalPaidByClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	rows, err := s.engine.TotalPaidByClient(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, emptyAsList(rows))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	dash, err := s.engine.Dashboard(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, dash)
}

// emptyAsList keeps empty reports serializing as [] instead of null.
func emptyAsList[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
