package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"facturas/internal/core"

	"github.com/shopspring/decimal"
)

// invoiceRequest is the CRUD request body. Decimal fields accept both JSON
// numbers and quoted strings; absent amounts decode as zero, which the
// validation layer treats as missing for billed_amount and as "unpaid" for
// paid_amount, matching the upstream behavior.
type invoiceRequest struct {
	ClientID      int64           `json:"id_client"`
	InvoiceNumber string          `json:"invoice_number"`
	BillingPeriod string          `json:"billing_period"`
	BilledAmount  decimal.Decimal `json:"billed_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

func (req invoiceRequest) toInvoice() core.Invoice {
	return core.Invoice{
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		BillingPeriod: req.BillingPeriod,
		BilledAmount:  req.BilledAmount,
		PaidAmount:    req.PaidAmount,
	}
}

// invoiceResponse mirrors the upstream row field names.
type invoiceResponse struct {
	IDInvoice     int64           `json:"id_invoice"`
	ClientID      int64           `json:"id_client"`
	InvoiceNumber string          `json:"invoice_number"`
	BillingPeriod string          `json:"billing_period"`
	BilledAmount  decimal.Decimal `json:"billed_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

func toInvoiceResponse(inv core.Invoice) invoiceResponse {
	return invoiceResponse{
		IDInvoice:     inv.ID,
		ClientID:      inv.ClientID,
		InvoiceNumber: inv.InvoiceNumber,
		BillingPeriod: inv.BillingPeriod,
		BilledAmount:  inv.BilledAmount,
		PaidAmount:    inv.PaidAmount,
	}
}

func decodeInvoiceRequest(r *http.Request) (invoiceRequest, error) {
	var req invoiceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return invoiceRequest{}, &core.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return req, nil
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	invoices, err := s.invoices.List(ctx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	out := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceResponse(inv)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toInvoiceResponse(inv))
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	req, err := decodeInvoiceRequest(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := s.invoices.Create(ctx, req.toInvoice())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toInvoiceResponse(created))
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	req, err := decodeInvoiceRequest(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := s.invoices.Update(ctx, id, req.toInvoice())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toInvoiceResponse(updated))
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	deleted, err := s.invoices.Delete(ctx, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, r, http.StatusNotFound, "invoice not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
