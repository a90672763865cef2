package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"facturas/internal/core"
	"facturas/internal/reports"
	"facturas/internal/services"

	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	invoices map[int64]core.Invoice
	nextID   int64
	failWith error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{invoices: map[int64]core.Invoice{}, nextID: 1}
}

func (f *fakeLedger) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	if f.failWith != nil {
		return core.Invoice{}, f.failWith
	}
	inv.ID = f.nextID
	f.nextID++
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeLedger) UpdateInvoice(_ context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	if f.failWith != nil {
		return core.Invoice{}, f.failWith
	}
	if _, ok := f.invoices[id]; !ok {
		return core.Invoice{}, &core.NotFoundError{Entity: "invoice", Key: "?"}
	}
	inv.ID = id
	f.invoices[id] = inv
	return inv, nil
}

func (f *fakeLedger) DeleteInvoice(_ context.Context, id int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if _, ok := f.invoices[id]; !ok {
		return false, nil
	}
	delete(f.invoices, id)
	return true, nil
}

func (f *fakeLedger) GetInvoice(_ context.Context, id int64) (core.Invoice, error) {
	if f.failWith != nil {
		return core.Invoice{}, f.failWith
	}
	inv, ok := f.invoices[id]
	if !ok {
		return core.Invoice{}, &core.NotFoundError{Entity: "invoice", Key: "?"}
	}
	return inv, nil
}

func (f *fakeLedger) ListInvoices(_ context.Context) ([]core.Invoice, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]core.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, nil
}

type fakeSource struct {
	snap *core.Snapshot
	err  error
}

func (f fakeSource) Snapshot(context.Context) (*core.Snapshot, error) {
	return f.snap, f.err
}

func testServer(ledger *fakeLedger, source fakeSource) *Server {
	return NewServer(":0",
		services.NewInvoiceService(ledger, nil),
		reports.NewEngine(source))
}

func emptySource() fakeSource {
	return fakeSource{snap: core.NewSnapshot(nil, nil, nil, nil)}
}

func doRequest(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	srv := testServer(newFakeLedger(), fakeSource{err: core.ErrStoreUnavailable})

	rr := doRequest(srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status = %d, want 503", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/healthz", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestCreateInvoice(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	body := `{"id_client":1,"invoice_number":"FAC-1001","billing_period":"2024-07","billed_amount":1500.50,"paid_amount":500}`
	rr := doRequest(srv, http.MethodPost, "/api/v1/invoices", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id_invoice"] == nil || resp["invoice_number"] != "FAC-1001" {
		t.Errorf("response = %v, want assigned id and echoed invoice_number", resp)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodPost, "/api/v1/invoices", `{"invoice_number":"FAC-1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id_client") {
		t.Errorf("body = %s, want missing id_client reported", rr.Body.String())
	}
}

func TestCreateInvoiceRejectsUnknownFields(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodPost, "/api/v1/invoices", `{"id_client":1,"surprise":true}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/api/v1/invoices/99", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGetInvoiceBadID(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/api/v1/invoices/abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateAndDeleteInvoice(t *testing.T) {
	ledger := newFakeLedger()
	ledger.invoices[1] = core.Invoice{
		ID:            1,
		ClientID:      1,
		InvoiceNumber: "FAC-1001",
		BillingPeriod: "2024-07",
		BilledAmount:  decimal.RequireFromString("100"),
	}
	ledger.nextID = 2
	srv := testServer(ledger, emptySource())

	body := `{"id_client":1,"invoice_number":"FAC-1001","billing_period":"2024-07","billed_amount":100,"paid_amount":100}`
	rr := doRequest(srv, http.MethodPut, "/api/v1/invoices/1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(srv, http.MethodDelete, "/api/v1/invoices/1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rr.Code)
	}

	rr = doRequest(srv, http.MethodDelete, "/api/v1/invoices/1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestPendingRouteIsNotAnID(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/api/v1/invoices/pending", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestReportsSerializeEmptyAsList(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	for _, path := range []string{
		"/api/v1/kpi/monthly-income",
		"/api/v1/kpi/payment-distribution",
		"/api/v1/kpi/top-customers",
		"/api/v1/clients/total-paid",
	} {
		rr := doRequest(srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rr.Code)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("%s body = %s, want []", path, body)
		}
	}
}

func TestTransactionsRequiresPlatform(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/api/v1/transactions", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestTransactionsUnknownPlatform(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	rr := doRequest(srv, http.MethodGet, "/api/v1/transactions?platform=Nequi", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestTopCustomersRejectsBadLimit(t *testing.T) {
	srv := testServer(newFakeLedger(), emptySource())

	for _, limit := range []string{"0", "-3", "many"} {
		rr := doRequest(srv, http.MethodGet, "/api/v1/kpi/top-customers?limit="+limit, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s status = %d, want 400", limit, rr.Code)
		}
	}
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failWith = core.ErrStoreUnavailable
	srv := testServer(ledger, fakeSource{err: core.ErrStoreUnavailable})

	rr := doRequest(srv, http.MethodGet, "/api/v1/invoices", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("list status = %d, want 503", rr.Code)
	}

	rr = doRequest(srv, http.MethodGet, "/api/v1/kpi/delinquency-rate", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("report status = %d, want 503", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	clients := []core.Client{{ID: 1, Name: "Acme"}}
	invoices := []core.Invoice{{
		ID:            1,
		ClientID:      1,
		InvoiceNumber: "FAC-1001",
		BillingPeriod: "2024-07",
		BilledAmount:  decimal.RequireFromString("1000"),
		PaidAmount:    decimal.RequireFromString("250"),
	}}
	snap := core.NewSnapshot(clients, nil, invoices, nil)
	srv := testServer(newFakeLedger(), fakeSource{snap: snap})

	rr := doRequest(srv, http.MethodGet, "/api/v1/kpi/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	var dash map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	for _, key := range []string{"monthly_income", "payment_distribution", "top_customers", "delinquency"} {
		if _, ok := dash[key]; !ok {
			t.Errorf("dashboard missing %q section", key)
		}
	}
}
