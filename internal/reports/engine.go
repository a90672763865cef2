// Package reports computes the ledger's aggregate reports. Every report is a
// pure function of a single snapshot: the engine takes a fresh snapshot per
// call (freshness over staleness, no result caching), never mutates state and
// fails only when the snapshot read itself fails. Empty ledgers produce empty
// sequences or zero-guarded scalars, never errors.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"facturas/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultTopCustomers is the customer count returned when the caller does
// not ask for a specific limit.
const DefaultTopCustomers = 5

// Source hands out consistent ledger snapshots. *storage.Store satisfies it.
type Source interface {
	Snapshot(ctx context.Context) (*core.Snapshot, error)
}

// Engine computes reports against a Source. It holds no state of its own and
// is safe for concurrent use.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

type (
	// MonthlyIncomeRow is one calendar month of completed-transaction income.
	MonthlyIncomeRow struct {
		Month       string          `json:"month"`
		TotalIncome decimal.Decimal `json:"total_income"`
	}

	// PaymentDistributionRow is the completed-transaction total for one platform.
	PaymentDistributionRow struct {
		PlatformName string          `json:"platform_name"`
		TotalAmount  decimal.Decimal `json:"total_amount"`
	}

	// TopCustomerRow is one customer ranked by total paid across all invoices.
	TopCustomerRow struct {
		CustomerName string          `json:"customer_name"`
		TotalPaid    decimal.Decimal `json:"total_paid"`
	}

	// DelinquencyReport carries the delinquency percentage and its inputs.
	DelinquencyReport struct {
		DelinquencyRate    decimal.Decimal `json:"delinquency_rate"`
		TotalPendingBilled decimal.Decimal `json:"total_pending_billed"`
		TotalBilled        decimal.Decimal `json:"total_billed"`
	}

	// PendingInvoiceRow is an invoice with an outstanding balance, joined to
	// its client's contact details.
	PendingInvoiceRow struct {
		IDInvoice     int64           `json:"id_invoice"`
		InvoiceNumber string          `json:"invoice_number"`
		BilledAmount  decimal.Decimal `json:"billed_amount"`
		PaidAmount    decimal.Decimal `json:"paid_amount"`
		PendingAmount decimal.Decimal `json:"pending_amount"`
		ClientName    string          `json:"client_name"`
		ClientEmail   string          `json:"client_email"`
		ClientPhone   string          `json:"client_phone"`
	}

	// PlatformTransactionRow is one transaction on a platform, left-joined to
	// invoice and client. Join fields stay empty when the references are
	// unmapped; rows are never dropped.
	PlatformTransactionRow struct {
		TransactionCode string          `json:"transaction_code"`
		Amount          decimal.Decimal `json:"amount"`
		Status          string          `json:"status"`
		TransactionDate time.Time       `json:"transaction_date"`
		PlatformName    string          `json:"platform_name"`
		InvoiceNumber   string          `json:"invoice_number"`
		ClientName      string          `json:"client_name"`
		ClientEmail     string          `json:"client_email"`
	}

	// ClientTotalRow is one client's paid total across all invoices.
	ClientTotalRow struct {
		IDClient  int64           `json:"id_client"`
		Name      string          `json:"name"`
		Email     string          `json:"email"`
		TotalPaid decimal.Decimal `json:"total_paid"`
	}

	// Dashboard bundles the KPI reports a dashboard load needs.
	Dashboard struct {
		MonthlyIncome       []MonthlyIncomeRow       `json:"monthly_income"`
		PaymentDistribution []PaymentDistributionRow `json:"payment_distribution"`
		TopCustomers        []TopCustomerRow         `json:"top_customers"`
		Delinquency         DelinquencyReport        `json:"delinquency"`
	}
)

// MonthlyIncome sums completed transactions by calendar month (YYYY-MM),
// ascending by month. Months without completed transactions are omitted
// rather than zero-filled, matching the upstream exports.
func (e *Engine) MonthlyIncome(ctx context.Context) ([]MonthlyIncomeRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	return monthlyIncome(snap), nil
}

func monthlyIncome(snap *core.Snapshot) []MonthlyIncomeRow {
	totals := make(map[string]decimal.Decimal)
	for _, t := range snap.Transactions {
		if !t.IsCompleted() {
			continue
		}
		month := core.YearMonth(t.Date)
		totals[month] = totals[month].Add(t.Amount)
	}

	rows := make([]MonthlyIncomeRow, 0, len(totals))
	for month, total := range totals {
		rows = append(rows, MonthlyIncomeRow{Month: month, TotalIncome: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// PaymentDistribution sums completed transactions by platform name. Platforms
// with no completed transactions are omitted, and completed transactions with
// an unmapped platform have no name to group under and are skipped. Rows are
// ordered by platform name for deterministic output.
func (e *Engine) PaymentDistribution(ctx context.Context) ([]PaymentDistributionRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("payment distribution: %w", err)
	}
	return paymentDistribution(snap), nil
}

func paymentDistribution(snap *core.Snapshot) []PaymentDistributionRow {
	totals := make(map[string]decimal.Decimal)
	for _, t := range snap.Transactions {
		if !t.IsCompleted() {
			continue
		}
		platform, ok := snap.PlatformByID(t.PlatformID)
		if !ok {
			continue
		}
		totals[platform.Name] = totals[platform.Name].Add(t.Amount)
	}

	rows := make([]PaymentDistributionRow, 0, len(totals))
	for name, total := range totals {
		rows = append(rows, PaymentDistributionRow{PlatformName: name, TotalAmount: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PlatformName < rows[j].PlatformName })
	return rows
}

// TopCustomers ranks clients by paid total across all their invoices,
// regardless of transaction status, descending. Ties break by client ID
// ascending so the ranking is deterministic. A limit <= 0 falls back to
// DefaultTopCustomers.
func (e *Engine) TopCustomers(ctx context.Context, limit int) ([]TopCustomerRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	return topCustomers(snap, limit), nil
}

func topCustomers(snap *core.Snapshot, limit int) []TopCustomerRow {
	if limit <= 0 {
		limit = DefaultTopCustomers
	}

	type clientTotal struct {
		clientID int64
		total    decimal.Decimal
	}
	totals := make(map[int64]decimal.Decimal)
	for _, inv := range snap.Invoices {
		totals[inv.ClientID] = totals[inv.ClientID].Add(inv.PaidAmount)
	}

	ranked := make([]clientTotal, 0, len(totals))
	for id, total := range totals {
		if _, ok := snap.ClientByID(id); !ok {
			continue
		}
		ranked = append(ranked, clientTotal{clientID: id, total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].total.Equal(ranked[j].total) {
			return ranked[i].total.GreaterThan(ranked[j].total)
		}
		return ranked[i].clientID < ranked[j].clientID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	rows := make([]TopCustomerRow, len(ranked))
	for i, ct := range ranked {
		client, _ := snap.ClientByID(ct.clientID)
		rows[i] = TopCustomerRow{CustomerName: client.Name, TotalPaid: ct.total}
	}
	return rows
}

// DelinquencyRate is the billed total of underpaid invoices over the billed
// total of all invoices, as a percentage. An empty ledger yields exactly 0;
// the zero-division guard is a designed default, not an error path.
func (e *Engine) DelinquencyRate(ctx context.Context) (DelinquencyReport, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return DelinquencyReport{}, fmt.Errorf("delinquency rate: %w", err)
	}
	return delinquencyRate(snap), nil
}

func delinquencyRate(snap *core.Snapshot) DelinquencyReport {
	var pendingBilled, totalBilled decimal.Decimal
	for _, inv := range snap.Invoices {
		totalBilled = totalBilled.Add(inv.BilledAmount)
		if inv.IsPending() {
			pendingBilled = pendingBilled.Add(inv.BilledAmount)
		}
	}
	return DelinquencyReport{
		DelinquencyRate:    core.Percentage(pendingBilled, totalBilled),
		TotalPendingBilled: pendingBilled,
		TotalBilled:        totalBilled,
	}
}

// PendingInvoices lists invoices with billed > paid, joined to the client's
// contact details, descending by pending amount. Invoices whose client is
// missing from the ledger keep empty contact fields.
func (e *Engine) PendingInvoices(ctx context.Context) ([]PendingInvoiceRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending invoices: %w", err)
	}
	return pendingInvoices(snap), nil
}

func pendingInvoices(snap *core.Snapshot) []PendingInvoiceRow {
	var rows []PendingInvoiceRow
	for _, inv := range snap.Invoices {
		if !inv.IsPending() {
			continue
		}
		row := PendingInvoiceRow{
			IDInvoice:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			BilledAmount:  inv.BilledAmount,
			PaidAmount:    inv.PaidAmount,
			PendingAmount: inv.Pending(),
		}
		if client, ok := snap.ClientByID(inv.ClientID); ok {
			row.ClientName = client.Name
			row.ClientEmail = client.Email
			row.ClientPhone = client.Phone
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PendingAmount.GreaterThan(rows[j].PendingAmount)
	})
	return rows
}

// TransactionsByPlatform lists all transactions on the named platform,
// matching the name case-insensitively, left-joined to invoice and client.
// Rows with unmapped references are preserved with empty join fields. An
// unknown platform name is a NotFoundError.
func (e *Engine) TransactionsByPlatform(ctx context.Context, name string) ([]PlatformTransactionRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("transactions by platform: %w", err)
	}
	platform, ok := snap.PlatformByName(name)
	if !ok {
		return nil, &core.NotFoundError{Entity: "platform", Key: name}
	}
	return platformTransactions(snap, platform), nil
}

func platformTransactions(snap *core.Snapshot, platform *core.Platform) []PlatformTransactionRow {
	var rows []PlatformTransactionRow
	for _, t := range snap.Transactions {
		if t.PlatformID != platform.ID {
			continue
		}
		row := PlatformTransactionRow{
			TransactionCode: t.Code,
			Amount:          t.Amount,
			Status:          t.Status,
			TransactionDate: t.Date,
			PlatformName:    platform.Name,
		}
		if inv, ok := snap.InvoiceByID(t.InvoiceID); ok {
			row.InvoiceNumber = inv.InvoiceNumber
			if client, ok := snap.ClientByID(inv.ClientID); ok {
				row.ClientName = client.Name
				row.ClientEmail = client.Email
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TotalPaidByClient sums paid amounts per client, descending by total. This
// is an inner join: clients without invoices do not appear. Ties break by
// client ID ascending.
func (e *Engine) TotalPaidByClient(ctx context.Context) ([]ClientTotalRow, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("total paid by client: %w", err)
	}
	return totalPaidByClient(snap), nil
}

func totalPaidByClient(snap *core.Snapshot) []ClientTotalRow {
	totals := make(map[int64]decimal.Decimal)
	for _, inv := range snap.Invoices {
		totals[inv.ClientID] = totals[inv.ClientID].Add(inv.PaidAmount)
	}

	rows := make([]ClientTotalRow, 0, len(totals))
	for id, total := range totals {
		client, ok := snap.ClientByID(id)
		if !ok {
			continue
		}
		rows = append(rows, ClientTotalRow{
			IDClient:  client.ID,
			Name:      client.Name,
			Email:     client.Email,
			TotalPaid: total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].TotalPaid.Equal(rows[j].TotalPaid) {
			return rows[i].TotalPaid.GreaterThan(rows[j].TotalPaid)
		}
		return rows[i].IDClient < rows[j].IDClient
	})
	return rows
}

// Dashboard computes the four KPI reports concurrently. The reports are
// independent units of work, so each runs against its own snapshot; a single
// failed read fails the whole dashboard.
func (e *Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	var dash Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := e.MonthlyIncome(ctx)
		dash.MonthlyIncome = rows
		return err
	})
	g.Go(func() error {
		rows, err := e.PaymentDistribution(ctx)
		dash.PaymentDistribution = rows
		return err
	})
	g.Go(func() error {
		rows, err := e.TopCustomers(ctx, DefaultTopCustomers)
		dash.TopCustomers = rows
		return err
	})
	g.Go(func() error {
		report, err := e.DelinquencyRate(ctx)
		dash.Delinquency = report
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}
