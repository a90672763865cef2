// Package seed loads the ledger from the CSV exports. Files load in
// dependency order (clients, platforms, invoices, transactions); invoice and
// transaction rows resolve their foreign keys through the snapshot indexes,
// and rows that cannot be mapped are logged and skipped without failing the
// batch.
package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"facturas/internal/core"
)

// Store is the mutation surface the seeder needs from the ledger store.
type Store interface {
	Snapshot(ctx context.Context) (*core.Snapshot, error)
	InsertClients(ctx context.Context, clients []core.Client) error
	InsertPlatforms(ctx context.Context, platforms []core.Platform) error
	InsertInvoices(ctx context.Context, invoices []core.Invoice) error
	InsertTransactions(ctx context.Context, transactions []core.Transaction) error
}

// Seeder loads CSV exports from a data directory into the store.
type Seeder struct {
	store   Store
	dataDir string
}

func New(store Store, dataDir string) *Seeder {
	return &Seeder{store: store, dataDir: dataDir}
}

// Run executes all four loaders in dependency order. Unmappable rows are
// warnings; a missing or unreadable file fails the run.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.LoadClients(ctx); err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	if err := s.LoadPlatforms(ctx); err != nil {
		return fmt.Errorf("load platforms: %w", err)
	}
	if err := s.LoadInvoices(ctx); err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}
	if err := s.LoadTransactions(ctx); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	return nil
}

// record is one CSV row with header-based field access.
type record map[string]string

func (s *Seeder) readCSV(name string) ([]record, error) {
	f, err := os.Open(filepath.Join(s.dataDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make(record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadClients seeds the clients table from clients.csv.
func (s *Seeder) LoadClients(ctx context.Context) error {
	rows, err := s.readCSV("clients.csv")
	if err != nil {
		return err
	}

	clients := make([]core.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, core.Client{
			Name:           row["name"],
			Identification: row["identification"],
			Address:        row["address"],
			Phone:          row["phone"],
			Email:          row["email"],
		})
	}
	if err := s.store.InsertClients(ctx, clients); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Clients seeded", "count", len(clients))
	return nil
}

// LoadPlatforms seeds the platforms table from platforms.csv.
func (s *Seeder) LoadPlatforms(ctx context.Context) error {
	rows, err := s.readCSV("platforms.csv")
	if err != nil {
		return err
	}

	platforms := make([]core.Platform, 0, len(rows))
	for _, row := range rows {
		platforms = append(platforms, core.Platform{Name: row["name"]})
	}
	if err := s.store.InsertPlatforms(ctx, platforms); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Platforms seeded", "count", len(platforms))
	return nil
}

// LoadInvoices seeds the invoices table from invoices.csv, resolving
// client_identification through the snapshot index. Rows referencing unknown
// clients are skipped with a warning.
func (s *Seeder) LoadInvoices(ctx context.Context) error {
	rows, err := s.readCSV("invoices.csv")
	if err != nil {
		return err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	var invoices []core.Invoice
	skipped := 0
	for _, row := range rows {
		client, ok := snap.ClientByIdentification(row["client_identification"])
		if !ok {
			slog.WarnContext(ctx, "Skipping invoice: client not found",
				"client_identification", row["client_identification"],
				"invoice_number", row["invoice_number"])
			skipped++
			continue
		}
		billed, err := core.ParseAmount(row["billed_amount"])
		if err != nil {
			slog.WarnContext(ctx, "Skipping invoice: bad billed_amount",
				"invoice_number", row["invoice_number"], "error", err)
			skipped++
			continue
		}
		paid, err := core.ParseAmount(row["paid_amount"])
		if err != nil {
			slog.WarnContext(ctx, "Skipping invoice: bad paid_amount",
				"invoice_number", row["invoice_number"], "error", err)
			skipped++
			continue
		}
		invoices = append(invoices, core.Invoice{
			ClientID:      client.ID,
			InvoiceNumber: row["invoice_number"],
			BillingPeriod: row["billing_period"],
			BilledAmount:  billed,
			PaidAmount:    paid,
		})
	}
	if err := s.store.InsertInvoices(ctx, invoices); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Invoices seeded", "count", len(invoices), "skipped", skipped)
	return nil
}

// LoadTransactions seeds the transactions table from transactions.csv,
// resolving invoice_number and platform_name (case-insensitively) through
// the snapshot indexes. Unmappable rows are skipped with a warning.
func (s *Seeder) LoadTransactions(ctx context.Context) error {
	rows, err := s.readCSV("transactions.csv")
	if err != nil {
		return err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	var transactions []core.Transaction
	skipped := 0
	for _, row := range rows {
		invoice, invOK := snap.InvoiceByNumber(row["invoice_number"])
		platform, platOK := snap.PlatformByName(row["platform_name"])
		if !invOK || !platOK {
			slog.WarnContext(ctx, "Skipping transaction: invoice or platform not found",
				"transaction_code", row["transaction_code"],
				"invoice_number", row["invoice_number"],
				"platform_name", row["platform_name"])
			skipped++
			continue
		}
		amount, err := core.ParseAmount(row["amount"])
		if err != nil {
			slog.WarnContext(ctx, "Skipping transaction: bad amount",
				"transaction_code", row["transaction_code"], "error", err)
			skipped++
			continue
		}
		txDate, err := parseDate(row["transaction_date"])
		if err != nil {
			slog.WarnContext(ctx, "Skipping transaction: bad date",
				"transaction_code", row["transaction_code"], "error", err)
			skipped++
			continue
		}
		transactions = append(transactions, core.Transaction{
			InvoiceID:  invoice.ID,
			PlatformID: platform.ID,
			Code:       row["transaction_code"],
			Date:       txDate,
			Amount:     amount,
			Status:     row["status"],
			Type:       row["type"],
		})
	}
	if err := s.store.InsertTransactions(ctx, transactions); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transactions seeded", "count", len(transactions), "skipped", skipped)
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
