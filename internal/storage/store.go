// Package storage implements the SQLite-backed ledger store. It owns no
// reporting logic: reads hand out consistent snapshots, writes are single
// atomic statements, and uniqueness (invoice numbers, client identifications,
// platform names) is enforced by the schema rather than by callers.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"facturas/internal/core"

	_ "modernc.org/sqlite"
)

// Store is the ledger store handle. It is safe for concurrent use; SQLite
// serializes writers and every snapshot runs in its own read transaction.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at dbPath and runs
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %v: %w", err, core.ErrStoreUnavailable)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// wrapErr translates driver errors into the domain error taxonomy: unique
// constraint violations become ValidationErrors (the schema is the source of
// truth for uniqueness), everything else marks the store as unavailable.
func wrapErr(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, &core.ValidationError{Message: "duplicate key: " + err.Error()})
	}
	return fmt.Errorf("%s: %v: %w", op, err, core.ErrStoreUnavailable)
}

// Snapshot reads all four entity collections inside one read transaction and
// returns them with lookup indexes built. This is the consistency boundary
// for reports: a concurrent invoice mutation is either fully visible in the
// snapshot or not at all.
func (s *Store) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, wrapErr("begin snapshot", err)
	}
	defer tx.Rollback()

	clients, err := scanClients(ctx, tx)
	if err != nil {
		return nil, err
	}
	platforms, err := scanPlatforms(ctx, tx)
	if err != nil {
		return nil, err
	}
	invoices, err := scanInvoices(ctx, tx, "SELECT id_invoice, id_client, invoice_number, billing_period, billed_amount, paid_amount FROM invoices ORDER BY id_invoice")
	if err != nil {
		return nil, err
	}
	transactions, err := scanTransactions(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit snapshot", err)
	}

	return core.NewSnapshot(clients, platforms, invoices, transactions), nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanClients(ctx context.Context, q querier) ([]core.Client, error) {
	rows, err := q.QueryContext(ctx, "SELECT id_client, name, identification, address, phone, email FROM clients ORDER BY id_client")
	if err != nil {
		return nil, wrapErr("query clients", err)
	}
	defer rows.Close()

	var clients []core.Client
	for rows.Next() {
		var c core.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Identification, &c.Address, &c.Phone, &c.Email); err != nil {
			return nil, wrapErr("scan client", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate clients", err)
	}
	return clients, nil
}

func scanPlatforms(ctx context.Context, q querier) ([]core.Platform, error) {
	rows, err := q.QueryContext(ctx, "SELECT id_platform, name FROM platforms ORDER BY id_platform")
	if err != nil {
		return nil, wrapErr("query platforms", err)
	}
	defer rows.Close()

	var platforms []core.Platform
	for rows.Next() {
		var p core.Platform
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, wrapErr("scan platform", err)
		}
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate platforms", err)
	}
	return platforms, nil
}

func scanInvoices(ctx context.Context, q querier, query string, args ...any) ([]core.Invoice, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("query invoices", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.InvoiceNumber, &inv.BillingPeriod, &inv.BilledAmount, &inv.PaidAmount); err != nil {
			return nil, wrapErr("scan invoice", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate invoices", err)
	}
	return invoices, nil
}

func scanTransactions(ctx context.Context, q querier) ([]core.Transaction, error) {
	rows, err := q.QueryContext(ctx, "SELECT id_transaction, id_invoice, id_platform, transaction_code, transaction_date, amount, status, type FROM transactions ORDER BY id_transaction")
	if err != nil {
		return nil, wrapErr("query transactions", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var (
			t          core.Transaction
			invoiceID  sql.NullInt64
			platformID sql.NullInt64
			date       string
		)
		if err := rows.Scan(&t.ID, &invoiceID, &platformID, &t.Code, &date, &t.Amount, &t.Status, &t.Type); err != nil {
			return nil, wrapErr("scan transaction", err)
		}
		t.InvoiceID = invoiceID.Int64
		t.PlatformID = platformID.Int64
		t.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.Code, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate transactions", err)
	}
	return transactions, nil
}

// parseDate accepts both full timestamps and the date-only form used by the
// CSV exports.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse transaction date %q: %w", s, err)
	}
	return t, nil
}

// CreateInvoice inserts a validated invoice and returns it with its assigned
// ID. Duplicate invoice numbers surface as ValidationErrors.
func (s *Store) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO invoices (id_client, invoice_number, billing_period, billed_amount, paid_amount) VALUES (?, ?, ?, ?, ?)",
		inv.ClientID, inv.InvoiceNumber, inv.BillingPeriod, inv.BilledAmount, inv.PaidAmount)
	if err != nil {
		return core.Invoice{}, wrapErr("create invoice", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Invoice{}, wrapErr("create invoice id", err)
	}
	inv.ID = id

	slog.InfoContext(ctx, "Invoice created",
		"id_invoice", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"id_client", inv.ClientID)
	return inv, nil
}

// UpdateInvoice replaces all mutable fields of the invoice with the given ID.
// The write is a single statement; there is no partial update.
func (s *Store) UpdateInvoice(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invoices SET id_client = ?, invoice_number = ?, billing_period = ?, billed_amount = ?, paid_amount = ? WHERE id_invoice = ?",
		inv.ClientID, inv.InvoiceNumber, inv.BillingPeriod, inv.BilledAmount, inv.PaidAmount, id)
	if err != nil {
		return core.Invoice{}, wrapErr("update invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Invoice{}, wrapErr("update invoice rows", err)
	}
	if n == 0 {
		return core.Invoice{}, &core.NotFoundError{Entity: "invoice", Key: fmt.Sprint(id)}
	}
	inv.ID = id

	slog.InfoContext(ctx, "Invoice updated", "id_invoice", id, "invoice_number", inv.InvoiceNumber)
	return inv, nil
}

// DeleteInvoice removes the invoice with the given ID and reports whether a
// row was actually deleted. Unknown IDs are not an error.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id_invoice = ?", id)
	if err != nil {
		return false, wrapErr("delete invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("delete invoice rows", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Invoice deleted", "id_invoice", id)
	}
	return n > 0, nil
}

// GetInvoice fetches a single invoice by ID.
func (s *Store) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id_invoice, id_client, invoice_number, billing_period, billed_amount, paid_amount FROM invoices WHERE id_invoice = ?", id)
	var inv core.Invoice
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.InvoiceNumber, &inv.BillingPeriod, &inv.BilledAmount, &inv.PaidAmount)
	if err == sql.ErrNoRows {
		return core.Invoice{}, &core.NotFoundError{Entity: "invoice", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return core.Invoice{}, wrapErr("get invoice", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices ordered by ID.
func (s *Store) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return scanInvoices(ctx, s.db, "SELECT id_invoice, id_client, invoice_number, billing_period, billed_amount, paid_amount FROM invoices ORDER BY id_invoice")
}

// nullID maps the 0 "unmapped" sentinel to a SQL NULL.
func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// InsertClients bulk-inserts seed clients in one transaction.
func (s *Store) InsertClients(ctx context.Context, clients []core.Client) error {
	return s.bulk(ctx, "insert clients",
		"INSERT INTO clients (name, identification, address, phone, email) VALUES (?, ?, ?, ?, ?)",
		len(clients), func(i int) []any {
			c := clients[i]
			return []any{c.Name, c.Identification, c.Address, c.Phone, c.Email}
		})
}

// InsertPlatforms bulk-inserts seed platforms in one transaction.
func (s *Store) InsertPlatforms(ctx context.Context, platforms []core.Platform) error {
	return s.bulk(ctx, "insert platforms",
		"INSERT INTO platforms (name) VALUES (?)",
		len(platforms), func(i int) []any {
			return []any{platforms[i].Name}
		})
}

// InsertInvoices bulk-inserts seed invoices in one transaction.
func (s *Store) InsertInvoices(ctx context.Context, invoices []core.Invoice) error {
	return s.bulk(ctx, "insert invoices",
		"INSERT INTO invoices (id_client, invoice_number, billing_period, billed_amount, paid_amount) VALUES (?, ?, ?, ?, ?)",
		len(invoices), func(i int) []any {
			inv := invoices[i]
			return []any{inv.ClientID, inv.InvoiceNumber, inv.BillingPeriod, inv.BilledAmount, inv.PaidAmount}
		})
}

// InsertTransactions bulk-inserts seed transactions in one transaction.
func (s *Store) InsertTransactions(ctx context.Context, transactions []core.Transaction) error {
	return s.bulk(ctx, "insert transactions",
		"INSERT INTO transactions (id_invoice, id_platform, transaction_code, transaction_date, amount, status, type) VALUES (?, ?, ?, ?, ?, ?, ?)",
		len(transactions), func(i int) []any {
			t := transactions[i]
			return []any{nullID(t.InvoiceID), nullID(t.PlatformID), t.Code, t.Date.Format(time.RFC3339), t.Amount, t.Status, t.Type}
		})
}

// bulk runs the given statement once per row inside a single transaction, so
// a failed batch leaves nothing behind.
func (s *Store) bulk(ctx context.Context, op, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return wrapErr(op, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return wrapErr(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapErr(op, err)
	}
	return nil
}
