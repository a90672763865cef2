package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses as they appear in the seed exports. Only completed
// transactions count as income; other values pass through untouched.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

type (
	// Client is a billed customer. Identification is the external ID the
	// CSV exports use to reference clients; it is unique across clients.
	Client struct {
		ID             int64
		Name           string
		Identification string
		Address        string
		Phone          string
		Email          string
	}

	// Platform is a payment platform (Nequi, Daviplata, ...). Names are
	// unique case-insensitively.
	Platform struct {
		ID   int64
		Name string
	}

	// Invoice is the only entity mutated after seeding. PaidAmount may
	// exceed BilledAmount (overpayment is allowed, never clamped), so the
	// pending amount can be negative.
	Invoice struct {
		ID            int64
		ClientID      int64
		InvoiceNumber string
		BillingPeriod string
		BilledAmount  decimal.Decimal
		PaidAmount    decimal.Decimal
	}

	// Transaction is a payment event against an invoice. An InvoiceID or
	// PlatformID of 0 means the reference could not be mapped; reports keep
	// such rows and leave the joined fields empty.
	//
	// Amount is independent of the invoice's PaidAmount; the two are never
	// reconciled automatically.
	Transaction struct {
		ID         int64
		InvoiceID  int64
		PlatformID int64
		Code       string
		Date       time.Time
		Amount     decimal.Decimal
		Status     string
		Type       string
	}
)

// Pending returns billed minus paid. Negative for overpaid invoices.
func (i Invoice) Pending() decimal.Decimal {
	return i.BilledAmount.Sub(i.PaidAmount)
}

// IsPending reports whether the invoice still has an outstanding balance.
func (i Invoice) IsPending() bool {
	return i.BilledAmount.GreaterThan(i.PaidAmount)
}

// Validate checks the fields required before an invoice may enter the store:
// client reference, invoice number, billing period and billed amount. Missing
// fields are collected so the caller sees the full list at once.
func (i Invoice) Validate() error {
	var missing []string
	if i.ClientID <= 0 {
		missing = append(missing, "id_client")
	}
	if strings.TrimSpace(i.InvoiceNumber) == "" {
		missing = append(missing, "invoice_number")
	}
	if strings.TrimSpace(i.BillingPeriod) == "" {
		missing = append(missing, "billing_period")
	}
	if i.BilledAmount.LessThanOrEqual(decimal.Zero) {
		missing = append(missing, "billed_amount")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if i.PaidAmount.IsNegative() {
		return &ValidationError{Message: "paid_amount must not be negative"}
	}
	return nil
}

// IsCompleted reports whether the transaction counts toward income.
func (t Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// FoldName normalizes a platform name for case-insensitive matching.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// YearMonth formats a transaction date at year-month granularity, the
// grouping key of the monthly income report.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}
