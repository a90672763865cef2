package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInvoiceValidate(t *testing.T) {
	good := Invoice{
		ClientID:      1,
		InvoiceNumber: "FAC-001",
		BillingPeriod: "2024-06",
		BilledAmount:  decimal.NewFromInt(1000),
		PaidAmount:    decimal.NewFromInt(400),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Invoice{
		{InvoiceNumber: "FAC-001", BillingPeriod: "2024-06", BilledAmount: decimal.NewFromInt(1)}, // no client
		{ClientID: 1, BillingPeriod: "2024-06", BilledAmount: decimal.NewFromInt(1)},              // no number
		{ClientID: 1, InvoiceNumber: "FAC-001", BilledAmount: decimal.NewFromInt(1)},              // no period
		{ClientID: 1, InvoiceNumber: "FAC-001", BillingPeriod: "2024-06"},                         // zero billed
	}
	for i, inv := range bads {
		err := inv.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestInvoiceValidateCollectsAllMissingFields(t *testing.T) {
	err := Invoice{}.Validate()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Fields) != 4 {
		t.Fatalf("expected 4 missing fields, got %v", ve.Fields)
	}
}

func TestInvoicePending(t *testing.T) {
	cases := []struct {
		billed, paid string
		pending      string
		isPending    bool
	}{
		{"1000", "400", "600", true},
		{"500", "500", "0", false},
		{"100", "150", "-50", false}, // overpayment is allowed, not clamped
	}
	for _, tc := range cases {
		inv := Invoice{
			BilledAmount: decimal.RequireFromString(tc.billed),
			PaidAmount:   decimal.RequireFromString(tc.paid),
		}
		if got := inv.Pending(); !got.Equal(decimal.RequireFromString(tc.pending)) {
			t.Fatalf("billed=%s paid=%s: pending=%s, want %s", tc.billed, tc.paid, got, tc.pending)
		}
		if got := inv.IsPending(); got != tc.isPending {
			t.Fatalf("billed=%s paid=%s: isPending=%v, want %v", tc.billed, tc.paid, got, tc.isPending)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234.50", "1234.5", true},
		{"1234,50", "1234.5", true},
		{"0", "0", true},
		{"", "0", true}, // exports leave unpaid amounts empty
		{"  250 ", "250", true},
		{"-10", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q): unexpected error %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseAmount(%q): expected error", tc.in)
		}
		if !IsValidation(err) {
			t.Fatalf("ParseAmount(%q): expected ValidationError, got %T", tc.in, err)
		}
	}
}

func TestPercentageZeroTotal(t *testing.T) {
	got := Percentage(decimal.NewFromInt(100), decimal.Zero)
	if !got.IsZero() {
		t.Fatalf("expected 0 for zero total, got %s", got)
	}
}

func TestPercentage(t *testing.T) {
	got := Percentage(decimal.NewFromInt(1500), decimal.NewFromInt(4500))
	want := decimal.RequireFromString("33.33")
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestYearMonth(t *testing.T) {
	d := time.Date(2024, time.June, 3, 15, 4, 5, 0, time.UTC)
	if got := YearMonth(d); got != "2024-06" {
		t.Fatalf("got %q, want 2024-06", got)
	}
}

func TestFoldName(t *testing.T) {
	if FoldName(" NEQUI ") != "nequi" {
		t.Fatalf("fold failed")
	}
}
