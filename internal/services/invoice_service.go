// Package services holds the invoice mutation surface. All invoice writes go
// through InvoiceService so validation happens before anything reaches the
// store and every accepted mutation emits an event.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"facturas/internal/amqp"
	"facturas/internal/core"
)

// Ledger is the slice of the store the service mutates and reads.
type Ledger interface {
	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) (bool, error)
	GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
	ListInvoices(ctx context.Context) ([]core.Invoice, error)
}

// EventPublisher emits invoice mutation events. May be nil when AMQP is not
// configured.
type EventPublisher interface {
	PublishInvoiceEvent(ctx context.Context, event string, invoiceID int64) error
}

// InvoiceService validates and applies invoice mutations, then publishes
// events best-effort: a failed publish is logged, never surfaced, because
// the store is the source of truth.
type InvoiceService struct {
	ledger    Ledger
	publisher EventPublisher
}

func NewInvoiceService(ledger Ledger, publisher EventPublisher) *InvoiceService {
	return &InvoiceService{ledger: ledger, publisher: publisher}
}

// Create validates and inserts a new invoice. A missing paid_amount has
// already defaulted to zero in the decoded invoice.
func (s *InvoiceService) Create(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	created, err := s.ledger.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	s.publish(ctx, amqp.EventInvoiceCreated, created.ID)
	return created, nil
}

// Update validates and replaces the invoice with the given ID.
func (s *InvoiceService) Update(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error) {
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	updated, err := s.ledger.UpdateInvoice(ctx, id, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}

	s.publish(ctx, amqp.EventInvoiceUpdated, id)
	return updated, nil
}

// Delete removes the invoice and reports whether a row was deleted. Deleting
// an unknown ID is not an error and emits no event.
func (s *InvoiceService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.ledger.DeleteInvoice(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete invoice: %w", err)
	}
	if deleted {
		s.publish(ctx, amqp.EventInvoiceDeleted, id)
	}
	return deleted, nil
}

// Get fetches a single invoice.
func (s *InvoiceService) Get(ctx context.Context, id int64) (core.Invoice, error) {
	return s.ledger.GetInvoice(ctx, id)
}

// List returns all invoices.
func (s *InvoiceService) List(ctx context.Context) ([]core.Invoice, error) {
	return s.ledger.ListInvoices(ctx)
}

func (s *InvoiceService) publish(ctx context.Context, event string, id int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping", "event", event, "id_invoice", id)
		return
	}
	if err := s.publisher.PublishInvoiceEvent(ctx, event, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish invoice event",
			"event", event, "id_invoice", id, "error", err)
	}
}
