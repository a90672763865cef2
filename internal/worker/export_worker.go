// Package worker runs the invoice audit exporter: it consumes invoice
// mutation events from the queue and appends one row per event to the
// configured sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facturas/internal/amqp"
	"facturas/internal/core"
	"facturas/internal/export"
	"facturas/internal/log"
)

// InvoiceReader fetches the current state of an invoice for export.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
}

// EventConsumer delivers queued invoice events to a handler.
type EventConsumer interface {
	ConsumeInvoiceEvents(ctx context.Context, handler func(*amqp.InvoiceEventMessage) error) error
}

// ExportWorker turns invoice events into audit rows.
type ExportWorker struct {
	consumer EventConsumer
	store    InvoiceReader
	appender export.RowAppender
	logger   *slog.Logger
}

func NewExportWorker(consumer EventConsumer, store InvoiceReader, appender export.RowAppender) *ExportWorker {
	return &ExportWorker{
		consumer: consumer,
		store:    store,
		appender: appender,
		logger:   slog.Default().With(log.FieldComponent, log.ComponentWorker),
	}
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Export worker started")
	return w.consumer.ConsumeInvoiceEvents(ctx, func(msg *amqp.InvoiceEventMessage) error {
		return w.HandleEvent(ctx, msg)
	})
}

// HandleEvent exports a single invoice event. Delete events, and events whose
// invoice has been removed since publishing, export with the ID only.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.InvoiceEventMessage) error {
	var invoice *core.Invoice
	if msg.Event != amqp.EventInvoiceDeleted {
		found, err := w.store.GetInvoice(ctx, msg.InvoiceID)
		switch {
		case core.IsNotFound(err):
			w.logger.WarnContext(ctx, "Invoice gone before export, exporting id only",
				log.FieldEvent, msg.Event,
				log.FieldInvoiceID, msg.InvoiceID)
		case err != nil:
			return fmt.Errorf("fetch invoice %d: %w", msg.InvoiceID, err)
		default:
			invoice = &found
		}
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	if err := w.appender.AppendInvoiceEvent(ctx, msg.Event, msg.InvoiceID, invoice, at); err != nil {
		return fmt.Errorf("append event %s for invoice %d: %w", msg.Event, msg.InvoiceID, err)
	}

	w.logger.InfoContext(ctx, "Exported invoice event",
		log.FieldEvent, msg.Event,
		log.FieldInvoiceID, msg.InvoiceID)
	return nil
}
