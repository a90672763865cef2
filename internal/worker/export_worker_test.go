package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"facturas/internal/amqp"
	"facturas/internal/core"

	"github.com/shopspring/decimal"
)

type fakeReader struct {
	invoices map[int64]core.Invoice
	err      error
}

func (f *fakeReader) GetInvoice(_ context.Context, id int64) (core.Invoice, error) {
	if f.err != nil {
		return core.Invoice{}, f.err
	}
	inv, ok := f.invoices[id]
	if !ok {
		return core.Invoice{}, &core.NotFoundError{Entity: "invoice", Key: "7"}
	}
	return inv, nil
}

type appendedRow struct {
	event     string
	invoiceID int64
	invoice   *core.Invoice
	at        time.Time
}

type fakeAppender struct {
	rows []appendedRow
	err  error
}

func (f *fakeAppender) AppendInvoiceEvent(_ context.Context, event string, invoiceID int64, invoice *core.Invoice, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, appendedRow{event: event, invoiceID: invoiceID, invoice: invoice, at: at})
	return nil
}

func TestHandleEventExportsCurrentInvoice(t *testing.T) {
	reader := &fakeReader{invoices: map[int64]core.Invoice{
		7: {
			ID:            7,
			InvoiceNumber: "FAC-7001",
			BilledAmount:  decimal.RequireFromString("1500.00"),
			PaidAmount:    decimal.RequireFromString("500.00"),
		},
	}}
	appender := &fakeAppender{}
	w := NewExportWorker(nil, reader, appender)

	msg := amqp.NewInvoiceEventMessage(amqp.EventInvoiceUpdated, 7)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(appender.rows))
	}
	row := appender.rows[0]
	if row.event != amqp.EventInvoiceUpdated || row.invoiceID != 7 {
		t.Errorf("row = %s/%d, want %s/7", row.event, row.invoiceID, amqp.EventInvoiceUpdated)
	}
	if row.invoice == nil || row.invoice.InvoiceNumber != "FAC-7001" {
		t.Errorf("row.invoice = %+v, want invoice FAC-7001", row.invoice)
	}
	if !row.at.Equal(msg.Timestamp) {
		t.Errorf("row.at = %v, want message timestamp %v", row.at, msg.Timestamp)
	}
}

func TestHandleEventDeleteSkipsFetch(t *testing.T) {
	reader := &fakeReader{err: errors.New("store must not be called for deletes")}
	appender := &fakeAppender{}
	w := NewExportWorker(nil, reader, appender)

	msg := amqp.NewInvoiceEventMessage(amqp.EventInvoiceDeleted, 9)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(appender.rows))
	}
	if appender.rows[0].invoice != nil {
		t.Errorf("delete event exported invoice %+v, want nil", appender.rows[0].invoice)
	}
}

func TestHandleEventInvoiceGoneExportsIDOnly(t *testing.T) {
	reader := &fakeReader{invoices: map[int64]core.Invoice{}}
	appender := &fakeAppender{}
	w := NewExportWorker(nil, reader, appender)

	msg := amqp.NewInvoiceEventMessage(amqp.EventInvoiceCreated, 42)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(appender.rows))
	}
	if appender.rows[0].invoice != nil {
		t.Errorf("exported invoice %+v for a missing record, want nil", appender.rows[0].invoice)
	}
}

func TestHandleEventStoreFailurePropagates(t *testing.T) {
	reader := &fakeReader{err: core.ErrStoreUnavailable}
	w := NewExportWorker(nil, reader, &fakeAppender{})

	msg := amqp.NewInvoiceEventMessage(amqp.EventInvoiceUpdated, 1)
	err := w.HandleEvent(context.Background(), msg)
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("HandleEvent() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestHandleEventAppendFailurePropagates(t *testing.T) {
	appendErr := errors.New("sheet unreachable")
	w := NewExportWorker(nil, &fakeReader{invoices: map[int64]core.Invoice{}}, &fakeAppender{err: appendErr})

	msg := amqp.NewInvoiceEventMessage(amqp.EventInvoiceDeleted, 3)
	if err := w.HandleEvent(context.Background(), msg); !errors.Is(err, appendErr) {
		t.Fatalf("HandleEvent() error = %v, want %v", err, appendErr)
	}
}

func TestHandleEventZeroTimestampDefaultsToNow(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(nil, &fakeReader{invoices: map[int64]core.Invoice{}}, appender)

	msg := &amqp.InvoiceEventMessage{Event: amqp.EventInvoiceDeleted, InvoiceID: 5}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if appender.rows[0].at.IsZero() {
		t.Error("row timestamp is zero, want current time fallback")
	}
}
