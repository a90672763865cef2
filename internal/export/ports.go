// Package export defines the outbound port for the invoice audit trail.
package export

import (
	"context"
	"time"

	"facturas/internal/core"
)

// RowAppender appends one invoice event row to an external audit sheet.
// invoice is nil for delete events, where only the ID is still known.
type RowAppender interface {
	AppendInvoiceEvent(ctx context.Context, event string, invoiceID int64, invoice *core.Invoice, at time.Time) error
}
