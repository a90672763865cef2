package amqp

import (
	"encoding/json"
	"time"
)

// Invoice mutation event names carried on the wire.
const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceUpdated = "invoice.updated"
	EventInvoiceDeleted = "invoice.deleted"
)

// InvoiceEventMessage is a compact mutation notification. It carries only the
// event name and invoice ID; consumers fetch the current invoice from the
// store, so a stale message never overwrites fresher data.
type InvoiceEventMessage struct {
	Event     string    `json:"event"`
	InvoiceID int64     `json:"id_invoice"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceEventMessage(event string, invoiceID int64) *InvoiceEventMessage {
	return &InvoiceEventMessage{
		Event:     event,
		InvoiceID: invoiceID,
		Timestamp: time.Now(),
	}
}

func (m *InvoiceEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoiceEventMessageFromJSON(data []byte) (*InvoiceEventMessage, error) {
	var msg InvoiceEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
