package amqp

import (
	"testing"
	"time"
)

func TestInvoiceEventMessageRoundTrip(t *testing.T) {
	msg := NewInvoiceEventMessage(EventInvoiceCreated, 42)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := InvoiceEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Event != EventInvoiceCreated || got.InvoiceID != 42 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if time.Since(got.Timestamp) > time.Minute {
		t.Fatalf("timestamp not set: %v", got.Timestamp)
	}
}

func TestInvoiceEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := InvoiceEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid body")
	}
}
