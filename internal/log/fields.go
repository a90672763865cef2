package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldInvoiceID     = "id_invoice"
	FieldInvoiceNumber = "invoice_number"
	FieldClientID      = "id_client"
	FieldPlatformName  = "platform_name"
	FieldEvent         = "event"
	FieldCount         = "count"
	FieldSkipped       = "skipped"
)

// Standard component names.
const (
	ComponentAPI     = "api"
	ComponentStorage = "storage"
	ComponentSeeder  = "seeder"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
