package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldAccountID     = "account_id"
	FieldEnvelopeID    = "envelope_id"
	FieldTransactionID = "transaction_id"
	FieldTransferID    = "transfer_id"
	FieldAmountCents   = "amount_cents"
	FieldPayee         = "payee"
	FieldJournalRef    = "journal_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentTrace   = "trace"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpAssign    = "assign"
	OpRelease   = "release"
	OpTransfer  = "transfer"
	OpReconcile = "reconcile"
	OpExport    = "export"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
