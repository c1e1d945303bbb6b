package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionLedgerCreated = "ledger.created"

	// Account actions
	ActionAccountCreated = "account.created"

	// Document actions
	ActionDocumentCreated = "document.created"
	ActionDocumentUpdated = "document.updated"

	// Posting actions
	ActionTransactionPosted   = "transaction.posted"
	ActionTransactionRejected = "transaction.rejected"
)

// Resource constants for audit events.
const (
	ResourceLedger      = "ledger"
	ResourceAccount     = "account"
	ResourceDocument    = "document"
	ResourceTransaction = "transaction"
)

// Category constants for audit events.
const (
	CategoryBookkeeping = "bookkeeping"
	CategoryPosting     = "posting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
