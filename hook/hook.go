// Package hook provides an extensible hook system for the journal engine.
// Hooks observe lifecycle events (ledgers, accounts, and documents being
// created, transactions being posted or rejected) and are the intended
// integration point for audit trails and external notifications.
//
// Hooks observe; they cannot veto. A hook error is logged and dropped so
// that a misbehaving observer can never block or roll back a posting.
package hook

import (
	"context"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. The engine is passed as an
// opaque value to avoid an import cycle with the root package.
type OnInit interface {
	Hook
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated is called when a new ledger is created (not on
// find-or-create calls that return an existing ledger).
type OnLedgerCreated interface {
	Hook
	OnLedgerCreated(ctx context.Context, led *ledger.Ledger) error
}

// OnAccountCreated is called when a chart-of-accounts entry is created.
type OnAccountCreated interface {
	Hook
	OnAccountCreated(ctx context.Context, acct *account.Account) error
}

// OnDocumentCreated is called when a document is registered.
type OnDocumentCreated interface {
	Hook
	OnDocumentCreated(ctx context.Context, doc *document.Document) error
}

// OnDocumentUpdated is called when a document's descriptive fields change.
type OnDocumentUpdated interface {
	Hook
	OnDocumentUpdated(ctx context.Context, doc *document.Document) error
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnTransactionPosted is called after a transaction's rows have been
// committed. The rows passed are the immutable journal rows as written.
type OnTransactionPosted interface {
	Hook
	OnTransactionPosted(ctx context.Context, txnID id.TransactionID, rows []*posting.Row) error
}

// OnTransactionRejected is called when validation fails before any row is
// written.
type OnTransactionRejected interface {
	Hook
	OnTransactionRejected(ctx context.Context, txn *posting.Transaction, cause error) error
}
