// Package store defines the storage contract the journal engine posts
// through. Backends must provide three primitives: unique-constrained
// insert that converges on the existing row under race, point lookup by
// composite key, and atomic multi-row insert for journal rows.
package store

import (
	"context"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
)

// Store is the unified storage interface for all journal entities.
// Instead of embedding sub-interfaces, all methods are declared explicitly
// to avoid naming conflicts.
type Store interface {
	// Ledger methods. UpsertLedger is the atomic find-or-create on
	// (tenant_id, name): when the key already exists, the stored ledger is
	// returned unchanged (the base currency is never overwritten) and
	// created is false.
	UpsertLedger(ctx context.Context, led *ledger.Ledger) (stored *ledger.Ledger, created bool, err error)
	GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error)
	GetLedgerByName(ctx context.Context, tenantID, name string) (*ledger.Ledger, error)

	// Account methods. UpsertAccount is the atomic find-or-create on
	// (ledger_id, name): a conflicting insert is a no-op that returns the
	// existing account, so concurrent callers converge on one AccountID.
	UpsertAccount(ctx context.Context, acct *account.Account) (stored *account.Account, created bool, err error)
	GetAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (*account.Account, error)
	GetAccountByName(ctx context.Context, ledgerID id.LedgerID, name string) (*account.Account, error)
	ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error)

	// Document methods. CreateDocument assigns and returns the int64
	// surrogate id; a duplicate (ledger_id, type, reference) surfaces a
	// conflict. GetDocumentID reports ok=false (id 0) when the key is not
	// tracked, without treating that as an error. UpdateDocument writes
	// only the descriptive fields; type and reference never change.
	CreateDocument(ctx context.Context, doc *document.Document) (int64, error)
	GetDocumentID(ctx context.Context, ledgerID id.LedgerID, typ document.Type, reference string) (docID int64, ok bool, err error)
	GetDocument(ctx context.Context, ledgerID id.LedgerID, docID int64) (*document.Document, error)
	UpdateDocument(ctx context.Context, doc *document.Document) error

	// Journal methods. InsertRows writes every row in one atomic unit:
	// either all rows become visible or none do. Rows are append-only;
	// there is no update or delete. SumAccount returns the signed
	// functional-currency sum (debits positive) over an account's rows.
	InsertRows(ctx context.Context, rows []*posting.Row) error
	ListRows(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Row, error)
	SumAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
