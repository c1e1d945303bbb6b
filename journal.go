package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/hook"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	"github.com/bookkeep/journal/store"
	"github.com/bookkeep/journal/types"
)

// Journal is the posting engine: the single entry point through which
// callers find or create ledgers, resolve accounts and documents, and post
// balanced transactions as immutable journal rows.
//
// The engine has no internal goroutines or timers; every operation is a
// synchronous call that completes or fails before returning. Concurrency
// safety under multiple writers comes from the store's atomic upserts and
// transactional multi-row inserts, not from engine-level locking.
type Journal struct {
	store  store.Store
	hooks  *hook.Registry
	logger *slog.Logger
}

// New creates a new Journal instance.
func New(s store.Store, opts ...Option) *Journal {
	j := &Journal{
		store:  s,
		hooks:  hook.NewRegistry(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Option configures a Journal instance.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = logger
		j.hooks.WithLogger(logger)
	}
}

// WithHook registers a lifecycle hook.
func WithHook(h hook.Hook) Option {
	return func(j *Journal) {
		_ = j.hooks.Register(h) //nolint:errcheck // best-effort hook registration during init
	}
}

// Start migrates the store and initializes hooks.
func (j *Journal) Start(ctx context.Context) error {
	if err := j.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	j.hooks.EmitInit(ctx, j)

	j.logger.Info("journal started", "hooks", j.hooks.Count())
	return nil
}

// Stop shuts down the Journal.
func (j *Journal) Stop() error {
	ctx := context.Background()
	j.hooks.EmitShutdown(ctx)

	return j.store.Close()
}

// Ping checks store connectivity.
func (j *Journal) Ping(ctx context.Context) error {
	return j.store.Ping(ctx)
}

// ──────────────────────────────────────────────────
// Ledger Repository
// ──────────────────────────────────────────────────

// FindOrCreateLedger returns the existing ledger for (tenantID, name) or
// creates one with the given base currency. The call is idempotent under
// race: concurrent callers converge on a single ledger. When the ledger
// already exists it is returned as stored; the base currency is never
// overwritten, so callers relying on a specific currency must check
// led.Currency themselves.
func (j *Journal) FindOrCreateLedger(ctx context.Context, tenantID, name, currency string) (*ledger.Ledger, error) {
	if tenantID == "" || name == "" || currency == "" {
		return nil, fmt.Errorf("%w: tenant, name, and currency are required", ErrInvalidInput)
	}

	stored, created, err := j.store.UpsertLedger(ctx, ledger.New(tenantID, name, currency))
	if err != nil {
		return nil, err
	}

	if created {
		j.hooks.EmitLedgerCreated(ctx, stored)
		j.logger.Info("ledger created",
			"ledger_id", stored.ID.String(),
			"tenant_id", stored.TenantID,
			"name", stored.Name,
			"currency", stored.Currency,
		)
	}

	return stored, nil
}

// GetLedger is the strict lookup by (tenantID, name).
func (j *Journal) GetLedger(ctx context.Context, tenantID, name string) (*ledger.Ledger, error) {
	return j.store.GetLedgerByName(ctx, tenantID, name)
}

// Accounts returns the chart of accounts scoped to one ledger.
func (j *Journal) Accounts(led *ledger.Ledger) *ChartOfAccounts {
	return &ChartOfAccounts{journal: j, led: led}
}

// Documents returns the document registry scoped to one ledger.
func (j *Journal) Documents(led *ledger.Ledger) *DocumentRegistry {
	return &DocumentRegistry{journal: j, led: led}
}

// ──────────────────────────────────────────────────
// Posting Engine
// ──────────────────────────────────────────────────

// Post validates a transaction, resolves its account references, and writes
// one immutable journal row per entry, all sharing a fresh transaction id.
// The rows become visible atomically: a failure at any point leaves no
// partial rows behind.
//
// Validation happens entirely in memory before any storage access: the
// entry list must be non-empty, every amount non-negative, and total debits
// must equal total credits in the ledger's functional currency. The
// transaction-currency amounts never participate in the balance check.
//
// Documents are not resolved here: callers must obtain a DocumentID through
// the DocumentRegistry before building entries, because one document may be
// shared by entries across many transactions.
func (j *Journal) Post(ctx context.Context, led *ledger.Ledger, txn *posting.Transaction) (id.TransactionID, error) {
	// RECEIVED -> VALIDATED
	if len(txn.Entries) == 0 {
		return id.Nil, j.reject(ctx, txn, ErrEmptyTransaction)
	}
	for _, e := range txn.Entries {
		if !e.Amount.Polarity.Valid() {
			return id.Nil, j.reject(ctx, txn, fmt.Errorf("%w: entry %q has no polarity", ErrInvalidInput, e.Account))
		}
		if e.Amount.Value < 0 || e.Amount.ValueInCurrency < 0 {
			return id.Nil, j.reject(ctx, txn, fmt.Errorf("%w: entry %q", posting.ErrNegativeAmount, e.Account))
		}
	}
	debits, credits := txn.Totals()
	if debits != credits {
		return id.Nil, j.reject(ctx, txn, outOfBalanceError(debits, credits))
	}

	currency := ledger.NormalizeCurrency(txn.Currency)
	if currency == "" {
		currency = led.Currency
	}

	// VALIDATED -> RESOLVED: accounts are provisioned on demand; document
	// ids and parties pass through as given.
	coa := j.Accounts(led)
	txnID := id.NewTransactionID()
	rows := make([]*posting.Row, len(txn.Entries))
	for i, e := range txn.Entries {
		acctID, err := coa.FindOrCreate(ctx, e.Account, entryAccountType(e), "")
		if err != nil {
			return id.Nil, err
		}
		rows[i] = &posting.Row{
			Entity:           types.NewEntity(),
			ID:               id.NewRowID(),
			LedgerID:         led.ID,
			TransactionID:    txnID,
			Date:             txn.Date,
			Currency:         currency,
			AccountID:        acctID,
			Polarity:         e.Amount.Polarity,
			Amount:           e.Amount.Value,
			AmountInCurrency: e.Amount.ValueInCurrency,
			Party:            e.Party,
			DocumentID:       e.DocumentID,
			Description:      txn.Description,
		}
	}

	// RESOLVED -> POSTED: one atomic unit for all rows.
	if err := j.store.InsertRows(ctx, rows); err != nil {
		return id.Nil, err
	}

	j.hooks.EmitTransactionPosted(ctx, txnID, rows)
	j.logger.Info("transaction posted",
		"ledger_id", led.ID.String(),
		"transaction_id", txnID.String(),
		"rows", len(rows),
		"debits", debits,
		"credits", credits,
	)

	return txnID, nil
}

// reject marks the RECEIVED -> REJECTED transition: the cause is reported
// to hooks and returned, with ledger state untouched.
func (j *Journal) reject(ctx context.Context, txn *posting.Transaction, cause error) error {
	j.hooks.EmitTransactionRejected(ctx, txn, cause)
	j.logger.Warn("transaction rejected", "error", cause)
	return cause
}

// entryAccountType maps an entry's optional account type to the type used
// when the account is provisioned on demand. Entries that omit it get an
// asset account; callers that care pre-create their chart and rely on the
// strict GetID semantics at a higher layer.
func entryAccountType(e posting.Entry) account.Type {
	if e.AccountType != "" {
		return account.Type(e.AccountType)
	}
	return account.TypeAsset
}

// ──────────────────────────────────────────────────
// Read side
// ──────────────────────────────────────────────────

// Entries returns journal rows for a ledger, filtered by opts.
func (j *Journal) Entries(ctx context.Context, led *ledger.Ledger, opts posting.ListOpts) ([]*posting.Row, error) {
	return j.store.ListRows(ctx, led.ID, opts)
}

// TransactionRows returns all rows written for one posted transaction.
func (j *Journal) TransactionRows(ctx context.Context, led *ledger.Ledger, txnID id.TransactionID) ([]*posting.Row, error) {
	return j.store.ListRows(ctx, led.ID, posting.ListOpts{TransactionID: txnID})
}

// AccountBalance derives an account's balance by summing its journal rows
// (debits positive), reported as Money in the ledger's functional currency.
// No running balance is stored anywhere; this is always a fresh sum.
// The account must exist: an unknown name is a strict lookup failure.
func (j *Journal) AccountBalance(ctx context.Context, led *ledger.Ledger, name string) (types.Money, error) {
	acct, err := j.store.GetAccountByName(ctx, led.ID, name)
	if err != nil {
		if IsNotFound(err) {
			return types.Money{}, accountNotFoundError(name)
		}
		return types.Money{}, err
	}

	sum, err := j.store.SumAccount(ctx, led.ID, acct.ID)
	if err != nil {
		return types.Money{}, err
	}
	return types.New(sum, led.Currency), nil
}
