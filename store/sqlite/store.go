// Package sqlite implements store.Store on SQLite via database/sql and the
// mattn/go-sqlite3 driver. It mirrors the postgres backend's semantics:
// unique-index upserts for find-or-create and a single transaction around
// journal row batches. WAL mode is enabled so concurrent readers never
// block the writer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	journal "github.com/bookkeep/journal"
	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	journalstore "github.com/bookkeep/journal/store"
)

// compile-time interface check
var _ journalstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) a SQLite database at dbPath with
// foreign keys and WAL mode enabled.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("journal/sqlite: create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal/sqlite: open: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY errors under concurrent posting.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS journal_ledgers (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    currency   TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS journal_accounts (
    id         TEXT PRIMARY KEY,
    ledger_id  TEXT NOT NULL REFERENCES journal_ledgers (id),
    name       TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'asset',
    currency   TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (ledger_id, name)
);

CREATE TABLE IF NOT EXISTS journal_documents (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    ledger_id  TEXT NOT NULL REFERENCES journal_ledgers (id),
    type       TEXT NOT NULL,
    reference  TEXT NOT NULL,
    party_kind TEXT NOT NULL,
    party_id   TEXT NOT NULL,
    date       DATETIME NOT NULL,
    due_date   DATETIME,
    number     TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (ledger_id, type, reference)
);

CREATE TABLE IF NOT EXISTS journal_rows (
    id                 TEXT PRIMARY KEY,
    ledger_id          TEXT NOT NULL REFERENCES journal_ledgers (id),
    transaction_id     TEXT NOT NULL,
    date               DATETIME NOT NULL,
    currency           TEXT NOT NULL,
    account_id         TEXT NOT NULL REFERENCES journal_accounts (id),
    polarity           TEXT NOT NULL,
    amount             INTEGER NOT NULL CHECK (amount >= 0),
    amount_in_currency INTEGER NOT NULL CHECK (amount_in_currency >= 0),
    party_kind         TEXT,
    party_id           TEXT,
    document_id        INTEGER NOT NULL DEFAULT 0,
    description        TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_rows_account ON journal_rows (ledger_id, account_id);
CREATE INDEX IF NOT EXISTS idx_journal_rows_transaction ON journal_rows (ledger_id, transaction_id);
CREATE INDEX IF NOT EXISTS idx_journal_rows_document ON journal_rows (ledger_id, document_id);
CREATE INDEX IF NOT EXISTS idx_journal_rows_date ON journal_rows (ledger_id, date);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("journal/sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

func (s *Store) UpsertLedger(ctx context.Context, led *ledger.Ledger) (*ledger.Ledger, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_ledgers (id, tenant_id, name, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, name) DO NOTHING`,
		led.ID.String(), led.TenantID, led.Name, led.Currency, led.CreatedAt, led.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if inserted == 1 {
		return led, true, nil
	}

	stored, err := s.GetLedgerByName(ctx, led.TenantID, led.Name)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	return scanLedger(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, currency, created_at, updated_at
		FROM journal_ledgers WHERE id = ?`, ledgerID.String()))
}

func (s *Store) GetLedgerByName(ctx context.Context, tenantID, name string) (*ledger.Ledger, error) {
	return scanLedger(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, currency, created_at, updated_at
		FROM journal_ledgers WHERE tenant_id = ? AND name = ?`, tenantID, name))
}

func scanLedger(row *sql.Row) (*ledger.Ledger, error) {
	var (
		led   ledger.Ledger
		rawID string
	)
	err := row.Scan(&rawID, &led.TenantID, &led.Name, &led.Currency, &led.CreatedAt, &led.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrLedgerNotFound
		}
		return nil, err
	}
	led.ID, err = id.ParseLedgerID(rawID)
	if err != nil {
		return nil, err
	}
	return &led, nil
}

// ==================== Account Store ====================

func (s *Store) UpsertAccount(ctx context.Context, acct *account.Account) (*account.Account, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_accounts (id, ledger_id, name, type, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ledger_id, name) DO NOTHING`,
		acct.ID.String(), acct.LedgerID.String(), acct.Name, string(acct.Type), acct.Currency,
		acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if inserted == 1 {
		return acct, true, nil
	}

	stored, err := s.GetAccountByName(ctx, acct.LedgerID, acct.Name)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *Store) GetAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (*account.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = ? AND id = ?`,
		ledgerID.String(), accountID.String()))
}

func (s *Store) GetAccountByName(ctx context.Context, ledgerID id.LedgerID, name string) (*account.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = ? AND name = ?`,
		ledgerID.String(), name))
}

func (s *Store) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = ? ORDER BY name`,
		ledgerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var (
			acct                        account.Account
			rawID, rawLedgerID, rawType string
		)
		if err := rows.Scan(&rawID, &rawLedgerID, &acct.Name, &rawType, &acct.Currency,
			&acct.CreatedAt, &acct.UpdatedAt); err != nil {
			return nil, err
		}
		if err := hydrateAccount(&acct, rawID, rawLedgerID, rawType); err != nil {
			return nil, err
		}
		accounts = append(accounts, &acct)
	}
	return accounts, rows.Err()
}

func scanAccount(row *sql.Row) (*account.Account, error) {
	var (
		acct                        account.Account
		rawID, rawLedgerID, rawType string
	)
	err := row.Scan(&rawID, &rawLedgerID, &acct.Name, &rawType, &acct.Currency, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrNotFound
		}
		return nil, err
	}
	if err := hydrateAccount(&acct, rawID, rawLedgerID, rawType); err != nil {
		return nil, err
	}
	return &acct, nil
}

func hydrateAccount(acct *account.Account, rawID, rawLedgerID, rawType string) error {
	var err error
	if acct.ID, err = id.ParseAccountID(rawID); err != nil {
		return err
	}
	if acct.LedgerID, err = id.ParseLedgerID(rawLedgerID); err != nil {
		return err
	}
	acct.Type = account.Type(rawType)
	return nil
}

// ==================== Document Store ====================

func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_documents
			(ledger_id, type, reference, party_kind, party_id, date, due_date, number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.LedgerID.String(), string(doc.Type), doc.Reference,
		string(doc.Party.Kind), doc.Party.ID, doc.Date, doc.DueDate, doc.Number,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", journal.ErrDocumentExists, doc.Key())
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetDocumentID(ctx context.Context, ledgerID id.LedgerID, typ document.Type, reference string) (int64, bool, error) {
	var docID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM journal_documents
		WHERE ledger_id = ? AND type = ? AND reference = ?`,
		ledgerID.String(), string(typ), reference,
	).Scan(&docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return docID, true, nil
}

func (s *Store) GetDocument(ctx context.Context, ledgerID id.LedgerID, docID int64) (*document.Document, error) {
	var (
		doc         document.Document
		rawLedgerID string
		rawType     string
		partyKind   string
		dueDate     sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, type, reference, party_kind, party_id, date, due_date, number, created_at, updated_at
		FROM journal_documents WHERE ledger_id = ? AND id = ?`,
		ledgerID.String(), docID,
	).Scan(&doc.ID, &rawLedgerID, &rawType, &doc.Reference, &partyKind, &doc.Party.ID,
		&doc.Date, &dueDate, &doc.Number, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrDocumentNotFound
		}
		return nil, err
	}

	doc.LedgerID, err = id.ParseLedgerID(rawLedgerID)
	if err != nil {
		return nil, err
	}
	doc.Type = document.Type(rawType)
	doc.Party.Kind = document.PartyKind(partyKind)
	if dueDate.Valid {
		due := dueDate.Time
		doc.DueDate = &due
	}
	return &doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc *document.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journal_documents
		SET party_kind = ?, party_id = ?, date = ?, due_date = ?, number = ?, updated_at = ?
		WHERE ledger_id = ? AND id = ?`,
		string(doc.Party.Kind), doc.Party.ID, doc.Date, doc.DueDate, doc.Number, time.Now().UTC(),
		doc.LedgerID.String(), doc.ID,
	)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return journal.ErrDocumentNotFound
	}
	return nil
}

// ==================== Journal Store ====================

func (s *Store) InsertRows(ctx context.Context, rows []*posting.Row) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	const query = `
		INSERT INTO journal_rows
			(id, ledger_id, transaction_id, date, currency, account_id, polarity,
			 amount, amount_in_currency, party_kind, party_id, document_id, description,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, r := range rows {
		var partyKind, partyID sql.NullString
		if r.Party != nil {
			partyKind = sql.NullString{String: string(r.Party.Kind), Valid: true}
			partyID = sql.NullString{String: r.Party.ID, Valid: true}
		}
		_, err = dbTx.ExecContext(ctx, query,
			r.ID.String(), r.LedgerID.String(), r.TransactionID.String(), r.Date, r.Currency,
			r.AccountID.String(), string(r.Polarity), r.Amount, r.AmountInCurrency,
			partyKind, partyID, r.DocumentID, r.Description,
			r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (s *Store) ListRows(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Row, error) {
	query := `
		SELECT id, ledger_id, transaction_id, date, currency, account_id, polarity,
		       amount, amount_in_currency, party_kind, party_id, document_id, description,
		       created_at, updated_at
		FROM journal_rows WHERE ledger_id = ?`
	args := []any{ledgerID.String()}

	if !opts.AccountID.IsNil() {
		query += " AND account_id = ?"
		args = append(args, opts.AccountID.String())
	}
	if !opts.TransactionID.IsNil() {
		query += " AND transaction_id = ?"
		args = append(args, opts.TransactionID.String())
	}
	if opts.DocumentID != 0 {
		query += " AND document_id = ?"
		args = append(args, opts.DocumentID)
	}
	if !opts.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, opts.From)
	}
	if !opts.To.IsZero() {
		query += " AND date < ?"
		args = append(args, opts.To)
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		// SQLite only accepts OFFSET inside a LIMIT clause; -1 means no cap.
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var result []*posting.Row
	for dbRows.Next() {
		r, err := scanRow(dbRows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, dbRows.Err()
}

func (s *Store) SumAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN polarity = 'debit' THEN amount ELSE -amount END), 0)
		FROM journal_rows WHERE ledger_id = ? AND account_id = ?`,
		ledgerID.String(), accountID.String(),
	).Scan(&sum)
	return sum, err
}

func scanRow(dbRows *sql.Rows) (*posting.Row, error) {
	var (
		r                   posting.Row
		rawID, rawLedgerID  string
		rawTxnID, rawAcctID string
		rawPolarity         string
		partyKind, partyID  sql.NullString
	)
	err := dbRows.Scan(&rawID, &rawLedgerID, &rawTxnID, &r.Date, &r.Currency, &rawAcctID,
		&rawPolarity, &r.Amount, &r.AmountInCurrency, &partyKind, &partyID,
		&r.DocumentID, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if r.ID, err = id.ParseRowID(rawID); err != nil {
		return nil, err
	}
	if r.LedgerID, err = id.ParseLedgerID(rawLedgerID); err != nil {
		return nil, err
	}
	if r.TransactionID, err = id.ParseTransactionID(rawTxnID); err != nil {
		return nil, err
	}
	if r.AccountID, err = id.ParseAccountID(rawAcctID); err != nil {
		return nil, err
	}
	r.Polarity = posting.Polarity(rawPolarity)
	if partyKind.Valid {
		r.Party = &document.Party{Kind: document.PartyKind(partyKind.String), ID: partyID.String}
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
