// Package postgres implements store.Store on PostgreSQL via database/sql
// and the lib/pq driver. Find-or-create semantics ride on unique indexes
// with INSERT ... ON CONFLICT DO NOTHING, and journal rows are written
// inside a single database transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

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

// Store implements store.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL store from a connection URL.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("journal/postgres: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

func (s *Store) UpsertLedger(ctx context.Context, led *ledger.Ledger) (*ledger.Ledger, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_ledgers (id, tenant_id, name, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
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

	// Lost the race or the ledger predates this call; either way the stored
	// row wins and its currency stands.
	stored, err := s.GetLedgerByName(ctx, led.TenantID, led.Name)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	return s.scanLedger(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, currency, created_at, updated_at
		FROM journal_ledgers WHERE id = $1`, ledgerID.String()))
}

func (s *Store) GetLedgerByName(ctx context.Context, tenantID, name string) (*ledger.Ledger, error) {
	return s.scanLedger(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, currency, created_at, updated_at
		FROM journal_ledgers WHERE tenant_id = $1 AND name = $2`, tenantID, name))
}

func (s *Store) scanLedger(row *sql.Row) (*ledger.Ledger, error) {
	var (
		led   ledger.Ledger
		rawID string
	)
	err := row.Scan(&rawID, &led.TenantID, &led.Name, &led.Currency, &led.CreatedAt, &led.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = $1 AND id = $2`,
		ledgerID.String(), accountID.String()))
}

func (s *Store) GetAccountByName(ctx context.Context, ledgerID id.LedgerID, name string) (*account.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = $1 AND name = $2`,
		ledgerID.String(), name))
}

func (s *Store) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger_id, name, type, currency, created_at, updated_at
		FROM journal_accounts WHERE ledger_id = $1 ORDER BY name`,
		ledgerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acct, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *Store) scanAccount(row *sql.Row) (*account.Account, error) {
	var (
		acct                        account.Account
		rawID, rawLedgerID, rawType string
	)
	err := row.Scan(&rawID, &rawLedgerID, &acct.Name, &rawType, &acct.Currency, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, journal.ErrNotFound
		}
		return nil, err
	}
	return hydrateAccount(&acct, rawID, rawLedgerID, rawType)
}

func scanAccountRow(rows *sql.Rows) (*account.Account, error) {
	var (
		acct                        account.Account
		rawID, rawLedgerID, rawType string
	)
	err := rows.Scan(&rawID, &rawLedgerID, &acct.Name, &rawType, &acct.Currency, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return hydrateAccount(&acct, rawID, rawLedgerID, rawType)
}

func hydrateAccount(acct *account.Account, rawID, rawLedgerID, rawType string) (*account.Account, error) {
	var err error
	acct.ID, err = id.ParseAccountID(rawID)
	if err != nil {
		return nil, err
	}
	acct.LedgerID, err = id.ParseLedgerID(rawLedgerID)
	if err != nil {
		return nil, err
	}
	acct.Type = account.Type(rawType)
	return acct, nil
}

// ==================== Document Store ====================

func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) (int64, error) {
	var docID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO journal_documents
			(ledger_id, type, reference, party_kind, party_id, date, due_date, number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		doc.LedgerID.String(), string(doc.Type), doc.Reference,
		string(doc.Party.Kind), doc.Party.ID, doc.Date, doc.DueDate, doc.Number,
		doc.CreatedAt, doc.UpdatedAt,
	).Scan(&docID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", journal.ErrDocumentExists, doc.Key())
		}
		return 0, err
	}
	return docID, nil
}

func (s *Store) GetDocumentID(ctx context.Context, ledgerID id.LedgerID, typ document.Type, reference string) (int64, bool, error) {
	var docID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM journal_documents
		WHERE ledger_id = $1 AND type = $2 AND reference = $3`,
		ledgerID.String(), string(typ), reference,
	).Scan(&docID)
	if err != nil {
		if isNoRows(err) {
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
		FROM journal_documents WHERE ledger_id = $1 AND id = $2`,
		ledgerID.String(), docID,
	).Scan(&doc.ID, &rawLedgerID, &rawType, &doc.Reference, &partyKind, &doc.Party.ID,
		&doc.Date, &dueDate, &doc.Number, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
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
		SET party_kind = $1, party_id = $2, date = $3, due_date = $4, number = $5, updated_at = NOW()
		WHERE ledger_id = $6 AND id = $7`,
		string(doc.Party.Kind), doc.Party.ID, doc.Date, doc.DueDate, doc.Number,
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

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
		FROM journal_rows WHERE ledger_id = $1`
	args := []any{ledgerID.String()}

	if !opts.AccountID.IsNil() {
		args = append(args, opts.AccountID.String())
		query += " AND account_id = $" + strconv.Itoa(len(args))
	}
	if !opts.TransactionID.IsNil() {
		args = append(args, opts.TransactionID.String())
		query += " AND transaction_id = $" + strconv.Itoa(len(args))
	}
	if opts.DocumentID != 0 {
		args = append(args, opts.DocumentID)
		query += " AND document_id = $" + strconv.Itoa(len(args))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		query += " AND date >= $" + strconv.Itoa(len(args))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		query += " AND date < $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
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
		FROM journal_rows WHERE ledger_id = $1 AND account_id = $2`,
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

// ==================== helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
