package postgres

import (
	"context"
	"fmt"
)

type migration struct {
	version string
	name    string
	up      string
}

// migrations run in order inside a transaction each; applied versions are
// tracked in journal_schema_migrations so Migrate is safe to call on every
// startup.
var migrations = []migration{
	{
		version: "20260101000001",
		name:    "create_journal_ledgers",
		up: `
CREATE TABLE IF NOT EXISTS journal_ledgers (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    currency   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_journal_ledgers_tenant_name ON journal_ledgers (tenant_id, name);
`,
	},
	{
		version: "20260101000002",
		name:    "create_journal_accounts",
		up: `
CREATE TABLE IF NOT EXISTS journal_accounts (
    id         TEXT PRIMARY KEY,
    ledger_id  TEXT NOT NULL REFERENCES journal_ledgers (id),
    name       TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'asset',
    currency   TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_journal_accounts_ledger_name ON journal_accounts (ledger_id, name);
`,
	},
	{
		version: "20260101000003",
		name:    "create_journal_documents",
		up: `
CREATE TABLE IF NOT EXISTS journal_documents (
    id         BIGSERIAL PRIMARY KEY,
    ledger_id  TEXT NOT NULL REFERENCES journal_ledgers (id),
    type       TEXT NOT NULL,
    reference  TEXT NOT NULL,
    party_kind TEXT NOT NULL,
    party_id   TEXT NOT NULL,
    date       TIMESTAMPTZ NOT NULL,
    due_date   TIMESTAMPTZ,
    number     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_journal_documents_identity ON journal_documents (ledger_id, type, reference);
`,
	},
	{
		version: "20260101000004",
		name:    "create_journal_rows",
		up: `
CREATE TABLE IF NOT EXISTS journal_rows (
    id                 TEXT PRIMARY KEY,
    ledger_id          TEXT NOT NULL REFERENCES journal_ledgers (id),
    transaction_id     TEXT NOT NULL,
    date               TIMESTAMPTZ NOT NULL,
    currency           TEXT NOT NULL,
    account_id         TEXT NOT NULL REFERENCES journal_accounts (id),
    polarity           TEXT NOT NULL,
    amount             BIGINT NOT NULL CHECK (amount >= 0),
    amount_in_currency BIGINT NOT NULL CHECK (amount_in_currency >= 0),
    party_kind         TEXT,
    party_id           TEXT,
    document_id        BIGINT NOT NULL DEFAULT 0,
    description        TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_journal_rows_account ON journal_rows (ledger_id, account_id);
CREATE INDEX IF NOT EXISTS idx_journal_rows_transaction ON journal_rows (ledger_id, transaction_id);
CREATE INDEX IF NOT EXISTS idx_journal_rows_document ON journal_rows (ledger_id, document_id) WHERE document_id <> 0;
CREATE INDEX IF NOT EXISTS idx_journal_rows_date ON journal_rows (ledger_id, date);
`,
	},
}

// Migrate applies any pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS journal_schema_migrations (
			version    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("journal/postgres: create migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("journal/postgres: migration %s (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) migrationApplied(ctx context.Context, version string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM journal_schema_migrations WHERE version = $1`, version,
	).Scan(&one)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.up); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO journal_schema_migrations (version, name) VALUES ($1, $2)`,
		m.version, m.name,
	); err != nil {
		return err
	}
	return tx.Commit()
}
