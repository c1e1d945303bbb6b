package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	journal "github.com/bookkeep/journal"
	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	"github.com/bookkeep/journal/types"
)

// newTestStore connects to the database named by JOURNAL_POSTGRES_TEST_URL,
// or skips the test when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("JOURNAL_POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("JOURNAL_POSTGRES_TEST_URL not set")
	}

	s, err := New(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	led, created, err := s.UpsertLedger(ctx, ledger.New("pgtest", id.NewLedgerID().String(), "usd"))
	if err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}
	if !created {
		t.Fatal("expected a fresh ledger")
	}

	// Second upsert with a different currency finds the stored row.
	again, created, err := s.UpsertLedger(ctx, ledger.New("pgtest", led.Name, "eur"))
	if err != nil {
		t.Fatalf("re-upsert ledger: %v", err)
	}
	if created || again.ID != led.ID || again.Currency != "usd" {
		t.Fatalf("re-upsert: created=%v id=%s currency=%s", created, again.ID, again.Currency)
	}

	acct, created, err := s.UpsertAccount(ctx, account.New(led.ID, "Cash", account.TypeAsset, ""))
	if err != nil || !created {
		t.Fatalf("upsert account: created=%v err=%v", created, err)
	}

	docID, err := s.CreateDocument(ctx, &document.Document{
		Entity:    types.NewEntity(),
		LedgerID:  led.ID,
		Type:      document.TypeInvoice,
		Reference: "INV-1",
		Party:     document.Customer("cust_1"),
		Date:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	_, err = s.CreateDocument(ctx, &document.Document{
		Entity:    types.NewEntity(),
		LedgerID:  led.ID,
		Type:      document.TypeInvoice,
		Reference: "INV-1",
		Party:     document.Customer("cust_1"),
		Date:      time.Now().UTC(),
	})
	if !errors.Is(err, journal.ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists, got %v", err)
	}

	txnID := id.NewTransactionID()
	rows := []*posting.Row{
		{
			Entity: types.NewEntity(), ID: id.NewRowID(), LedgerID: led.ID,
			TransactionID: txnID, Date: time.Now().UTC(), Currency: "usd",
			AccountID: acct.ID, Polarity: posting.Debit, Amount: 100, DocumentID: docID,
		},
		{
			Entity: types.NewEntity(), ID: id.NewRowID(), LedgerID: led.ID,
			TransactionID: txnID, Date: time.Now().UTC(), Currency: "usd",
			AccountID: acct.ID, Polarity: posting.Credit, Amount: 40,
		},
	}
	if err := s.InsertRows(ctx, rows); err != nil {
		t.Fatalf("insert rows: %v", err)
	}

	sum, err := s.SumAccount(ctx, led.ID, acct.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 60 {
		t.Fatalf("sum = %d, want 60", sum)
	}

	listed, err := s.ListRows(ctx, led.ID, posting.ListOpts{DocumentID: docID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].DocumentID != docID {
		t.Fatalf("document filter returned %d rows", len(listed))
	}
}
