package sqlite

import (
	"context"
	"errors"
	"path/filepath"
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

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
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

func TestSQLiteUpsertConvergence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	led, created, err := s.UpsertLedger(ctx, ledger.New("acme", "main", "usd"))
	if err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}
	if !created {
		t.Fatal("expected a fresh ledger")
	}

	// Second upsert with a different currency finds the stored row.
	again, created, err := s.UpsertLedger(ctx, ledger.New("acme", "main", "eur"))
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
	acctAgain, created, err := s.UpsertAccount(ctx, account.New(led.ID, "Cash", account.TypeAsset, ""))
	if err != nil || created || acctAgain.ID != acct.ID {
		t.Fatalf("re-upsert account: created=%v id=%s err=%v", created, acctAgain.ID, err)
	}
}

func TestSQLiteDocumentConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	led, _, err := s.UpsertLedger(ctx, ledger.New("acme", "main", "usd"))
	if err != nil {
		t.Fatalf("upsert ledger: %v", err)
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
	if docID <= 0 {
		t.Fatalf("document id = %d", docID)
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

	got, ok, err := s.GetDocumentID(ctx, led.ID, document.TypeInvoice, "INV-1")
	if err != nil || !ok || got != docID {
		t.Fatalf("lookup: id=%d ok=%v err=%v", got, ok, err)
	}
}

func TestSQLiteListRowsPaging(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	led, _, err := s.UpsertLedger(ctx, ledger.New("acme", "main", "usd"))
	if err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}
	acct, _, err := s.UpsertAccount(ctx, account.New(led.ID, "Cash", account.TypeAsset, ""))
	if err != nil {
		t.Fatalf("upsert account: %v", err)
	}

	base := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		txnID := id.NewTransactionID()
		rows := []*posting.Row{
			{
				Entity: types.NewEntity(), ID: id.NewRowID(), LedgerID: led.ID,
				TransactionID: txnID, Date: base.AddDate(0, 0, i), Currency: "usd",
				AccountID: acct.ID, Polarity: posting.Debit, Amount: 100,
			},
			{
				Entity: types.NewEntity(), ID: id.NewRowID(), LedgerID: led.ID,
				TransactionID: txnID, Date: base.AddDate(0, 0, i), Currency: "usd",
				AccountID: acct.ID, Polarity: posting.Credit, Amount: 100,
			},
		}
		if err := s.InsertRows(ctx, rows); err != nil {
			t.Fatalf("insert rows: %v", err)
		}
	}

	all, err := s.ListRows(ctx, led.ID, posting.ListOpts{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("list all returned %d rows", len(all))
	}

	// An offset with no limit pages through the remainder of the result.
	tail, err := s.ListRows(ctx, led.ID, posting.ListOpts{Offset: 8})
	if err != nil {
		t.Fatalf("offset without limit: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("offset without limit returned %d rows", len(tail))
	}

	page, err := s.ListRows(ctx, led.ID, posting.ListOpts{Limit: 3, Offset: 8})
	if err != nil {
		t.Fatalf("limit with offset: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("limit with offset returned %d rows", len(page))
	}

	// To is exclusive, so rows dated exactly To stay out of the range.
	to := base.AddDate(0, 0, 3)
	ranged, err := s.ListRows(ctx, led.ID, posting.ListOpts{From: base, To: to})
	if err != nil {
		t.Fatalf("date range: %v", err)
	}
	if len(ranged) != 6 {
		t.Fatalf("date range returned %d rows", len(ranged))
	}

	sum, err := s.SumAccount(ctx, led.ID, acct.ID)
	if err != nil || sum != 0 {
		t.Fatalf("sum = %d err=%v", sum, err)
	}
}
