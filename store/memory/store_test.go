package memory

import (
	"context"
	"errors"
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

func TestUpsertLedgerConverges(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := ledger.New("acme", "main", "usd")
	stored, created, err := s.UpsertLedger(ctx, first)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created || stored.ID != first.ID {
		t.Fatalf("expected first upsert to create, got created=%v id=%s", created, stored.ID)
	}

	second := ledger.New("acme", "main", "eur")
	stored, created, err = s.UpsertLedger(ctx, second)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created {
		t.Fatal("expected second upsert to find, not create")
	}
	if stored.ID != first.ID {
		t.Fatalf("expected the stored ledger, got %s", stored.ID)
	}
	if stored.Currency != "usd" {
		t.Fatalf("currency was overwritten: %s", stored.Currency)
	}
}

func TestUpsertAccountConverges(t *testing.T) {
	ctx := context.Background()
	s := New()

	led := ledger.New("acme", "main", "usd")
	if _, _, err := s.UpsertLedger(ctx, led); err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}

	first := account.New(led.ID, "Cash", account.TypeAsset, "")
	if _, created, err := s.UpsertAccount(ctx, first); err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	second := account.New(led.ID, "Cash", account.TypeExpense, "")
	stored, created, err := s.UpsertAccount(ctx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created || stored.ID != first.ID || stored.Type != account.TypeAsset {
		t.Fatalf("expected the stored account back, got created=%v id=%s type=%s",
			created, stored.ID, stored.Type)
	}
}

func TestDocumentIDsAreSequential(t *testing.T) {
	ctx := context.Background()
	s := New()

	led := ledger.New("acme", "main", "usd")
	if _, _, err := s.UpsertLedger(ctx, led); err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}

	newDoc := func(ref string) *document.Document {
		return &document.Document{
			Entity:    types.NewEntity(),
			LedgerID:  led.ID,
			Type:      document.TypeInvoice,
			Reference: ref,
			Party:     document.Customer("cust_1"),
			Date:      time.Now(),
		}
	}

	first, err := s.CreateDocument(ctx, newDoc("INV-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.CreateDocument(ctx, newDoc("INV-2"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second != first+1 {
		t.Fatalf("ids not sequential: %d then %d", first, second)
	}

	if _, err := s.CreateDocument(ctx, newDoc("INV-1")); !errors.Is(err, journal.ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists, got %v", err)
	}
}

func TestRowsAreIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	s := New()

	led := ledger.New("acme", "main", "usd")
	if _, _, err := s.UpsertLedger(ctx, led); err != nil {
		t.Fatalf("upsert ledger: %v", err)
	}
	acct := account.New(led.ID, "Cash", account.TypeAsset, "")
	if _, _, err := s.UpsertAccount(ctx, acct); err != nil {
		t.Fatalf("upsert account: %v", err)
	}

	row := &posting.Row{
		Entity:        types.NewEntity(),
		ID:            id.NewRowID(),
		LedgerID:      led.ID,
		TransactionID: id.NewTransactionID(),
		Date:          time.Now(),
		Currency:      "usd",
		AccountID:     acct.ID,
		Polarity:      posting.Debit,
		Amount:        100,
	}
	if err := s.InsertRows(ctx, []*posting.Row{row}); err != nil {
		t.Fatalf("insert rows: %v", err)
	}

	// Mutating the caller's row after insert must not affect stored state.
	row.Amount = 999999

	sum, err := s.SumAccount(ctx, led.ID, acct.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 100 {
		t.Fatalf("stored row was mutated: sum=%d", sum)
	}

	// Same for rows handed back from ListRows.
	listed, err := s.ListRows(ctx, led.ID, posting.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	listed[0].Amount = 5
	sum, _ = s.SumAccount(ctx, led.ID, acct.ID)
	if sum != 100 {
		t.Fatalf("listed row aliases stored state: sum=%d", sum)
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, _, err := s.UpsertLedger(ctx, ledger.New("acme", "main", "usd"))
	if !errors.Is(err, journal.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}
