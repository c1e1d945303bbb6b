package journal_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/bookkeep/journal"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/store/memory"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		j := journal.New(store,
			journal.WithLogger(slog.Default()),
		)

		ctx := context.Background()
		if err := j.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer j.Stop()

		led, err := j.FindOrCreateLedger(ctx, "acme", "main", "usd")
		if err != nil {
			t.Fatal(err)
		}

		txnID, err := j.Post(ctx, led, &journal.Transaction{
			Date:        time.Now(),
			Description: "Invoice INV-1001",
			Entries: []journal.Entry{
				{Account: "Accounts Receivable", Amount: journal.MustDebit(10000)},
				{Account: "Revenue", Amount: journal.MustCredit(10000)},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if txnID.IsNil() {
			t.Fatal("expected a transaction id")
		}

		bal, err := j.AccountBalance(ctx, led, "Accounts Receivable")
		if err != nil {
			t.Fatal(err)
		}
		if bal.Amount != 10000 {
			t.Fatalf("balance = %d, want 10000", bal.Amount)
		}
	})

	t.Run("DocumentExample", func(t *testing.T) {
		j := journal.New(memory.New())
		ctx := context.Background()
		if err := j.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer j.Stop()

		led, err := j.FindOrCreateLedger(ctx, "acme", "main", "usd")
		if err != nil {
			t.Fatal(err)
		}

		docs := j.Documents(led)
		docID, err := docs.Create(ctx, &document.Document{
			Type:      document.TypeInvoice,
			Reference: "INV-1001",
			Party:     document.Customer("cust_42"),
			Date:      time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if docID == 0 {
			t.Fatal("expected a document id")
		}
	})
}
