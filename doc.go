// Package journal provides a multi-tenant double-entry bookkeeping engine
// for Go applications.
//
// Journal is designed as a library, not a service. Import it directly into
// your billing or accounting application. It provides:
//
//   - Balanced double-entry posting with atomic multi-row writes
//   - An append-only journal: corrections are reversing transactions
//   - On-demand account provisioning with stable per-ledger identity
//   - A document registry linking rows to invoices, bills, and payments
//   - Multi-currency entries alongside a single functional currency
//   - Pluggable storage: in-memory, PostgreSQL, SQLite, MongoDB
//   - Lifecycle hooks for audit trails and downstream projections
//
// # Quick Start
//
// Create a journal with your preferred store:
//
//	import (
//	    "github.com/bookkeep/journal"
//	    "github.com/bookkeep/journal/store/postgres"
//	)
//
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	j := journal.New(store)
//	if err := j.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer j.Stop()
//
// # Core Concepts
//
// A Ledger is one tenant's book in one functional currency. Ledgers are
// found or created idempotently:
//
//	led, err := j.FindOrCreateLedger(ctx, "acme", "main", "usd")
//
// Transactions are sets of debit and credit entries that must balance in
// the ledger's functional currency before any row is written:
//
//	txnID, err := j.Post(ctx, led, &journal.Transaction{
//	    Date:        time.Now(),
//	    Description: "Invoice INV-1001",
//	    Entries: []journal.Entry{
//	        {Account: "Accounts Receivable", Amount: journal.MustDebit(10000)},
//	        {Account: "Revenue", Amount: journal.MustCredit(10000)},
//	    },
//	})
//
// Balances are derived, never stored: summing an account's rows is the only
// source of truth.
//
//	bal, err := j.AccountBalance(ctx, led, "Accounts Receivable")
//
// Documents give rows a stable link to the business paperwork behind them:
//
//	docs := j.Documents(led)
//	docID, err := docs.Create(ctx, &document.Document{
//	    Type:      document.TypeInvoice,
//	    Reference: "INV-1001",
//	    Party:     document.Customer("cust_42"),
//	    Date:      time.Now(),
//	})
//
// # Precision
//
// All monetary values use integer arithmetic in the smallest currency unit
// (cents for USD, pence for GBP). There is no floating point anywhere in
// the posting path.
//
// # Storage
//
// Every backend implements store.Store. The memory store is the reference
// implementation and the default for tests; postgres, sqlite, and mongo
// provide the same semantics, including the atomic upserts the concurrency
// guarantees depend on.
package journal
