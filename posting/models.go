package posting

import (
	"time"

	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/types"
)

// Entry is one line of a transaction. The account is named by its
// chart-of-accounts name and resolved to an AccountID at posting time.
// DocumentID is optional (0 = the line is not tied to any document, e.g. a
// bank fee); Party is an optional passthrough counterparty reference.
type Entry struct {
	Account     string          `json:"account"`
	AccountType string          `json:"account_type,omitempty"`
	Amount      Amount          `json:"amount"`
	Party       *document.Party `json:"party,omitempty"`
	DocumentID  int64           `json:"document_id,omitempty"`
}

// Transaction is a write-only posting instruction: it is consumed once by
// the engine and converted into immutable journal rows. It is never
// persisted or updated as an entity of its own.
type Transaction struct {
	Date        time.Time `json:"date"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	Entries     []Entry   `json:"entries"`
}

// Totals sums the functional-currency debit and credit amounts over the
// entries. The double-entry invariant is checked on these totals, never on
// the transaction-currency amounts.
func (t *Transaction) Totals() (debits, credits int64) {
	for _, e := range t.Entries {
		if e.Amount.IsDebit() {
			debits += e.Amount.Value
		} else {
			credits += e.Amount.Value
		}
	}
	return debits, credits
}

// Balanced reports whether total debits equal total credits.
func (t *Transaction) Balanced() bool {
	debits, credits := t.Totals()
	return debits == credits
}

// Reverse builds the correcting transaction: same accounts, documents, and
// magnitudes with every polarity flipped. Posting it undoes the original
// without mutating the journal.
func (t *Transaction) Reverse(date time.Time, description string) *Transaction {
	rev := &Transaction{
		Date:        date,
		Currency:    t.Currency,
		Description: description,
		Entries:     make([]Entry, len(t.Entries)),
	}
	for i, e := range t.Entries {
		rev.Entries[i] = Entry{
			Account:     e.Account,
			AccountType: e.AccountType,
			Amount:      e.Amount.Opposite(),
			Party:       e.Party,
			DocumentID:  e.DocumentID,
		}
	}
	return rev
}

// Row is one immutable journal row. All rows produced from one transaction
// share a TransactionID and become visible atomically. Rows are never
// updated or deleted; corrections are new reversing transactions.
type Row struct {
	types.Entity
	ID               id.RowID          `json:"id"`
	LedgerID         id.LedgerID       `json:"ledger_id"`
	TransactionID    id.TransactionID  `json:"transaction_id"`
	Date             time.Time         `json:"date"`
	Currency         string            `json:"currency"`
	AccountID        id.AccountID      `json:"account_id"`
	Polarity         Polarity          `json:"polarity"`
	Amount           int64             `json:"amount"`
	AmountInCurrency int64             `json:"amount_in_currency"`
	Party            *document.Party   `json:"party,omitempty"`
	DocumentID       int64             `json:"document_id,omitempty"`
	Description      string            `json:"description"`
}

// Signed returns the row amount signed by polarity (debit positive).
func (r *Row) Signed() int64 {
	if r.Polarity == Credit {
		return -r.Amount
	}
	return r.Amount
}

// ListOpts filters journal row queries. From is inclusive and To is
// exclusive, so [From, To) selects a half-open date range.
type ListOpts struct {
	AccountID     id.AccountID
	TransactionID id.TransactionID
	DocumentID    int64
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}
