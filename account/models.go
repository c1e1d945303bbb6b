// Package account defines the Account entity for a ledger's chart of accounts.
package account

import (
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/types"
)

// Type classifies an account for reporting purposes.
type Type string

const (
	TypeAsset     Type = "asset"
	TypeLiability Type = "liability"
	TypeEquity    Type = "equity"
	TypeRevenue   Type = "revenue"
	TypeExpense   Type = "expense"
)

// Valid reports whether t is one of the five account types.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// Account is a named account within one ledger. The (LedgerID, Name) pair is
// unique; the ID is stable for the lifetime of the ledger. Currency may be
// empty, meaning the account accepts postings in any currency.
// Accounts are never deleted or renamed.
type Account struct {
	types.Entity
	ID       id.AccountID `json:"id"`
	LedgerID id.LedgerID  `json:"ledger_id"`
	Name     string       `json:"name"`
	Type     Type         `json:"type"`
	Currency string       `json:"currency,omitempty"`
}

// New builds an unsaved Account with a fresh ID.
func New(ledgerID id.LedgerID, name string, typ Type, currency string) *Account {
	return &Account{
		Entity:   types.NewEntity(),
		ID:       id.NewAccountID(),
		LedgerID: ledgerID,
		Name:     name,
		Type:     typ,
		Currency: currency,
	}
}
