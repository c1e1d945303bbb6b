// Package ledger defines the Ledger entity: a named, currency-scoped
// double-entry book of record for one tenant.
package ledger

import (
	"strings"

	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/types"
)

// Ledger is one tenant's book of record. The (TenantID, Name) pair is the
// durable external key; ID is the surrogate key journal rows reference.
// Currency is the functional currency: the double-entry invariant is checked
// in it, and it is never changed after creation.
type Ledger struct {
	types.Entity
	ID       id.LedgerID `json:"id"`
	TenantID string      `json:"tenant_id"`
	Name     string      `json:"name"`
	Currency string      `json:"currency"`
}

// New builds an unsaved Ledger with a fresh ID and normalized currency.
func New(tenantID, name, currency string) *Ledger {
	return &Ledger{
		Entity:   types.NewEntity(),
		ID:       id.NewLedgerID(),
		TenantID: tenantID,
		Name:     name,
		Currency: NormalizeCurrency(currency),
	}
}

// NormalizeCurrency lowercases an ISO 4217 code so that "USD" and "usd"
// name the same functional currency.
func NormalizeCurrency(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
