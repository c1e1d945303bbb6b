// Package document defines external business objects (invoices, bills,
// payments, credit notes) that journal rows reference via a stable
// internal identifier.
package document

import (
	"time"

	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/types"
)

// Type identifies the kind of business document.
type Type string

const (
	TypeInvoice    Type = "invoice"
	TypeBill       Type = "bill"
	TypePayment    Type = "payment"
	TypeCreditNote Type = "credit_note"
)

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	switch t {
	case TypeInvoice, TypeBill, TypePayment, TypeCreditNote:
		return true
	}
	return false
}

// PartyKind distinguishes the two counterparty variants.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartyVendor   PartyKind = "vendor"
)

// Party identifies the counterparty of a document or journal row. The ID is
// an opaque reference to an entity owned elsewhere; the journal core never
// validates its existence.
type Party struct {
	Kind PartyKind `json:"kind"`
	ID   string    `json:"id"`
}

// Customer builds a customer party reference.
func Customer(partyID string) Party {
	return Party{Kind: PartyCustomer, ID: partyID}
}

// Vendor builds a vendor party reference.
func Vendor(partyID string) Party {
	return Party{Kind: PartyVendor, ID: partyID}
}

// Valid reports whether the party has a known kind and a non-empty ID.
func (p Party) Valid() bool {
	return (p.Kind == PartyCustomer || p.Kind == PartyVendor) && p.ID != ""
}

// Document is an external business object participating in the ledger.
// The (LedgerID, Type, Reference) triple is the durable external key and is
// immutable once created; ID is the internal int64 surrogate that journal
// rows and downstream reports join on. Descriptive fields (Party, Date,
// DueDate, Number) may be updated in place without changing identity.
type Document struct {
	types.Entity
	ID        int64       `json:"id"`
	LedgerID  id.LedgerID `json:"ledger_id"`
	Type      Type        `json:"type"`
	Reference string      `json:"reference"`
	Party     Party       `json:"party"`
	Date      time.Time   `json:"date"`
	DueDate   *time.Time  `json:"due_date,omitempty"`
	Number    string      `json:"number,omitempty"`
}

// Key returns the human-readable external key, e.g. "invoice/INV-00001".
func (d *Document) Key() string {
	return string(d.Type) + "/" + d.Reference
}

// SameIdentity reports whether other names the same external document.
func (d *Document) SameIdentity(other *Document) bool {
	return d.Type == other.Type && d.Reference == other.Reference
}
