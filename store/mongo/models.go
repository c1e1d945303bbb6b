package mongo

import (
	"time"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	"github.com/bookkeep/journal/types"
)

type ledgerModel struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	Name      string    `bson:"name"`
	Currency  string    `bson:"currency"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toLedgerModel(led *ledger.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:        led.ID.String(),
		TenantID:  led.TenantID,
		Name:      led.Name,
		Currency:  led.Currency,
		CreatedAt: led.CreatedAt,
		UpdatedAt: led.UpdatedAt,
	}
}

func fromLedgerModel(m *ledgerModel) (*ledger.Ledger, error) {
	ledID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, err
	}
	return &ledger.Ledger{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       ledID,
		TenantID: m.TenantID,
		Name:     m.Name,
		Currency: m.Currency,
	}, nil
}

type accountModel struct {
	ID        string    `bson:"_id"`
	LedgerID  string    `bson:"ledger_id"`
	Name      string    `bson:"name"`
	Type      string    `bson:"type"`
	Currency  string    `bson:"currency"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toAccountModel(acct *account.Account) *accountModel {
	return &accountModel{
		ID:        acct.ID.String(),
		LedgerID:  acct.LedgerID.String(),
		Name:      acct.Name,
		Type:      string(acct.Type),
		Currency:  acct.Currency,
		CreatedAt: acct.CreatedAt,
		UpdatedAt: acct.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	acctID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	ledID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       acctID,
		LedgerID: ledID,
		Name:     m.Name,
		Type:     account.Type(m.Type),
		Currency: m.Currency,
	}, nil
}

type documentModel struct {
	ID        int64      `bson:"_id"`
	LedgerID  string     `bson:"ledger_id"`
	Type      string     `bson:"type"`
	Reference string     `bson:"reference"`
	PartyKind string     `bson:"party_kind"`
	PartyID   string     `bson:"party_id"`
	Date      time.Time  `bson:"date"`
	DueDate   *time.Time `bson:"due_date,omitempty"`
	Number    string     `bson:"number"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func toDocumentModel(doc *document.Document) *documentModel {
	m := &documentModel{
		ID:        doc.ID,
		LedgerID:  doc.LedgerID.String(),
		Type:      string(doc.Type),
		Reference: doc.Reference,
		PartyKind: string(doc.Party.Kind),
		PartyID:   doc.Party.ID,
		Date:      doc.Date,
		Number:    doc.Number,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.DueDate != nil {
		due := *doc.DueDate
		m.DueDate = &due
	}
	return m
}

func fromDocumentModel(m *documentModel) (*document.Document, error) {
	ledID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	doc := &document.Document{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        m.ID,
		LedgerID:  ledID,
		Type:      document.Type(m.Type),
		Reference: m.Reference,
		Party:     document.Party{Kind: document.PartyKind(m.PartyKind), ID: m.PartyID},
		Date:      m.Date,
		Number:    m.Number,
	}
	if m.DueDate != nil {
		due := *m.DueDate
		doc.DueDate = &due
	}
	return doc, nil
}

type rowModel struct {
	ID               string    `bson:"_id"`
	LedgerID         string    `bson:"ledger_id"`
	TransactionID    string    `bson:"transaction_id"`
	Date             time.Time `bson:"date"`
	Currency         string    `bson:"currency"`
	AccountID        string    `bson:"account_id"`
	Polarity         string    `bson:"polarity"`
	Amount           int64     `bson:"amount"`
	AmountInCurrency int64     `bson:"amount_in_currency"`
	PartyKind        string    `bson:"party_kind,omitempty"`
	PartyID          string    `bson:"party_id,omitempty"`
	DocumentID       int64     `bson:"document_id"`
	Description      string    `bson:"description"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toRowModel(r *posting.Row) *rowModel {
	m := &rowModel{
		ID:               r.ID.String(),
		LedgerID:         r.LedgerID.String(),
		TransactionID:    r.TransactionID.String(),
		Date:             r.Date,
		Currency:         r.Currency,
		AccountID:        r.AccountID.String(),
		Polarity:         string(r.Polarity),
		Amount:           r.Amount,
		AmountInCurrency: r.AmountInCurrency,
		DocumentID:       r.DocumentID,
		Description:      r.Description,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Party != nil {
		m.PartyKind = string(r.Party.Kind)
		m.PartyID = r.Party.ID
	}
	return m
}

func fromRowModel(m *rowModel) (*posting.Row, error) {
	rowID, err := id.ParseRowID(m.ID)
	if err != nil {
		return nil, err
	}
	ledID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	txnID, err := id.ParseTransactionID(m.TransactionID)
	if err != nil {
		return nil, err
	}
	acctID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	r := &posting.Row{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               rowID,
		LedgerID:         ledID,
		TransactionID:    txnID,
		Date:             m.Date,
		Currency:         m.Currency,
		AccountID:        acctID,
		Polarity:         posting.Polarity(m.Polarity),
		Amount:           m.Amount,
		AmountInCurrency: m.AmountInCurrency,
		DocumentID:       m.DocumentID,
		Description:      m.Description,
	}
	if m.PartyKind != "" {
		r.Party = &document.Party{Kind: document.PartyKind(m.PartyKind), ID: m.PartyID}
	}
	return r, nil
}
