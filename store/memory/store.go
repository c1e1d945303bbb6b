// Package memory provides an in-process Store backed by maps. It is the
// reference backend used by the engine tests; production deployments use
// the postgres, sqlite, or mongo backends.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	journal "github.com/bookkeep/journal"
	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	"github.com/bookkeep/journal/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Ledger storage: by surrogate id, with a (tenant, name) index.
	ledgers     map[string]*ledger.Ledger
	ledgerByKey map[string]string

	// Account storage: by surrogate id, with a (ledger, name) index.
	accounts     map[string]*account.Account
	accountByKey map[string]string

	// Document storage: int64 ids from a local counter, with a
	// (ledger, type, reference) index.
	documents map[int64]*document.Document
	docByKey  map[string]int64
	nextDocID int64

	// Journal rows, append-only.
	rows []*posting.Row
}

func New() *Store {
	return &Store{
		ledgers:      make(map[string]*ledger.Ledger),
		ledgerByKey:  make(map[string]string),
		accounts:     make(map[string]*account.Account),
		accountByKey: make(map[string]string),
		documents:    make(map[int64]*document.Document),
		docByKey:     make(map[string]int64),
	}
}

func ledgerKey(tenantID, name string) string {
	return tenantID + "\x00" + name
}

func accountKey(ledgerID id.LedgerID, name string) string {
	return ledgerID.String() + "\x00" + name
}

func docKey(ledgerID id.LedgerID, typ document.Type, reference string) string {
	return strings.Join([]string{ledgerID.String(), string(typ), reference}, "\x00")
}

// Ledger Store implementation

func (s *Store) UpsertLedger(_ context.Context, led *ledger.Ledger) (*ledger.Ledger, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, journal.ErrStoreClosed
	}

	key := ledgerKey(led.TenantID, led.Name)
	if existingID, ok := s.ledgerByKey[key]; ok {
		return cloneLedger(s.ledgers[existingID]), false, nil
	}

	s.ledgers[led.ID.String()] = cloneLedger(led)
	s.ledgerByKey[key] = led.ID.String()
	return cloneLedger(led), true, nil
}

func (s *Store) GetLedger(_ context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if led, ok := s.ledgers[ledgerID.String()]; ok {
		return cloneLedger(led), nil
	}
	return nil, journal.ErrLedgerNotFound
}

func (s *Store) GetLedgerByName(_ context.Context, tenantID, name string) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ledID, ok := s.ledgerByKey[ledgerKey(tenantID, name)]; ok {
		return cloneLedger(s.ledgers[ledID]), nil
	}
	return nil, journal.ErrLedgerNotFound
}

// Account Store implementation

func (s *Store) UpsertAccount(_ context.Context, acct *account.Account) (*account.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, journal.ErrStoreClosed
	}

	key := accountKey(acct.LedgerID, acct.Name)
	if existingID, ok := s.accountByKey[key]; ok {
		return cloneAccount(s.accounts[existingID]), false, nil
	}

	s.accounts[acct.ID.String()] = cloneAccount(acct)
	s.accountByKey[key] = acct.ID.String()
	return cloneAccount(acct), true, nil
}

func (s *Store) GetAccount(_ context.Context, ledgerID id.LedgerID, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.accounts[accountID.String()]; ok && acct.LedgerID == ledgerID {
		return cloneAccount(acct), nil
	}
	return nil, journal.ErrNotFound
}

func (s *Store) GetAccountByName(_ context.Context, ledgerID id.LedgerID, name string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acctID, ok := s.accountByKey[accountKey(ledgerID, name)]; ok {
		return cloneAccount(s.accounts[acctID]), nil
	}
	return nil, journal.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0)
	for _, acct := range s.accounts {
		if acct.LedgerID == ledgerID {
			result = append(result, cloneAccount(acct))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Document Store implementation

func (s *Store) CreateDocument(_ context.Context, doc *document.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, journal.ErrStoreClosed
	}

	key := docKey(doc.LedgerID, doc.Type, doc.Reference)
	if _, exists := s.docByKey[key]; exists {
		return 0, journal.ErrDocumentExists
	}

	s.nextDocID++
	stored := cloneDocument(doc)
	stored.ID = s.nextDocID
	s.documents[stored.ID] = stored
	s.docByKey[key] = stored.ID
	return stored.ID, nil
}

func (s *Store) GetDocumentID(_ context.Context, ledgerID id.LedgerID, typ document.Type, reference string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if docID, ok := s.docByKey[docKey(ledgerID, typ, reference)]; ok {
		return docID, true, nil
	}
	return 0, false, nil
}

func (s *Store) GetDocument(_ context.Context, ledgerID id.LedgerID, docID int64) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.documents[docID]; ok && doc.LedgerID == ledgerID {
		return cloneDocument(doc), nil
	}
	return nil, journal.ErrDocumentNotFound
}

func (s *Store) UpdateDocument(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return journal.ErrStoreClosed
	}

	existing, ok := s.documents[doc.ID]
	if !ok || existing.LedgerID != doc.LedgerID {
		return journal.ErrDocumentNotFound
	}

	// Only the descriptive fields change; (type, reference) stay as stored.
	existing.Party = doc.Party
	existing.Date = doc.Date
	existing.Number = doc.Number
	if doc.DueDate != nil {
		due := *doc.DueDate
		existing.DueDate = &due
	} else {
		existing.DueDate = nil
	}
	existing.Touch()
	return nil
}

// Journal Store implementation

func (s *Store) InsertRows(_ context.Context, rows []*posting.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return journal.ErrStoreClosed
	}

	// Stage copies first so a failure cannot leave partial rows visible.
	staged := make([]*posting.Row, len(rows))
	for i, r := range rows {
		staged[i] = cloneRow(r)
	}
	s.rows = append(s.rows, staged...)
	return nil
}

func (s *Store) ListRows(_ context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*posting.Row, 0)
	for _, r := range s.rows {
		if r.LedgerID != ledgerID {
			continue
		}
		if !opts.AccountID.IsNil() && r.AccountID != opts.AccountID {
			continue
		}
		if !opts.TransactionID.IsNil() && r.TransactionID != opts.TransactionID {
			continue
		}
		if opts.DocumentID != 0 && r.DocumentID != opts.DocumentID {
			continue
		}
		if !opts.From.IsZero() && r.Date.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && !r.Date.Before(opts.To) {
			continue
		}
		result = append(result, cloneRow(r))
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (s *Store) SumAccount(_ context.Context, ledgerID id.LedgerID, accountID id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, r := range s.rows {
		if r.LedgerID == ledgerID && r.AccountID == accountID {
			total += r.Signed()
		}
	}
	return total, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return journal.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Clone helpers. Callers get copies so that nothing handed out can mutate
// stored state; journal rows in particular stay immutable once inserted.

func cloneLedger(led *ledger.Ledger) *ledger.Ledger {
	c := *led
	return &c
}

func cloneAccount(acct *account.Account) *account.Account {
	c := *acct
	return &c
}

func cloneDocument(doc *document.Document) *document.Document {
	c := *doc
	if doc.DueDate != nil {
		due := *doc.DueDate
		c.DueDate = &due
	}
	return &c
}

func cloneRow(r *posting.Row) *posting.Row {
	c := *r
	if r.Party != nil {
		p := *r.Party
		c.Party = &p
	}
	return &c
}
