package journal

import (
	"context"
	"fmt"

	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/types"
)

// DocumentRegistry manages business documents (invoices, bills, payments,
// credit notes) within one ledger. Obtain one from Journal.Documents.
//
// Documents carry a surrogate int64 id that stays stable across updates, so
// journal rows referencing a document keep pointing at it as its mutable
// fields evolve. The (type, reference) pair is the immutable identity:
// callers look a document up by identity, then join rows by id.
type DocumentRegistry struct {
	journal *Journal
	led     *ledger.Ledger
}

// GetID looks up the surrogate id for the document identified by
// (typ, reference). The second return reports whether the document exists;
// the id is 0 when it does not.
func (r *DocumentRegistry) GetID(ctx context.Context, typ document.Type, reference string) (int64, bool, error) {
	return r.journal.store.GetDocumentID(ctx, r.led.ID, typ, reference)
}

// GetIDForDocument is GetID keyed by the document's own identity fields.
func (r *DocumentRegistry) GetIDForDocument(ctx context.Context, doc *document.Document) (int64, bool, error) {
	return r.GetID(ctx, doc.Type, doc.Reference)
}

// Create registers a new document and returns its surrogate id. The
// (type, reference) identity must be unused within the ledger.
func (r *DocumentRegistry) Create(ctx context.Context, doc *document.Document) (int64, error) {
	if err := r.validate(doc); err != nil {
		return 0, err
	}

	doc.LedgerID = r.led.ID
	if doc.CreatedAt.IsZero() {
		doc.Entity = types.NewEntity()
	}
	docID, err := r.journal.store.CreateDocument(ctx, doc)
	if err != nil {
		return 0, err
	}
	doc.ID = docID

	r.journal.hooks.EmitDocumentCreated(ctx, doc)
	r.journal.logger.Info("document created",
		"ledger_id", r.led.ID.String(),
		"document_id", docID,
		"key", doc.Key(),
	)

	return docID, nil
}

// Update replaces the mutable fields (party, date, due date, number) of an
// existing document. The (type, reference) identity is immutable: an update
// carrying a different identity for the same id is rejected, and the
// surrogate id never changes, so rows posted against the document before
// the update keep referencing it afterwards.
func (r *DocumentRegistry) Update(ctx context.Context, docID int64, doc *document.Document) error {
	if err := r.validate(doc); err != nil {
		return err
	}

	existing, err := r.journal.store.GetDocument(ctx, r.led.ID, docID)
	if err != nil {
		return err
	}
	if !existing.SameIdentity(doc) {
		return fmt.Errorf("%w: document %d is %s, not %s", ErrImmutableReference, docID, existing.Key(), doc.Key())
	}

	doc.ID = docID
	doc.LedgerID = r.led.ID
	doc.CreatedAt = existing.CreatedAt
	doc.Touch()
	if err := r.journal.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	r.journal.hooks.EmitDocumentUpdated(ctx, doc)
	r.journal.logger.Info("document updated",
		"ledger_id", r.led.ID.String(),
		"document_id", docID,
		"key", doc.Key(),
	)

	return nil
}

// Get returns the full document record by surrogate id.
func (r *DocumentRegistry) Get(ctx context.Context, docID int64) (*document.Document, error) {
	return r.journal.store.GetDocument(ctx, r.led.ID, docID)
}

func (r *DocumentRegistry) validate(doc *document.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is required", ErrInvalidInput)
	}
	if !doc.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrDocumentTypeInvalid, doc.Type)
	}
	if doc.Reference == "" {
		return fmt.Errorf("%w: document reference is required", ErrInvalidInput)
	}
	if !doc.Party.Valid() {
		return fmt.Errorf("%w: %q", ErrPartyKindInvalid, doc.Party.Kind)
	}
	if doc.Date.IsZero() {
		return fmt.Errorf("%w: document date is required", ErrInvalidInput)
	}
	return nil
}
