// Package audithook bridges journal lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/hook"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
)

// Compile-time interface checks.
var (
	_ hook.Hook                  = (*Hook)(nil)
	_ hook.OnLedgerCreated       = (*Hook)(nil)
	_ hook.OnAccountCreated      = (*Hook)(nil)
	_ hook.OnDocumentCreated     = (*Hook)(nil)
	_ hook.OnDocumentUpdated     = (*Hook)(nil)
	_ hook.OnTransactionPosted   = (*Hook)(nil)
	_ hook.OnTransactionRejected = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral representation of one audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Hook bridges journal lifecycle events to an audit trail backend.
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates a Hook that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// OnLedgerCreated implements hook.OnLedgerCreated.
func (h *Hook) OnLedgerCreated(ctx context.Context, led *ledger.Ledger) error {
	return h.record(ctx, ActionLedgerCreated, SeverityInfo, OutcomeSuccess,
		ResourceLedger, led.ID.String(), CategoryBookkeeping, nil,
		"tenant_id", led.TenantID,
		"name", led.Name,
		"currency", led.Currency,
	)
}

// OnAccountCreated implements hook.OnAccountCreated.
func (h *Hook) OnAccountCreated(ctx context.Context, acct *account.Account) error {
	return h.record(ctx, ActionAccountCreated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, acct.ID.String(), CategoryBookkeeping, nil,
		"ledger_id", acct.LedgerID.String(),
		"name", acct.Name,
		"type", string(acct.Type),
	)
}

// OnDocumentCreated implements hook.OnDocumentCreated.
func (h *Hook) OnDocumentCreated(ctx context.Context, doc *document.Document) error {
	return h.record(ctx, ActionDocumentCreated, SeverityInfo, OutcomeSuccess,
		ResourceDocument, fmt.Sprintf("%d", doc.ID), CategoryBookkeeping, nil,
		"ledger_id", doc.LedgerID.String(),
		"key", doc.Key(),
		"party_kind", string(doc.Party.Kind),
		"party_id", doc.Party.ID,
	)
}

// OnDocumentUpdated implements hook.OnDocumentUpdated.
func (h *Hook) OnDocumentUpdated(ctx context.Context, doc *document.Document) error {
	return h.record(ctx, ActionDocumentUpdated, SeverityInfo, OutcomeSuccess,
		ResourceDocument, fmt.Sprintf("%d", doc.ID), CategoryBookkeeping, nil,
		"ledger_id", doc.LedgerID.String(),
		"key", doc.Key(),
	)
}

// OnTransactionPosted implements hook.OnTransactionPosted.
func (h *Hook) OnTransactionPosted(ctx context.Context, txnID id.TransactionID, rows []*posting.Row) error {
	var debits int64
	for _, r := range rows {
		if r.Polarity == posting.Debit {
			debits += r.Amount
		}
	}

	kvPairs := []any{"row_count", len(rows), "total", debits}
	if len(rows) > 0 {
		kvPairs = append(kvPairs, "ledger_id", rows[0].LedgerID.String(), "currency", rows[0].Currency)
	}
	return h.record(ctx, ActionTransactionPosted, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txnID.String(), CategoryPosting, nil, kvPairs...)
}

// OnTransactionRejected implements hook.OnTransactionRejected.
func (h *Hook) OnTransactionRejected(ctx context.Context, txn *posting.Transaction, cause error) error {
	return h.record(ctx, ActionTransactionRejected, SeverityWarning, OutcomeFailure,
		ResourceTransaction, "", CategoryPosting, cause,
		"entry_count", len(txn.Entries),
		"description", txn.Description,
	)
}

// record builds and sends an audit event if the action is enabled.
func (h *Hook) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := h.recorder.Record(ctx, evt); recErr != nil {
		h.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
