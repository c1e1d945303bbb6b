package audithook

import (
	"context"
	"errors"
	"testing"

	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
)

func TestRecordsLedgerCreated(t *testing.T) {
	var events []*AuditEvent
	h := New(RecorderFunc(func(_ context.Context, evt *AuditEvent) error {
		events = append(events, evt)
		return nil
	}))

	led := ledger.New("acme", "main", "usd")
	if err := h.OnLedgerCreated(context.Background(), led); err != nil {
		t.Fatalf("OnLedgerCreated: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Action != ActionLedgerCreated {
		t.Errorf("action = %q", evt.Action)
	}
	if evt.ResourceID != led.ID.String() {
		t.Errorf("resource_id = %q", evt.ResourceID)
	}
	if evt.Metadata["tenant_id"] != "acme" {
		t.Errorf("tenant_id = %v", evt.Metadata["tenant_id"])
	}
}

func TestRejectionCarriesReason(t *testing.T) {
	var events []*AuditEvent
	h := New(RecorderFunc(func(_ context.Context, evt *AuditEvent) error {
		events = append(events, evt)
		return nil
	}))

	cause := errors.New("out of balance")
	txn := &posting.Transaction{Description: "bad txn"}
	if err := h.OnTransactionRejected(context.Background(), txn, cause); err != nil {
		t.Fatalf("OnTransactionRejected: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Outcome != OutcomeFailure {
		t.Errorf("outcome = %q", events[0].Outcome)
	}
	if events[0].Reason != "out of balance" {
		t.Errorf("reason = %q", events[0].Reason)
	}
}

func TestDisabledActionsAreSkipped(t *testing.T) {
	var events []*AuditEvent
	h := New(RecorderFunc(func(_ context.Context, evt *AuditEvent) error {
		events = append(events, evt)
		return nil
	}), WithDisabledActions(ActionTransactionPosted))

	if err := h.OnTransactionPosted(context.Background(), id.NewTransactionID(), nil); err != nil {
		t.Fatalf("OnTransactionPosted: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected disabled action to be skipped, got %d events", len(events))
	}

	if err := h.OnLedgerCreated(context.Background(), ledger.New("acme", "main", "usd")); err != nil {
		t.Fatalf("OnLedgerCreated: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected enabled action to record, got %d events", len(events))
	}
}

func TestRecorderErrorsAreSwallowed(t *testing.T) {
	h := New(RecorderFunc(func(_ context.Context, _ *AuditEvent) error {
		return errors.New("backend down")
	}))

	// A failing backend must never surface into the posting path.
	if err := h.OnLedgerCreated(context.Background(), ledger.New("acme", "main", "usd")); err != nil {
		t.Fatalf("expected recorder error to be swallowed, got %v", err)
	}
}
