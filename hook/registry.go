package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
)

// callTimeout bounds a single hook invocation. Hooks should never block
// the posting pipeline.
const callTimeout = 5 * time.Second

// Registry manages all registered hooks and provides efficient dispatch.
// Interfaces are sniffed once at registration so emission never reflects.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	onInit                []OnInit
	onShutdown            []OnShutdown
	onLedgerCreated       []OnLedgerCreated
	onAccountCreated      []OnAccountCreated
	onDocumentCreated     []OnDocumentCreated
	onDocumentUpdated     []OnDocumentUpdated
	onTransactionPosted   []OnTransactionPosted
	onTransactionRejected []OnTransactionRejected
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
// Registering two hooks with the same name is an error.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hook: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	if v, ok := h.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := h.(OnLedgerCreated); ok {
		r.onLedgerCreated = append(r.onLedgerCreated, v)
	}
	if v, ok := h.(OnAccountCreated); ok {
		r.onAccountCreated = append(r.onAccountCreated, v)
	}
	if v, ok := h.(OnDocumentCreated); ok {
		r.onDocumentCreated = append(r.onDocumentCreated, v)
	}
	if v, ok := h.(OnDocumentUpdated); ok {
		r.onDocumentUpdated = append(r.onDocumentUpdated, v)
	}
	if v, ok := h.(OnTransactionPosted); ok {
		r.onTransactionPosted = append(r.onTransactionPosted, v)
	}
	if v, ok := h.(OnTransactionRejected); ok {
		r.onTransactionRejected = append(r.onTransactionRejected, v)
	}

	r.logger.Info("hook registered", "name", h.Name())

	return nil
}

// Get returns a hook by name, or nil.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// List returns all registered hooks.
func (r *Registry) List() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Hook, len(r.hooks))
	copy(result, r.hooks)
	return result
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all hooks that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("hook OnInit failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all hooks that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("hook OnShutdown failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitLedgerCreated emits a ledger created event.
func (r *Registry) EmitLedgerCreated(ctx context.Context, led *ledger.Ledger) {
	r.mu.RLock()
	hooks := r.onLedgerCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnLedgerCreated(ctx, led)
		}); err != nil {
			r.logger.Warn("hook OnLedgerCreated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccountCreated emits an account created event.
func (r *Registry) EmitAccountCreated(ctx context.Context, acct *account.Account) {
	r.mu.RLock()
	hooks := r.onAccountCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnAccountCreated(ctx, acct)
		}); err != nil {
			r.logger.Warn("hook OnAccountCreated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitDocumentCreated emits a document created event.
func (r *Registry) EmitDocumentCreated(ctx context.Context, doc *document.Document) {
	r.mu.RLock()
	hooks := r.onDocumentCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDocumentCreated(ctx, doc)
		}); err != nil {
			r.logger.Warn("hook OnDocumentCreated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitDocumentUpdated emits a document updated event.
func (r *Registry) EmitDocumentUpdated(ctx context.Context, doc *document.Document) {
	r.mu.RLock()
	hooks := r.onDocumentUpdated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDocumentUpdated(ctx, doc)
		}); err != nil {
			r.logger.Warn("hook OnDocumentUpdated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionPosted emits a transaction posted event.
func (r *Registry) EmitTransactionPosted(ctx context.Context, txnID id.TransactionID, rows []*posting.Row) {
	r.mu.RLock()
	hooks := r.onTransactionPosted
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnTransactionPosted(ctx, txnID, rows)
		}); err != nil {
			r.logger.Warn("hook OnTransactionPosted failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionRejected emits a transaction rejected event.
func (r *Registry) EmitTransactionRejected(ctx context.Context, txn *posting.Transaction, cause error) {
	r.mu.RLock()
	hooks := r.onTransactionRejected
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnTransactionRejected(ctx, txn, cause)
		}); err != nil {
			r.logger.Warn("hook OnTransactionRejected failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a hook function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, hookName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(callTimeout):
		return fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
