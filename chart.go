package journal

import (
	"context"
	"fmt"

	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
)

// ChartOfAccounts resolves account names to stable account identities
// within one ledger. Obtain one from Journal.Accounts.
//
// Names are unique per ledger: the same name always resolves to the same
// account, including under concurrent provisioning from the posting path.
type ChartOfAccounts struct {
	journal *Journal
	led     *ledger.Ledger
}

// FindOrCreate returns the account id for name, creating the account on
// first use. Repeated and concurrent calls with the same name converge on
// one account; the type and currency only take effect on creation and are
// never used to rewrite an existing account.
func (c *ChartOfAccounts) FindOrCreate(ctx context.Context, name string, typ account.Type, currency string) (id.AccountID, error) {
	if name == "" {
		return id.Nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}
	if !typ.Valid() {
		return id.Nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, typ)
	}

	stored, created, err := c.journal.store.UpsertAccount(ctx, account.New(c.led.ID, name, typ, currency))
	if err != nil {
		return id.Nil, err
	}

	if created {
		c.journal.hooks.EmitAccountCreated(ctx, stored)
		c.journal.logger.Debug("account created",
			"ledger_id", c.led.ID.String(),
			"account_id", stored.ID.String(),
			"name", stored.Name,
			"type", string(stored.Type),
		)
	}

	return stored.ID, nil
}

// GetID is the strict lookup: it never creates, and an unknown name is an
// error that names the missing account.
func (c *ChartOfAccounts) GetID(ctx context.Context, name string) (id.AccountID, error) {
	acct, err := c.Get(ctx, name)
	if err != nil {
		return id.Nil, err
	}
	return acct.ID, nil
}

// Get returns the full account record for name, strictly.
func (c *ChartOfAccounts) Get(ctx context.Context, name string) (*account.Account, error) {
	acct, err := c.journal.store.GetAccountByName(ctx, c.led.ID, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, accountNotFoundError(name)
		}
		return nil, err
	}
	return acct, nil
}

// List returns every account in the ledger.
func (c *ChartOfAccounts) List(ctx context.Context) ([]*account.Account, error) {
	return c.journal.store.ListAccounts(ctx, c.led.ID)
}
