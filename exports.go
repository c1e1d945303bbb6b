package journal

import (
	"github.com/bookkeep/journal/posting"
	"github.com/bookkeep/journal/types"
)

// Re-export common types for convenience so users don't have to import the
// types and posting packages for everyday posting code.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	JPY  = types.JPY
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// Transaction is re-exported from posting package.
type Transaction = posting.Transaction

// Entry is re-exported from posting package.
type Entry = posting.Entry

// Amount is re-exported from posting package.
type Amount = posting.Amount

// Re-export Amount constructors
var (
	NewDebit    = posting.NewDebit
	NewCredit   = posting.NewCredit
	NewDebitIn  = posting.NewDebitIn
	NewCreditIn = posting.NewCreditIn
	MustDebit   = posting.MustDebit
	MustCredit  = posting.MustCredit
)
