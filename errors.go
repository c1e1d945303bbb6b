package journal

import (
	"errors"
	"fmt"

	"github.com/bookkeep/journal/posting"
)

// Sentinel errors for common failure scenarios. The exact message text of
// the validation and lookup errors is part of the public contract: callers
// migrating from the original posting engine match on these substrings.
var (
	// General errors
	ErrNotFound      = errors.New("journal: not found")
	ErrAlreadyExists = errors.New("journal: already exists")
	ErrInvalidInput  = errors.New("journal: invalid input")

	// Ledger errors
	ErrLedgerNotFound = errors.New("journal: ledger not found")

	// Account errors
	ErrAccountNotFound = errors.New("journal: Account does not exist")

	// Document errors
	ErrDocumentNotFound    = errors.New("journal: document not found")
	ErrDocumentExists      = errors.New("journal: document already exists")
	ErrImmutableReference  = errors.New("journal: document type and reference are immutable")
	ErrPartyKindInvalid    = errors.New("journal: party must be a customer or a vendor")
	ErrDocumentTypeInvalid = errors.New("journal: unknown document type")

	// Posting errors
	ErrEmptyTransaction = errors.New("journal: Transaction has no entries")
	ErrOutOfBalance     = errors.New("journal: Transaction out of balance")

	// Store errors
	ErrStoreClosed       = errors.New("journal: store is closed")
	ErrTransactionFailed = errors.New("journal: storage transaction failed")
	ErrMigrationFailed   = errors.New("journal: migration failed")
)

// ErrNegativeAmount is re-exported from the posting package, where the
// Debit/Credit constructors raise it.
var ErrNegativeAmount = posting.ErrNegativeAmount

// accountNotFoundError wraps ErrAccountNotFound with the requested name,
// producing "journal: Account does not exist: <name>".
func accountNotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}

// outOfBalanceError wraps ErrOutOfBalance with both totals, producing
// "journal: Transaction out of balance: debits=<d>, credits=<c>".
func outOfBalanceError(debits, credits int64) error {
	return fmt.Errorf("%w: debits=%d, credits=%d", ErrOutOfBalance, debits, credits)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLedgerNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrDocumentNotFound)
}

// IsConflict returns true if the error reports a unique-key conflict or an
// attempt to change an immutable identity field.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrDocumentExists) ||
		errors.Is(err, ErrImmutableReference)
}

// IsValidation returns true if the error was raised before any storage
// access: malformed amounts, empty or unbalanced transactions.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrEmptyTransaction) ||
		errors.Is(err, ErrOutOfBalance)
}
