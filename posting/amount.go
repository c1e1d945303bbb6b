// Package posting defines the write-side value types of the journal:
// debit/credit amounts, transactions, and the immutable rows a posted
// transaction produces.
package posting

import (
	"errors"
	"fmt"

	"github.com/bookkeep/journal/types"
)

// Polarity encodes the direction of an amount. Direction is always carried
// here, never by the sign of the amount itself.
type Polarity string

const (
	Debit  Polarity = "debit"
	Credit Polarity = "credit"
)

// Valid reports whether p is one of the two polarities.
func (p Polarity) Valid() bool {
	return p == Debit || p == Credit
}

// ErrNegativeAmount is returned by the Amount constructors when either the
// functional-currency value or the transaction-currency value is below zero.
var ErrNegativeAmount = errors.New("posting: amount cannot be negative")

// Amount is an immutable monetary quantity on one side of a double entry.
// Value is in minor units of the ledger's functional currency; ValueInCurrency
// is the original transaction-currency amount, kept for audit and
// reconciliation. When the transaction currency equals the functional
// currency the two are the same.
type Amount struct {
	Polarity        Polarity `json:"polarity"`
	Value           int64    `json:"amount"`
	ValueInCurrency int64    `json:"amount_in_currency"`
}

func newAmount(p Polarity, value, inCurrency int64) (Amount, error) {
	if value < 0 {
		return Amount{}, fmt.Errorf("%w: %d", ErrNegativeAmount, value)
	}
	if inCurrency < 0 {
		return Amount{}, fmt.Errorf("%w: %d", ErrNegativeAmount, inCurrency)
	}
	return Amount{Polarity: p, Value: value, ValueInCurrency: inCurrency}, nil
}

// NewDebit builds a debit amount whose transaction-currency value equals its
// functional-currency value.
func NewDebit(value int64) (Amount, error) {
	return newAmount(Debit, value, value)
}

// NewCredit builds a credit amount whose transaction-currency value equals
// its functional-currency value.
func NewCredit(value int64) (Amount, error) {
	return newAmount(Credit, value, value)
}

// NewDebitIn builds a debit with distinct functional-currency and
// transaction-currency values, for postings in a foreign currency.
func NewDebitIn(value, inCurrency int64) (Amount, error) {
	return newAmount(Debit, value, inCurrency)
}

// NewCreditIn builds a credit with distinct functional-currency and
// transaction-currency values.
func NewCreditIn(value, inCurrency int64) (Amount, error) {
	return newAmount(Credit, value, inCurrency)
}

// MustDebit is like NewDebit but panics on error. Use for hardcoded values.
func MustDebit(value int64) Amount {
	a, err := NewDebit(value)
	if err != nil {
		panic(err)
	}
	return a
}

// MustCredit is like NewCredit but panics on error.
func MustCredit(value int64) Amount {
	a, err := NewCredit(value)
	if err != nil {
		panic(err)
	}
	return a
}

// IsDebit reports whether the amount sits on the debit side.
func (a Amount) IsDebit() bool { return a.Polarity == Debit }

// IsCredit reports whether the amount sits on the credit side.
func (a Amount) IsCredit() bool { return a.Polarity == Credit }

// Money returns the functional-currency value as a Money in the given
// currency.
func (a Amount) Money(currency string) types.Money {
	return types.New(a.Value, currency)
}

// Signed returns the functional-currency value signed by polarity:
// positive for debits, negative for credits. Used when deriving balances.
func (a Amount) Signed() int64 {
	if a.IsCredit() {
		return -a.Value
	}
	return a.Value
}

// Opposite returns the same magnitudes with the polarity flipped. Reversing
// transactions are built from opposites of the original entries.
func (a Amount) Opposite() Amount {
	p := Debit
	if a.IsDebit() {
		p = Credit
	}
	return Amount{Polarity: p, Value: a.Value, ValueInCurrency: a.ValueInCurrency}
}
