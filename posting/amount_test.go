package posting

import (
	"strings"
	"testing"
	"time"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name       string
		build      func() (Amount, error)
		polarity   Polarity
		value      int64
		inCurrency int64
	}{
		{"Debit", func() (Amount, error) { return NewDebit(10000) }, Debit, 10000, 10000},
		{"Credit", func() (Amount, error) { return NewCredit(500) }, Credit, 500, 500},
		{"DebitIn", func() (Amount, error) { return NewDebitIn(10000, 9200) }, Debit, 10000, 9200},
		{"CreditIn", func() (Amount, error) { return NewCreditIn(10000, 9200) }, Credit, 10000, 9200},
		{"Zero debit", func() (Amount, error) { return NewDebit(0) }, Debit, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.build()
			if err != nil {
				t.Fatalf("constructor failed: %v", err)
			}
			if a.Polarity != tt.polarity {
				t.Errorf("Polarity: got %q, want %q", a.Polarity, tt.polarity)
			}
			if a.Value != tt.value {
				t.Errorf("Value: got %d, want %d", a.Value, tt.value)
			}
			if a.ValueInCurrency != tt.inCurrency {
				t.Errorf("ValueInCurrency: got %d, want %d", a.ValueInCurrency, tt.inCurrency)
			}
		})
	}
}

func TestAmountRejectsNegative(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Amount, error)
	}{
		{"Negative debit", func() (Amount, error) { return NewDebit(-1) }},
		{"Negative credit", func() (Amount, error) { return NewCredit(-500) }},
		{"Negative functional value", func() (Amount, error) { return NewDebitIn(-1, 100) }},
		{"Negative currency value", func() (Amount, error) { return NewCreditIn(100, -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), "cannot be negative") {
				t.Errorf("error %q does not mention \"cannot be negative\"", err.Error())
			}
		})
	}
}

func TestAmountSignedAndOpposite(t *testing.T) {
	d := MustDebit(250)
	c := MustCredit(250)

	if d.Signed() != 250 {
		t.Errorf("debit Signed: got %d, want 250", d.Signed())
	}
	if c.Signed() != -250 {
		t.Errorf("credit Signed: got %d, want -250", c.Signed())
	}

	od := d.Opposite()
	if !od.IsCredit() || od.Value != 250 || od.ValueInCurrency != 250 {
		t.Errorf("opposite of debit: got %+v", od)
	}
	if !od.Opposite().IsDebit() {
		t.Error("double opposite should restore polarity")
	}
}

func TestTransactionTotals(t *testing.T) {
	txn := &Transaction{
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Currency:    "usd",
		Description: "invoice issued",
		Entries: []Entry{
			{Account: "Accounts Receivable", Amount: MustDebit(10000)},
			{Account: "Revenue", Amount: MustCredit(10000)},
		},
	}

	debits, credits := txn.Totals()
	if debits != 10000 || credits != 10000 {
		t.Errorf("Totals: got debits=%d credits=%d", debits, credits)
	}
	if !txn.Balanced() {
		t.Error("expected balanced transaction")
	}

	txn.Entries[1].Amount = MustCredit(9000)
	if txn.Balanced() {
		t.Error("expected unbalanced transaction")
	}
}

func TestTransactionTotalsIgnoreCurrencyAmounts(t *testing.T) {
	// Functional-currency amounts balance even though the original
	// transaction-currency amounts differ.
	debit, err := NewDebitIn(10000, 9200)
	if err != nil {
		t.Fatal(err)
	}
	credit, err := NewCreditIn(10000, 9150)
	if err != nil {
		t.Fatal(err)
	}

	txn := &Transaction{
		Currency: "eur",
		Entries: []Entry{
			{Account: "Accounts Receivable", Amount: debit},
			{Account: "Revenue", Amount: credit},
		},
	}
	if !txn.Balanced() {
		t.Error("balance must be computed on functional-currency amounts")
	}
}

func TestTransactionReverse(t *testing.T) {
	txn := &Transaction{
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Currency:    "usd",
		Description: "invoice issued",
		Entries: []Entry{
			{Account: "Accounts Receivable", Amount: MustDebit(10000), DocumentID: 7},
			{Account: "Revenue", Amount: MustCredit(10000), DocumentID: 7},
		},
	}

	rev := txn.Reverse(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "reversal of invoice")
	if !rev.Balanced() {
		t.Fatal("reversal must balance")
	}
	if !rev.Entries[0].Amount.IsCredit() || !rev.Entries[1].Amount.IsDebit() {
		t.Error("reversal must flip polarities")
	}
	if rev.Entries[0].DocumentID != 7 {
		t.Error("reversal must keep document references")
	}
	if rev.Currency != "usd" {
		t.Error("reversal must keep the transaction currency")
	}
}
