package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestLoan(amount string) *Loan {
	amt, _ := decimal.NewFromString(amount)
	return &Loan{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		InvestorID:     uuid.New(),
		OriginalAmount: amt,
		CurrentBalance: amt,
		LoanDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Now(),
	}
}

func TestLoanValidate(t *testing.T) {
	loan := newTestLoan("1000.00")
	if err := loan.Validate(); err != nil {
		t.Fatalf("Expected valid loan, got %v", err)
	}

	loan.OriginalAmount = decimal.Zero
	if err := loan.Validate(); err != ErrLoanAmountInvalid {
		t.Errorf("Expected ErrLoanAmountInvalid, got %v", err)
	}

	loan = newTestLoan("1000.00")
	loan.CustomerID = uuid.Nil
	if err := loan.Validate(); err != ErrLoanCustomerInvalid {
		t.Errorf("Expected ErrLoanCustomerInvalid, got %v", err)
	}
}

func TestApplyPayment_ReducesBalanceByCapitalOnly(t *testing.T) {
	// Loan 10000.00, payment capital 2500.00 + interest 500.00:
	// balance 7500.00, expected interest 375.00 (5% of 7500)
	loan := newTestLoan("10000.00")
	payment := &Payment{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		PaymentDate:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid:  decimal.RequireFromString("2500.00"),
		InterestPaid: decimal.RequireFromString("500.00"),
	}

	loan.ApplyPayment(payment)

	if !loan.CurrentBalance.Equal(decimal.RequireFromString("7500.00")) {
		t.Errorf("Expected balance 7500.00, got %s", loan.CurrentBalance.String())
	}
	if !loan.ExpectedInterest().Equal(decimal.RequireFromString("375.00")) {
		t.Errorf("Expected interest 375.00, got %s", loan.ExpectedInterest().String())
	}
}

func TestApplyPayment_AllowsNegativeBalance(t *testing.T) {
	loan := newTestLoan("100.00")
	loan.ApplyPayment(&Payment{CapitalPaid: decimal.RequireFromString("150.00")})

	if !loan.CurrentBalance.Equal(decimal.RequireFromString("-50.00")) {
		t.Errorf("Overpayment must drive balance negative, got %s", loan.CurrentBalance.String())
	}
}

func TestExpectedInterest_RoundsHalfUp(t *testing.T) {
	loan := newTestLoan("100.10")
	// 5% of 100.10 = 5.005 -> 5.01
	if got := loan.ExpectedInterest(); !got.Equal(decimal.RequireFromString("5.01")) {
		t.Errorf("Expected 5.01, got %s", got.String())
	}
}

func TestSettleAndReopen(t *testing.T) {
	loan := newTestLoan("1000.00")
	loan.ApplyPayment(&Payment{CapitalPaid: decimal.RequireFromString("400.00")})
	balanceBefore := loan.CurrentBalance

	now := time.Now()
	if err := loan.Settle(now); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if !loan.IsSettled || loan.SettledAt == nil {
		t.Fatal("Expected settled loan with settledAt set")
	}

	// Settling twice is an invalid transition
	if err := loan.Settle(now); err != ErrLoanAlreadySettled {
		t.Errorf("Expected ErrLoanAlreadySettled, got %v", err)
	}

	if err := loan.Reopen(); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if loan.IsSettled || loan.SettledAt != nil {
		t.Fatal("Expected active loan with settledAt cleared")
	}
	if !loan.CurrentBalance.Equal(balanceBefore) {
		t.Errorf("Settle/reopen must leave balance unchanged, got %s", loan.CurrentBalance.String())
	}

	// Reopening an active loan is an invalid transition
	if err := loan.Reopen(); err != ErrLoanNotSettled {
		t.Errorf("Expected ErrLoanNotSettled, got %v", err)
	}
}

func TestSettleWithNonzeroBalance(t *testing.T) {
	// Settling is a business decision independent of balance
	loan := newTestLoan("1000.00")

	if err := loan.Settle(time.Now()); err != nil {
		t.Fatalf("Settle with nonzero balance must succeed: %v", err)
	}
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("Balance must be untouched by settle, got %s", loan.CurrentBalance.String())
	}
}

func TestRecomputeBalance_FoldsJournal(t *testing.T) {
	loan := newTestLoan("10000.00")
	payments := []*Payment{
		{CapitalPaid: decimal.RequireFromString("2500.00"), InterestPaid: decimal.RequireFromString("500.00")},
		{CapitalPaid: decimal.RequireFromString("1000.00")},
		{InterestPaid: decimal.RequireFromString("375.00")}, // interest-only, no balance effect
	}

	got := loan.RecomputeBalance(payments)
	if !got.Equal(decimal.RequireFromString("6500.00")) {
		t.Errorf("Expected 6500.00, got %s", got.String())
	}

	// Idempotent: a second fold over the same journal agrees
	if !loan.RecomputeBalance(payments).Equal(got) {
		t.Error("Recompute must be idempotent")
	}
}

func TestVerifyBalance(t *testing.T) {
	loan := newTestLoan("1000.00")
	payments := []*Payment{{CapitalPaid: decimal.RequireFromString("300.00")}}
	loan.ApplyPayment(payments[0])

	if err := loan.VerifyBalance(payments); err != nil {
		t.Fatalf("Expected consistent balance, got %v", err)
	}

	// A missed journal notification is a fatal integrity signal
	loan.CurrentBalance = decimal.RequireFromString("999.00")
	if err := loan.VerifyBalance(payments); err != ErrBalanceMismatch {
		t.Errorf("Expected ErrBalanceMismatch, got %v", err)
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodTransferJ, PaymentMethodTransferM, PaymentMethodTransfer, PaymentMethodCash} {
		if !m.Valid() {
			t.Errorf("Expected %s to be valid", m)
		}
	}
	if PaymentMethod("CHEQUE").Valid() {
		t.Error("Unknown method must be invalid")
	}
}
