package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestPayment() *Payment {
	return &Payment{
		ID:           uuid.New(),
		LoanID:       uuid.New(),
		PaymentDate:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		InterestPaid: decimal.RequireFromString("50.00"),
		CapitalPaid:  decimal.RequireFromString("200.00"),
	}
}

func TestPaymentValidate(t *testing.T) {
	p := newTestPayment()
	if err := p.Validate(); err != nil {
		t.Fatalf("Expected valid payment, got %v", err)
	}

	// A zero loan ID is bad input, not a missing record
	p = newTestPayment()
	p.LoanID = uuid.Nil
	if err := p.Validate(); err != ErrPaymentLoanRequired {
		t.Errorf("Expected ErrPaymentLoanRequired, got %v", err)
	}

	p = newTestPayment()
	p.PaymentDate = time.Time{}
	if err := p.Validate(); err != ErrPaymentDateRequired {
		t.Errorf("Expected ErrPaymentDateRequired, got %v", err)
	}

	p = newTestPayment()
	p.CapitalPaid = decimal.RequireFromString("-1.00")
	if err := p.Validate(); err != ErrPaymentAmountsInvalid {
		t.Errorf("Expected ErrPaymentAmountsInvalid for negative capital, got %v", err)
	}

	// Both components zero carries no information
	p = newTestPayment()
	p.InterestPaid = decimal.Zero
	p.CapitalPaid = decimal.Zero
	if err := p.Validate(); err != ErrPaymentAmountsInvalid {
		t.Errorf("Expected ErrPaymentAmountsInvalid for zero payment, got %v", err)
	}

	// Interest-only and capital-only entries are both legitimate
	p = newTestPayment()
	p.CapitalPaid = decimal.Zero
	if err := p.Validate(); err != nil {
		t.Errorf("Interest-only payment must be valid, got %v", err)
	}
	p = newTestPayment()
	p.InterestPaid = decimal.Zero
	if err := p.Validate(); err != nil {
		t.Errorf("Capital-only payment must be valid, got %v", err)
	}

	p = newTestPayment()
	bad := PaymentMethod("WIRE")
	p.PaymentMethod = &bad
	if err := p.Validate(); err != ErrInvalidInput {
		t.Errorf("Expected ErrInvalidInput for unknown method, got %v", err)
	}
}

func TestPaymentTotalPaid(t *testing.T) {
	p := newTestPayment()
	if !p.TotalPaid().Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("Expected 250.00, got %s", p.TotalPaid().String())
	}
}
