package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAmountInvalid   = errors.New("loan amount must be positive")
	ErrLoanCustomerInvalid = errors.New("loan customer is required")
	ErrLoanInvestorInvalid = errors.New("loan investor is required")
	ErrLoanAlreadySettled  = errors.New("loan is already settled")
	ErrLoanNotSettled      = errors.New("loan is not settled")
	ErrBalanceMismatch     = errors.New("stored balance disagrees with payment journal")
)

// CycleInterestPercent is the flat interest charged on the outstanding
// balance per semi-monthly cycle. It does not compound and is not
// prorated by days.
var CycleInterestPercent = decimal.NewFromInt(5)

// PaymentMethod identifies how money moved
type PaymentMethod string

const (
	PaymentMethodTransferJ PaymentMethod = "TJ"
	PaymentMethodTransferM PaymentMethod = "TM"
	PaymentMethodTransfer  PaymentMethod = "T"
	PaymentMethodCash      PaymentMethod = "EFECTIVO"
)

// Valid reports whether the payment method is one of the known codes
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodTransferJ, PaymentMethodTransferM, PaymentMethodTransfer, PaymentMethodCash:
		return true
	}
	return false
}

type Loan struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     uuid.UUID       `json:"customerId"`
	InvestorID     uuid.UUID       `json:"investorId"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	LoanDate       time.Time       `json:"loanDate"`
	PaymentMethod  *PaymentMethod  `json:"paymentMethod,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	IsSettled      bool            `json:"isSettled"`
	SettledAt      *time.Time      `json:"settledAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (l *Loan) Validate() error {
	if l.CustomerID == uuid.Nil {
		return ErrLoanCustomerInvalid
	}
	if l.InvestorID == uuid.Nil {
		return ErrLoanInvestorInvalid
	}
	if l.OriginalAmount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanAmountInvalid
	}
	if l.PaymentMethod != nil && !l.PaymentMethod.Valid() {
		return ErrInvalidInput
	}
	return nil
}

// ApplyPayment reduces the balance by the capital component of a payment.
// Interest does not touch the balance. The balance is never clamped: an
// overpayment drives it negative and that is surfaced, not corrected.
func (l *Loan) ApplyPayment(p *Payment) {
	l.CurrentBalance = l.CurrentBalance.Sub(p.CapitalPaid)
}

// Settle marks the loan closed regardless of remaining balance. Settling
// is a business decision; a zero balance never settles automatically.
func (l *Loan) Settle(now time.Time) error {
	if l.IsSettled {
		return ErrLoanAlreadySettled
	}
	l.IsSettled = true
	l.SettledAt = &now
	return nil
}

// Reopen reverts a settled loan to active, clearing SettledAt. Balance
// and payment history are untouched.
func (l *Loan) Reopen() error {
	if !l.IsSettled {
		return ErrLoanNotSettled
	}
	l.IsSettled = false
	l.SettledAt = nil
	return nil
}

// ExpectedInterest is the flat 5% cycle charge on the outstanding
// balance, rounded to cents. Independent of loan age.
func (l *Loan) ExpectedInterest() decimal.Decimal {
	return ApplyPercent(l.CurrentBalance, CycleInterestPercent)
}

// RecomputeBalance folds the payment journal from scratch:
// originalAmount minus the sum of capitalPaid across payments.
func (l *Loan) RecomputeBalance(payments []*Payment) decimal.Decimal {
	balance := l.OriginalAmount
	for _, p := range payments {
		balance = balance.Sub(p.CapitalPaid)
	}
	return balance
}

// VerifyBalance checks the incrementally maintained balance against the
// journal fold. A mismatch means a journal mutation was missed and is
// surfaced as ErrBalanceMismatch, never silently repaired.
func (l *Loan) VerifyBalance(payments []*Payment) error {
	if !l.CurrentBalance.Equal(l.RecomputeBalance(payments)) {
		return ErrBalanceMismatch
	}
	return nil
}

// LoanWithStats is a loan joined with its payment history totals,
// the shape the listing endpoints return
type LoanWithStats struct {
	Loan
	CustomerName      string          `json:"customerName"`
	InvestorName      string          `json:"investorName"`
	TotalPaidInterest decimal.Decimal `json:"totalPaidInterest"`
	TotalPaidCapital  decimal.Decimal `json:"totalPaidCapital"`
}

// LoanFilter narrows loan listings
type LoanFilter struct {
	Search     string
	CustomerID *uuid.UUID
	InvestorID *uuid.UUID
	IsSettled  *bool
	Page       int
	PageSize   int
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	GetByID(id uuid.UUID) (*Loan, error)
	// GetByIDTx reads the loan inside tx and locks its row, serializing
	// concurrent journal mutations on the same loan.
	GetByIDTx(tx Tx, id uuid.UUID) (*Loan, error)
	List(filter LoanFilter) ([]*LoanWithStats, int, error)
	ListByInvestor(investorID uuid.UUID) ([]*Loan, error)
	ListByCustomer(customerID uuid.UUID) ([]*Loan, error)
	ListAll() ([]*Loan, error)
	Update(loan *Loan) (*Loan, error)
	UpdateBalance(id uuid.UUID, balance decimal.Decimal) error
	UpdateBalanceTx(tx Tx, id uuid.UUID, balance decimal.Decimal) error
	SetSettled(id uuid.UUID, settled bool, settledAt *time.Time) error
}
