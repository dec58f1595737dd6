package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentAmountsInvalid = errors.New("payment amounts must be non-negative and at least one positive")
	ErrPaymentDateRequired   = errors.New("payment date is required")
	ErrPaymentLoanRequired   = errors.New("payment loan is required")
)

// Payment is a journal entry against a loan. Entries are ordered by
// paymentDate then createdAt; insertion order is not authoritative.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	LoanID        uuid.UUID       `json:"loanId"`
	PaymentDate   time.Time       `json:"paymentDate"`
	InterestPaid  decimal.Decimal `json:"interestPaid"`
	CapitalPaid   decimal.Decimal `json:"capitalPaid"`
	PaymentMethod *PaymentMethod  `json:"paymentMethod,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (p *Payment) Validate() error {
	if p.LoanID == uuid.Nil {
		return ErrPaymentLoanRequired
	}
	if p.PaymentDate.IsZero() {
		return ErrPaymentDateRequired
	}
	if p.InterestPaid.IsNegative() || p.CapitalPaid.IsNegative() {
		return ErrPaymentAmountsInvalid
	}
	if p.InterestPaid.IsZero() && p.CapitalPaid.IsZero() {
		return ErrPaymentAmountsInvalid
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return ErrInvalidInput
	}
	return nil
}

// TotalPaid is the combined interest and capital of the entry
func (p *Payment) TotalPaid() decimal.Decimal {
	return p.InterestPaid.Add(p.CapitalPaid)
}

// PaymentWithNames joins a payment with its customer/investor names for listings
type PaymentWithNames struct {
	Payment
	CustomerName string `json:"customerName"`
	InvestorName string `json:"investorName"`
}

// PaymentFilter narrows payment listings. StartDate/EndDate window is
// inclusive on both ends against paymentDate.
type PaymentFilter struct {
	Search     string
	LoanID     *uuid.UUID
	CustomerID *uuid.UUID
	InvestorID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

type PaymentRepository interface {
	Create(payment *Payment) (*Payment, error)
	CreateTx(tx Tx, payment *Payment) (*Payment, error)
	GetByID(id uuid.UUID) (*Payment, error)
	List(filter PaymentFilter) ([]*PaymentWithNames, int, error)
	ListByLoan(loanID uuid.UUID) ([]*Payment, error)
	ListByLoanTx(tx Tx, loanID uuid.UUID) ([]*Payment, error)
	ListByInvestor(investorID uuid.UUID, start, end *time.Time) ([]*Payment, error)
	ListAll(start, end *time.Time) ([]*Payment, error)
	Update(payment *Payment) (*Payment, error)
	UpdateTx(tx Tx, payment *Payment) (*Payment, error)
	Delete(id uuid.UUID) error
	DeleteTx(tx Tx, id uuid.UUID) error
}
