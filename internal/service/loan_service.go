package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/util"
	"github.com/quincena/quincena-backend/internal/websocket"
)

// LoanService handles loan ledger business logic
type LoanService struct {
	loanRepo     domain.LoanRepository
	paymentRepo  domain.PaymentRepository
	customerRepo domain.CustomerRepository
	investorRepo domain.InvestorRepository
	publisher    websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(
	loanRepo domain.LoanRepository,
	paymentRepo domain.PaymentRepository,
	customerRepo domain.CustomerRepository,
	investorRepo domain.InvestorRepository,
	publisher websocket.EventPublisher,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		investorRepo: investorRepo,
		publisher:    publisher,
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	CustomerID     uuid.UUID
	InvestorID     uuid.UUID
	OriginalAmount decimal.Decimal
	LoanDate       time.Time
	PaymentMethod  *domain.PaymentMethod
	Notes          *string
}

// UpdateLoanInput contains the editable loan fields. Amounts are not
// editable after creation; corrections go through the payment journal.
type UpdateLoanInput struct {
	LoanDate      time.Time
	PaymentMethod *domain.PaymentMethod
	Notes         *string
}

// CreateLoan creates a new loan with the balance opened at the full amount
func (s *LoanService) CreateLoan(input CreateLoanInput) (*domain.Loan, error) {
	if _, err := s.customerRepo.GetByID(input.CustomerID); err != nil {
		if err == domain.ErrCustomerNotFound {
			return nil, domain.ErrLoanCustomerInvalid
		}
		return nil, err
	}
	if _, err := s.investorRepo.GetByID(input.InvestorID); err != nil {
		if err == domain.ErrInvestorNotFound {
			return nil, domain.ErrLoanInvestorInvalid
		}
		return nil, err
	}

	loanDate := input.LoanDate
	if loanDate.IsZero() {
		loanDate = time.Now()
	}

	loan := &domain.Loan{
		CustomerID:     input.CustomerID,
		InvestorID:     input.InvestorID,
		OriginalAmount: input.OriginalAmount,
		CurrentBalance: input.OriginalAmount,
		LoanDate:       loanDate,
		PaymentMethod:  input.PaymentMethod,
		Notes:          input.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	created, err := s.loanRepo.Create(loan)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.LoanCreated(created))
	return created, nil
}

// LoanDetail is a loan with its journal and derived figures
type LoanDetail struct {
	Loan             *domain.Loan      `json:"loan"`
	Payments         []*domain.Payment `json:"payments"`
	ExpectedInterest decimal.Decimal   `json:"expectedInterest"`
	TotalInterest    decimal.Decimal   `json:"totalInterest"`
	TotalCapital     decimal.Decimal   `json:"totalCapital"`
	CurrentCycle     util.Cycle        `json:"currentCycle"`
}

// GetLoan retrieves a loan with its payment journal and derived figures
func (s *LoanService) GetLoan(id uuid.UUID) (*LoanDetail, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByLoan(id)
	if err != nil {
		return nil, err
	}

	// A stored balance that disagrees with the journal fold means a
	// mutation bypassed the transactional write path. Surface it, do
	// not repair it.
	if err := loan.VerifyBalance(payments); err != nil {
		log.Error().
			Str("loan_id", loan.ID.String()).
			Str("stored_balance", loan.CurrentBalance.String()).
			Msg("stored balance disagrees with payment journal")
		return nil, err
	}

	totalInterest := decimal.Zero
	totalCapital := decimal.Zero
	for _, p := range payments {
		totalInterest = totalInterest.Add(p.InterestPaid)
		totalCapital = totalCapital.Add(p.CapitalPaid)
	}

	return &LoanDetail{
		Loan:             loan,
		Payments:         payments,
		ExpectedInterest: loan.ExpectedInterest(),
		TotalInterest:    totalInterest,
		TotalCapital:     totalCapital,
		CurrentCycle:     util.CycleFor(time.Now().UTC()),
	}, nil
}

// ListLoans retrieves loans with names and payment totals
func (s *LoanService) ListLoans(filter domain.LoanFilter) ([]*domain.LoanWithStats, int, error) {
	return s.loanRepo.List(filter)
}

// UpdateLoan updates a loan's editable fields
func (s *LoanService) UpdateLoan(id uuid.UUID, input UpdateLoanInput) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !input.LoanDate.IsZero() {
		loan.LoanDate = input.LoanDate
	}
	loan.PaymentMethod = input.PaymentMethod
	loan.Notes = input.Notes
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.loanRepo.Update(loan)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.LoanUpdated(updated))
	return updated, nil
}

// SettleLoan marks a loan settled. The remaining balance stays as is,
// zero or not; settling two loans of the same customer requires two calls.
func (s *LoanService) SettleLoan(id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := loan.Settle(now); err != nil {
		return nil, err
	}
	if err := s.loanRepo.SetSettled(id, true, loan.SettledAt); err != nil {
		return nil, err
	}

	s.publisher.Publish(websocket.LoanSettled(loan))
	return loan, nil
}

// ReopenLoan reverts a settled loan to active
func (s *LoanService) ReopenLoan(id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := loan.Reopen(); err != nil {
		return nil, err
	}
	if err := s.loanRepo.SetSettled(id, false, nil); err != nil {
		return nil, err
	}

	s.publisher.Publish(websocket.LoanReopened(loan))
	return loan, nil
}

// RecomputeBalance folds the loan's journal from scratch and persists
// the result. Used after any journal mutation and as a consistency
// repair when the stored balance drifted.
func (s *LoanService) RecomputeBalance(id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByLoan(id)
	if err != nil {
		return nil, err
	}

	balance := loan.RecomputeBalance(payments)
	if !balance.Equal(loan.CurrentBalance) {
		if err := s.loanRepo.UpdateBalance(id, balance); err != nil {
			return nil, err
		}
		loan.CurrentBalance = balance
	}
	return loan, nil
}
