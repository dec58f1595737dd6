package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/websocket"
)

// PaymentService handles the payment journal. Every mutation and the
// balance re-derivation it triggers run in one transaction, with the
// loan row locked, so the stored balance can never drift from the
// entries or lose a concurrent write.
type PaymentService struct {
	tx          domain.TxBeginner
	paymentRepo domain.PaymentRepository
	loanRepo    domain.LoanRepository
	publisher   websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(tx domain.TxBeginner, paymentRepo domain.PaymentRepository, loanRepo domain.LoanRepository, publisher websocket.EventPublisher) *PaymentService {
	return &PaymentService{
		tx:          tx,
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		publisher:   publisher,
	}
}

// PaymentInput contains input for creating or updating a payment
type PaymentInput struct {
	LoanID        uuid.UUID
	PaymentDate   time.Time
	InterestPaid  decimal.Decimal
	CapitalPaid   decimal.Decimal
	PaymentMethod *domain.PaymentMethod
	Notes         *string
}

// CreatePayment appends a journal entry and re-derives the loan balance.
// Payments against settled loans are accepted; late money still counts.
func (s *PaymentService) CreatePayment(input PaymentInput) (*domain.Payment, error) {
	payment := &domain.Payment{
		LoanID:        input.LoanID,
		PaymentDate:   input.PaymentDate,
		InterestPaid:  input.InterestPaid,
		CapitalPaid:   input.CapitalPaid,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDTx(tx, input.LoanID)
	if err != nil {
		return nil, err
	}

	created, err := s.paymentRepo.CreateTx(tx, payment)
	if err != nil {
		return nil, err
	}
	if err := s.rederiveBalance(tx, loan); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publisher.Publish(websocket.PaymentCreated(created))
	return created, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(id uuid.UUID) (*domain.Payment, error) {
	return s.paymentRepo.GetByID(id)
}

// ListPayments retrieves payments with names, filtered and paginated
func (s *PaymentService) ListPayments(filter domain.PaymentFilter) ([]*domain.PaymentWithNames, int, error) {
	return s.paymentRepo.List(filter)
}

// ListLoanPayments retrieves a loan's journal in canonical order
func (s *PaymentService) ListLoanPayments(loanID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByLoan(loanID)
}

// UpdatePayment amends a journal entry and re-derives the loan balance.
// The entry stays on its original loan; moving money between loans is a
// delete plus a create.
func (s *PaymentService) UpdatePayment(id uuid.UUID, input PaymentInput) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	payment.PaymentDate = input.PaymentDate
	payment.InterestPaid = input.InterestPaid
	payment.CapitalPaid = input.CapitalPaid
	payment.PaymentMethod = input.PaymentMethod
	payment.Notes = input.Notes
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDTx(tx, payment.LoanID)
	if err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.UpdateTx(tx, payment)
	if err != nil {
		return nil, err
	}
	if err := s.rederiveBalance(tx, loan); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publisher.Publish(websocket.PaymentUpdated(updated))
	return updated, nil
}

// DeletePayment removes a journal entry and re-derives the loan balance
func (s *PaymentService) DeletePayment(id uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDTx(tx, payment.LoanID)
	if err != nil {
		return err
	}

	if err := s.paymentRepo.DeleteTx(tx, id); err != nil {
		return err
	}
	if err := s.rederiveBalance(tx, loan); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.publisher.Publish(websocket.PaymentDeleted(payment))
	return nil
}

// rederiveBalance folds the journal inside the mutation's transaction
// and persists the resulting balance
func (s *PaymentService) rederiveBalance(tx domain.Tx, loan *domain.Loan) error {
	payments, err := s.paymentRepo.ListByLoanTx(tx, loan.ID)
	if err != nil {
		return err
	}

	balance := loan.RecomputeBalance(payments)
	if balance.Equal(loan.CurrentBalance) {
		return nil
	}
	return s.loanRepo.UpdateBalanceTx(tx, loan.ID, balance)
}
