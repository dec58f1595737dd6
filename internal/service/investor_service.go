package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/websocket"
)

// InvestorService handles investor business logic
type InvestorService struct {
	investorRepo domain.InvestorRepository
	loanRepo     domain.LoanRepository
	publisher    websocket.EventPublisher
}

// NewInvestorService creates a new InvestorService
func NewInvestorService(investorRepo domain.InvestorRepository, loanRepo domain.LoanRepository, publisher websocket.EventPublisher) *InvestorService {
	return &InvestorService{
		investorRepo: investorRepo,
		loanRepo:     loanRepo,
		publisher:    publisher,
	}
}

// InvestorInput contains input for creating or updating an investor
type InvestorInput struct {
	Name             string
	ProfitPercentage decimal.Decimal
	IsActive         *bool
}

// CreateInvestor creates a new investor, active by default
func (s *InvestorService) CreateInvestor(input InvestorInput) (*domain.Investor, error) {
	investor := &domain.Investor{
		Name:             strings.TrimSpace(input.Name),
		ProfitPercentage: input.ProfitPercentage,
		IsActive:         true,
	}
	if input.IsActive != nil {
		investor.IsActive = *input.IsActive
	}
	if err := investor.Validate(); err != nil {
		return nil, err
	}

	created, err := s.investorRepo.Create(investor)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.InvestorCreated(created))
	return created, nil
}

// GetInvestor retrieves an investor by ID
func (s *InvestorService) GetInvestor(id uuid.UUID) (*domain.Investor, error) {
	return s.investorRepo.GetByID(id)
}

// GetInvestorLoans retrieves every loan assigned to an investor
func (s *InvestorService) GetInvestorLoans(id uuid.UUID) ([]*domain.Loan, error) {
	if _, err := s.investorRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.loanRepo.ListByInvestor(id)
}

// ListInvestors retrieves investors with loan stats
func (s *InvestorService) ListInvestors(filter domain.InvestorFilter) ([]*domain.InvestorWithStats, int, error) {
	return s.investorRepo.List(filter)
}

// UpdateInvestor updates an investor's editable fields. Changing the
// profit percentage only affects reports generated afterwards; nothing
// is reclassified retroactively because the split is derived at read
// time, never stored.
func (s *InvestorService) UpdateInvestor(id uuid.UUID, input InvestorInput) (*domain.Investor, error) {
	investor, err := s.investorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	investor.Name = strings.TrimSpace(input.Name)
	investor.ProfitPercentage = input.ProfitPercentage
	if input.IsActive != nil {
		investor.IsActive = *input.IsActive
	}
	if err := investor.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.investorRepo.Update(investor)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.InvestorUpdated(updated))
	return updated, nil
}
