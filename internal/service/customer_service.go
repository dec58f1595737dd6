package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/websocket"
)

// CustomerService handles customer business logic
type CustomerService struct {
	customerRepo domain.CustomerRepository
	loanRepo     domain.LoanRepository
	publisher    websocket.EventPublisher
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo domain.CustomerRepository, loanRepo domain.LoanRepository, publisher websocket.EventPublisher) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		publisher:    publisher,
	}
}

// CustomerInput contains input for creating or updating a customer
type CustomerInput struct {
	Name  string
	Phone *string
	Notes *string
}

// CreateCustomer creates a new customer, active by default
func (s *CustomerService) CreateCustomer(input CustomerInput) (*domain.Customer, error) {
	customer := &domain.Customer{
		Name:     strings.TrimSpace(input.Name),
		Phone:    input.Phone,
		Notes:    input.Notes,
		IsActive: true,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	created, err := s.customerRepo.Create(customer)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.CustomerCreated(created))
	return created, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(id uuid.UUID) (*domain.Customer, error) {
	return s.customerRepo.GetByID(id)
}

// GetCustomerLoans retrieves every loan taken by a customer
func (s *CustomerService) GetCustomerLoans(id uuid.UUID) ([]*domain.Loan, error) {
	if _, err := s.customerRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.loanRepo.ListByCustomer(id)
}

// ListCustomers retrieves customers with loan stats
func (s *CustomerService) ListCustomers(filter domain.CustomerFilter) ([]*domain.CustomerWithStats, int, error) {
	return s.customerRepo.List(filter)
}

// UpdateCustomer updates a customer's editable fields
func (s *CustomerService) UpdateCustomer(id uuid.UUID, input CustomerInput) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Phone = input.Phone
	customer.Notes = input.Notes
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.customerRepo.Update(customer)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.CustomerUpdated(updated))
	return updated, nil
}

// SetCustomerActive activates or deactivates a customer. Deactivation
// hides the customer from default listings; it never touches loans.
func (s *CustomerService) SetCustomerActive(id uuid.UUID, active bool) (*domain.Customer, error) {
	if err := s.customerRepo.SetActive(id, active); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if active {
		s.publisher.Publish(websocket.CustomerActivated(customer))
	} else {
		s.publisher.Publish(websocket.CustomerDeactivated(customer))
	}
	return customer, nil
}
