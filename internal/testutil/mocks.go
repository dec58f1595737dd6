package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/websocket"
)

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[uuid.UUID]*domain.Customer
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[uuid.UUID]*domain.Customer),
	}
}

// Create creates a new customer
func (m *MockCustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.Customers[customer.ID] = customer
	return customer, nil
}

// GetByID retrieves a customer by ID
func (m *MockCustomerRepository) GetByID(id uuid.UUID) (*domain.Customer, error) {
	if customer, ok := m.Customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

// List retrieves customers matching the filter
func (m *MockCustomerRepository) List(filter domain.CustomerFilter) ([]*domain.CustomerWithStats, int, error) {
	result := make([]*domain.CustomerWithStats, 0)
	for _, customer := range m.Customers {
		if filter.Search != "" && !strings.Contains(strings.ToLower(customer.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.IsActive != nil && customer.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, &domain.CustomerWithStats{
			Customer:  *customer,
			TotalOwed: decimal.Zero,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, len(result), nil
}

// Count returns total and active customer counts
func (m *MockCustomerRepository) Count() (int, int, error) {
	total, active := 0, 0
	for _, customer := range m.Customers {
		total++
		if customer.IsActive {
			active++
		}
	}
	return total, active, nil
}

// Update updates an existing customer
func (m *MockCustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	if _, ok := m.Customers[customer.ID]; !ok {
		return nil, domain.ErrCustomerNotFound
	}
	customer.UpdatedAt = time.Now()
	m.Customers[customer.ID] = customer
	return customer, nil
}

// SetActive flips a customer's active flag
func (m *MockCustomerRepository) SetActive(id uuid.UUID, active bool) error {
	customer, ok := m.Customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customer.IsActive = active
	return nil
}

// MockInvestorRepository is a mock implementation of domain.InvestorRepository
type MockInvestorRepository struct {
	Investors map[uuid.UUID]*domain.Investor
}

// NewMockInvestorRepository creates a new MockInvestorRepository
func NewMockInvestorRepository() *MockInvestorRepository {
	return &MockInvestorRepository{
		Investors: make(map[uuid.UUID]*domain.Investor),
	}
}

// Create creates a new investor
func (m *MockInvestorRepository) Create(investor *domain.Investor) (*domain.Investor, error) {
	if investor.ID == uuid.Nil {
		investor.ID = uuid.New()
	}
	investor.CreatedAt = time.Now()
	m.Investors[investor.ID] = investor
	return investor, nil
}

// GetByID retrieves an investor by ID
func (m *MockInvestorRepository) GetByID(id uuid.UUID) (*domain.Investor, error) {
	if investor, ok := m.Investors[id]; ok {
		return investor, nil
	}
	return nil, domain.ErrInvestorNotFound
}

// List retrieves investors matching the filter
func (m *MockInvestorRepository) List(filter domain.InvestorFilter) ([]*domain.InvestorWithStats, int, error) {
	result := make([]*domain.InvestorWithStats, 0)
	for _, investor := range m.Investors {
		if filter.Search != "" && !strings.Contains(strings.ToLower(investor.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.IsActive != nil && investor.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, &domain.InvestorWithStats{
			Investor:      *investor,
			TotalInvested: decimal.Zero,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, len(result), nil
}

// ListAll retrieves every investor sorted by name
func (m *MockInvestorRepository) ListAll() ([]*domain.Investor, error) {
	result := make([]*domain.Investor, 0, len(m.Investors))
	for _, investor := range m.Investors {
		result = append(result, investor)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Count returns total and active investor counts
func (m *MockInvestorRepository) Count() (int, int, error) {
	total, active := 0, 0
	for _, investor := range m.Investors {
		total++
		if investor.IsActive {
			active++
		}
	}
	return total, active, nil
}

// Update updates an existing investor
func (m *MockInvestorRepository) Update(investor *domain.Investor) (*domain.Investor, error) {
	if _, ok := m.Investors[investor.ID]; !ok {
		return nil, domain.ErrInvestorNotFound
	}
	m.Investors[investor.ID] = investor
	return investor, nil
}

// MockLoanRepository is a mock implementation of domain.LoanRepository.
// Set UpdateBalanceErr to fail the balance write and force a rollback.
type MockLoanRepository struct {
	Loans            map[uuid.UUID]*domain.Loan
	UpdateBalanceErr error
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans: make(map[uuid.UUID]*domain.Loan),
	}
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	loan.CreatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// List retrieves loans matching the filter
func (m *MockLoanRepository) List(filter domain.LoanFilter) ([]*domain.LoanWithStats, int, error) {
	result := make([]*domain.LoanWithStats, 0)
	for _, loan := range m.Loans {
		if filter.CustomerID != nil && loan.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.InvestorID != nil && loan.InvestorID != *filter.InvestorID {
			continue
		}
		if filter.IsSettled != nil && loan.IsSettled != *filter.IsSettled {
			continue
		}
		result = append(result, &domain.LoanWithStats{
			Loan:              *loan,
			TotalPaidInterest: decimal.Zero,
			TotalPaidCapital:  decimal.Zero,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LoanDate.After(result[j].LoanDate) })
	return result, len(result), nil
}

// ListByInvestor retrieves every loan assigned to an investor
func (m *MockLoanRepository) ListByInvestor(investorID uuid.UUID) ([]*domain.Loan, error) {
	result := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.InvestorID == investorID {
			result = append(result, loan)
		}
	}
	sortLoans(result)
	return result, nil
}

// ListByCustomer retrieves every loan taken by a customer
func (m *MockLoanRepository) ListByCustomer(customerID uuid.UUID) ([]*domain.Loan, error) {
	result := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.CustomerID == customerID {
			result = append(result, loan)
		}
	}
	sortLoans(result)
	return result, nil
}

// ListAll retrieves every loan
func (m *MockLoanRepository) ListAll() ([]*domain.Loan, error) {
	result := make([]*domain.Loan, 0, len(m.Loans))
	for _, loan := range m.Loans {
		result = append(result, loan)
	}
	sortLoans(result)
	return result, nil
}

// Update updates an existing loan
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	m.Loans[loan.ID] = loan
	return loan, nil
}

// UpdateBalance persists a recomputed balance
func (m *MockLoanRepository) UpdateBalance(id uuid.UUID, balance decimal.Decimal) error {
	if m.UpdateBalanceErr != nil {
		return m.UpdateBalanceErr
	}
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.CurrentBalance = balance
	return nil
}

// GetByIDTx retrieves a loan by ID inside a mock transaction
func (m *MockLoanRepository) GetByIDTx(_ domain.Tx, id uuid.UUID) (*domain.Loan, error) {
	return m.GetByID(id)
}

// UpdateBalanceTx persists a recomputed balance inside a mock transaction
func (m *MockLoanRepository) UpdateBalanceTx(_ domain.Tx, id uuid.UUID, balance decimal.Decimal) error {
	return m.UpdateBalance(id, balance)
}

// SetSettled persists a settle or reopen transition
func (m *MockLoanRepository) SetSettled(id uuid.UUID, settled bool, settledAt *time.Time) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.IsSettled = settled
	loan.SettledAt = settledAt
	return nil
}

func sortLoans(loans []*domain.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].LoanDate.Equal(loans[j].LoanDate) {
			return loans[i].LoanDate.Before(loans[j].LoanDate)
		}
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository.
// Set Loans to resolve investor lookups.
type MockPaymentRepository struct {
	Payments map[uuid.UUID]*domain.Payment
	Loans    *MockLoanRepository
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[uuid.UUID]*domain.Payment),
	}
}

// Create creates a new payment
func (m *MockPaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// List retrieves payments matching the filter
func (m *MockPaymentRepository) List(filter domain.PaymentFilter) ([]*domain.PaymentWithNames, int, error) {
	result := make([]*domain.PaymentWithNames, 0)
	for _, payment := range m.Payments {
		if filter.LoanID != nil && payment.LoanID != *filter.LoanID {
			continue
		}
		if !inWindow(payment.PaymentDate, filter.StartDate, filter.EndDate) {
			continue
		}
		result = append(result, &domain.PaymentWithNames{Payment: *payment})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaymentDate.After(result[j].PaymentDate) })
	return result, len(result), nil
}

// ListByLoan retrieves a loan's journal ordered by paymentDate then createdAt
func (m *MockPaymentRepository) ListByLoan(loanID uuid.UUID) ([]*domain.Payment, error) {
	result := make([]*domain.Payment, 0)
	for _, payment := range m.Payments {
		if payment.LoanID == loanID {
			result = append(result, payment)
		}
	}
	sortPayments(result)
	return result, nil
}

// ListByInvestor retrieves payments against an investor's loans within a window
func (m *MockPaymentRepository) ListByInvestor(investorID uuid.UUID, start, end *time.Time) ([]*domain.Payment, error) {
	result := make([]*domain.Payment, 0)
	for _, payment := range m.Payments {
		if m.Loans != nil {
			loan, ok := m.Loans.Loans[payment.LoanID]
			if !ok || loan.InvestorID != investorID {
				continue
			}
		}
		if !inWindow(payment.PaymentDate, start, end) {
			continue
		}
		result = append(result, payment)
	}
	sortPayments(result)
	return result, nil
}

// ListAll retrieves payments within a window
func (m *MockPaymentRepository) ListAll(start, end *time.Time) ([]*domain.Payment, error) {
	result := make([]*domain.Payment, 0)
	for _, payment := range m.Payments {
		if !inWindow(payment.PaymentDate, start, end) {
			continue
		}
		result = append(result, payment)
	}
	sortPayments(result)
	return result, nil
}

// Update updates an existing payment
func (m *MockPaymentRepository) Update(payment *domain.Payment) (*domain.Payment, error) {
	existing, ok := m.Payments[payment.ID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	payment.CreatedAt = existing.CreatedAt
	m.Payments[payment.ID] = payment
	return payment, nil
}

// Delete removes a payment
func (m *MockPaymentRepository) Delete(id uuid.UUID) error {
	if _, ok := m.Payments[id]; !ok {
		return domain.ErrPaymentNotFound
	}
	delete(m.Payments, id)
	return nil
}

// CreateTx creates a payment inside a mock transaction
func (m *MockPaymentRepository) CreateTx(_ domain.Tx, payment *domain.Payment) (*domain.Payment, error) {
	return m.Create(payment)
}

// ListByLoanTx retrieves a loan's journal inside a mock transaction
func (m *MockPaymentRepository) ListByLoanTx(_ domain.Tx, loanID uuid.UUID) ([]*domain.Payment, error) {
	return m.ListByLoan(loanID)
}

// UpdateTx updates a payment inside a mock transaction
func (m *MockPaymentRepository) UpdateTx(_ domain.Tx, payment *domain.Payment) (*domain.Payment, error) {
	return m.Update(payment)
}

// DeleteTx removes a payment inside a mock transaction
func (m *MockPaymentRepository) DeleteTx(_ domain.Tx, id uuid.UUID) error {
	return m.Delete(id)
}

func sortPayments(payments []*domain.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.Before(payments[j].PaymentDate)
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
}

func inWindow(date time.Time, start, end *time.Time) bool {
	if start != nil && date.Before(*start) {
		return false
	}
	if end != nil && date.After(*end) {
		return false
	}
	return true
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[string]*domain.User
	ByID  map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	if user, ok := m.Users[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Email] = user
	m.ByID[user.ID] = user
}

// MockAttachmentRepository is a mock implementation of domain.AttachmentRepository
type MockAttachmentRepository struct {
	Attachments map[uuid.UUID]*domain.Attachment
}

// NewMockAttachmentRepository creates a new MockAttachmentRepository
func NewMockAttachmentRepository() *MockAttachmentRepository {
	return &MockAttachmentRepository{
		Attachments: make(map[uuid.UUID]*domain.Attachment),
	}
}

// Create records an attachment
func (m *MockAttachmentRepository) Create(attachment *domain.Attachment) (*domain.Attachment, error) {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	attachment.CreatedAt = time.Now()
	m.Attachments[attachment.ID] = attachment
	return attachment, nil
}

// GetByID retrieves an attachment by ID
func (m *MockAttachmentRepository) GetByID(id uuid.UUID) (*domain.Attachment, error) {
	if attachment, ok := m.Attachments[id]; ok {
		return attachment, nil
	}
	return nil, domain.ErrAttachmentNotFound
}

// ListByEntity retrieves attachments pinned to an entity
func (m *MockAttachmentRepository) ListByEntity(entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	result := make([]*domain.Attachment, 0)
	for _, attachment := range m.Attachments {
		if attachment.EntityType == entityType && attachment.EntityID == entityID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

// Delete removes an attachment
func (m *MockAttachmentRepository) Delete(id uuid.UUID) error {
	if _, ok := m.Attachments[id]; !ok {
		return domain.ErrAttachmentNotFound
	}
	delete(m.Attachments, id)
	return nil
}

// MockEventPublisher captures published events for assertions
type MockEventPublisher struct {
	Events []websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{Events: make([]websocket.Event, 0)}
}

// Publish records the event
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.Events = append(m.Events, event)
}

// EventTypes returns the published event type strings in order
func (m *MockEventPublisher) EventTypes() []string {
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

// MockTx is a mock transaction recording its outcome
type MockTx struct {
	Committed  bool
	RolledBack bool
}

// Commit marks the transaction committed
func (t *MockTx) Commit(_ context.Context) error {
	t.Committed = true
	return nil
}

// Rollback marks the transaction rolled back unless it already committed
func (t *MockTx) Rollback(_ context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTxBeginner is a mock implementation of domain.TxBeginner. It
// records every transaction it hands out so tests can assert commits
// and rollbacks.
type MockTxBeginner struct {
	Txs      []*MockTx
	BeginErr error
}

// NewMockTxBeginner creates a new MockTxBeginner
func NewMockTxBeginner() *MockTxBeginner {
	return &MockTxBeginner{Txs: make([]*MockTx, 0)}
}

// Begin starts a mock transaction
func (m *MockTxBeginner) Begin(_ context.Context) (domain.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	tx := &MockTx{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// LastTx returns the most recently started transaction, or nil
func (m *MockTxBeginner) LastTx() *MockTx {
	if len(m.Txs) == 0 {
		return nil
	}
	return m.Txs[len(m.Txs)-1]
}
