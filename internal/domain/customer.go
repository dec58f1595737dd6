package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// CustomerWithStats carries the derived listing fields: count of
// non-settled loans and the sum of their current balances.
type CustomerWithStats struct {
	Customer
	ActiveLoansCount int             `json:"activeLoansCount"`
	TotalOwed        decimal.Decimal `json:"totalOwed"`
}

type CustomerFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}

type CustomerRepository interface {
	Create(customer *Customer) (*Customer, error)
	GetByID(id uuid.UUID) (*Customer, error)
	List(filter CustomerFilter) ([]*CustomerWithStats, int, error)
	Count() (total int, active int, err error)
	Update(customer *Customer) (*Customer, error)
	SetActive(id uuid.UUID, active bool) error
}
