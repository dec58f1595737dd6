package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvestorNotFound        = errors.New("investor not found")
	ErrProfitPercentageInvalid = errors.New("profit percentage must be between 0 and 100")
)

type Investor struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	ProfitPercentage decimal.Decimal `json:"profitPercentage"`
	IsActive         bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func (i *Investor) Validate() error {
	if i.Name == "" {
		return ErrNameRequired
	}
	if len(i.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if i.ProfitPercentage.IsNegative() || i.ProfitPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrProfitPercentageInvalid
	}
	return nil
}

// InvestorWithStats carries the derived listing fields. TotalInvested is
// the sum of currentBalance over the investor's non-settled loans (the
// current-outstanding reading; the report exposes the historical figure
// separately as totalLentHistorical).
type InvestorWithStats struct {
	Investor
	ActiveLoansCount int             `json:"activeLoansCount"`
	TotalInvested    decimal.Decimal `json:"totalInvested"`
}

type InvestorFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}

type InvestorRepository interface {
	Create(investor *Investor) (*Investor, error)
	GetByID(id uuid.UUID) (*Investor, error)
	List(filter InvestorFilter) ([]*InvestorWithStats, int, error)
	ListAll() ([]*Investor, error)
	Count() (total int, active int, err error)
	Update(investor *Investor) (*Investor, error)
}
