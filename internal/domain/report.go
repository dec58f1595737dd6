package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportFilters narrows report aggregation. A nil date means the window
// is open on that end; both dates nil means all-time. The window is
// inclusive on both ends.
type ReportFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	InvestorID *uuid.UUID
	GroupBy    string // "month" or "week"
}

// InWindow reports whether a date falls inside the filter window
func (f ReportFilters) InWindow(date time.Time) bool {
	if f.StartDate != nil && date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && date.After(*f.EndDate) {
		return false
	}
	return true
}

// InvestorReportItem is one investor's row in the investor report.
// Loan counts are structural (unwindowed); the monetary sums over
// payments honor the window. TotalLentHistorical and
// CurrentOutstandingBalance are deliberately distinct fields: the first
// sums originalAmount over every loan ever assigned to the investor, the
// second sums currentBalance over the non-settled ones.
type InvestorReportItem struct {
	InvestorID                uuid.UUID       `json:"investorId"`
	InvestorName              string          `json:"investorName"`
	ProfitPercentage          decimal.Decimal `json:"profitPercentage"`
	ActiveLoans               int             `json:"activeLoans"`
	SettledLoans              int             `json:"settledLoans"`
	TotalLentHistorical       decimal.Decimal `json:"totalLentHistorical"`
	CurrentOutstandingBalance decimal.Decimal `json:"currentOutstandingBalance"`
	TotalInterestEarned       decimal.Decimal `json:"totalInterestEarned"`
	TotalCapitalReturned      decimal.Decimal `json:"totalCapitalReturned"`
	InvestorProfit            decimal.Decimal `json:"investorProfit"`
	BusinessProfit            decimal.Decimal `json:"businessProfit"`
	NewLoansAmount            decimal.Decimal `json:"newLoansAmount"`
}

// InvestorReportTotals sums every report row field
type InvestorReportTotals struct {
	TotalLentHistorical       decimal.Decimal `json:"totalLentHistorical"`
	CurrentOutstandingBalance decimal.Decimal `json:"currentOutstandingBalance"`
	TotalInterestEarned       decimal.Decimal `json:"totalInterestEarned"`
	TotalCapitalReturned      decimal.Decimal `json:"totalCapitalReturned"`
	TotalInvestorProfit       decimal.Decimal `json:"totalInvestorProfit"`
	TotalBusinessProfit       decimal.Decimal `json:"totalBusinessProfit"`
	NewLoansAmount            decimal.Decimal `json:"newLoansAmount"`
}

type InvestorReport struct {
	Investors []InvestorReportItem `json:"investors"`
	Totals    InvestorReportTotals `json:"totals"`
}

// PaymentSummaryItem is one period bucket of the payment summary
type PaymentSummaryItem struct {
	Period       string          `json:"period"` // "YYYY-MM" or "YYYY-Www"
	PaymentCount int             `json:"paymentCount"`
	InterestPaid decimal.Decimal `json:"interestPaid"`
	CapitalPaid  decimal.Decimal `json:"capitalPaid"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
}

type PaymentSummaryTotals struct {
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalCapital  decimal.Decimal `json:"totalCapital"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalPayments int             `json:"totalPayments"`
}

type PaymentSummary struct {
	Payments []PaymentSummaryItem `json:"payments"`
	Totals   PaymentSummaryTotals `json:"totals"`
}

// PortfolioSummary is the all-time dashboard snapshot
type PortfolioSummary struct {
	ActiveLoans  LoanGroupSummary    `json:"activeLoans"`
	SettledLoans LoanGroupSummary    `json:"settledLoans"`
	Payments     PaymentGroupSummary `json:"payments"`
	Customers    PeopleSummary       `json:"customers"`
	Investors    PeopleSummary       `json:"investors"`
}

// LoanGroupSummary counts loans in a lifecycle state. TotalAmount is the
// sum of currentBalance for active loans and originalAmount for settled
// ones (what was lent, since the remaining balance no longer circulates).
type LoanGroupSummary struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type PaymentGroupSummary struct {
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalCapital  decimal.Decimal `json:"totalCapital"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type PeopleSummary struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}
