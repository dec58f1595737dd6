package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/util"
)

// ReportService derives the investor, payment and portfolio reports.
// Nothing here is stored; every figure is recomputed from the ledger on
// each call, so a corrected payment simply changes the next report.
type ReportService struct {
	loanRepo     domain.LoanRepository
	paymentRepo  domain.PaymentRepository
	customerRepo domain.CustomerRepository
	investorRepo domain.InvestorRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	loanRepo domain.LoanRepository,
	paymentRepo domain.PaymentRepository,
	customerRepo domain.CustomerRepository,
	investorRepo domain.InvestorRepository,
) *ReportService {
	return &ReportService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		investorRepo: investorRepo,
	}
}

// InvestorReport aggregates per-investor lending activity. Loan counts
// and outstanding balances are structural (unwindowed); interest and
// capital sums honor the date window, as does newLoansAmount over
// loanDate. BusinessProfit is the exact complement of the rounded
// investor share so the two always sum to the interest earned.
func (s *ReportService) InvestorReport(filters domain.ReportFilters) (*domain.InvestorReport, error) {
	var investors []*domain.Investor
	if filters.InvestorID != nil {
		investor, err := s.investorRepo.GetByID(*filters.InvestorID)
		if err != nil {
			return nil, err
		}
		investors = []*domain.Investor{investor}
	} else {
		all, err := s.investorRepo.ListAll()
		if err != nil {
			return nil, err
		}
		investors = all
	}

	report := &domain.InvestorReport{
		Investors: make([]domain.InvestorReportItem, 0, len(investors)),
		Totals: domain.InvestorReportTotals{
			TotalLentHistorical:       decimal.Zero,
			CurrentOutstandingBalance: decimal.Zero,
			TotalInterestEarned:       decimal.Zero,
			TotalCapitalReturned:      decimal.Zero,
			TotalInvestorProfit:       decimal.Zero,
			TotalBusinessProfit:       decimal.Zero,
			NewLoansAmount:            decimal.Zero,
		},
	}

	for _, investor := range investors {
		item, err := s.investorReportItem(investor, filters)
		if err != nil {
			return nil, err
		}
		report.Investors = append(report.Investors, *item)

		report.Totals.TotalLentHistorical = report.Totals.TotalLentHistorical.Add(item.TotalLentHistorical)
		report.Totals.CurrentOutstandingBalance = report.Totals.CurrentOutstandingBalance.Add(item.CurrentOutstandingBalance)
		report.Totals.TotalInterestEarned = report.Totals.TotalInterestEarned.Add(item.TotalInterestEarned)
		report.Totals.TotalCapitalReturned = report.Totals.TotalCapitalReturned.Add(item.TotalCapitalReturned)
		report.Totals.TotalInvestorProfit = report.Totals.TotalInvestorProfit.Add(item.InvestorProfit)
		report.Totals.TotalBusinessProfit = report.Totals.TotalBusinessProfit.Add(item.BusinessProfit)
		report.Totals.NewLoansAmount = report.Totals.NewLoansAmount.Add(item.NewLoansAmount)
	}

	return report, nil
}

func (s *ReportService) investorReportItem(investor *domain.Investor, filters domain.ReportFilters) (*domain.InvestorReportItem, error) {
	loans, err := s.loanRepo.ListByInvestor(investor.ID)
	if err != nil {
		return nil, err
	}

	item := &domain.InvestorReportItem{
		InvestorID:                investor.ID,
		InvestorName:              investor.Name,
		ProfitPercentage:          investor.ProfitPercentage,
		TotalLentHistorical:       decimal.Zero,
		CurrentOutstandingBalance: decimal.Zero,
		TotalInterestEarned:       decimal.Zero,
		TotalCapitalReturned:      decimal.Zero,
		NewLoansAmount:            decimal.Zero,
	}

	for _, loan := range loans {
		item.TotalLentHistorical = item.TotalLentHistorical.Add(loan.OriginalAmount)
		if loan.IsSettled {
			item.SettledLoans++
		} else {
			item.ActiveLoans++
			item.CurrentOutstandingBalance = item.CurrentOutstandingBalance.Add(loan.CurrentBalance)
		}
		if filters.InWindow(loan.LoanDate) {
			item.NewLoansAmount = item.NewLoansAmount.Add(loan.OriginalAmount)
		}
	}

	payments, err := s.paymentRepo.ListByInvestor(investor.ID, filters.StartDate, filters.EndDate)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		item.TotalInterestEarned = item.TotalInterestEarned.Add(p.InterestPaid)
		item.TotalCapitalReturned = item.TotalCapitalReturned.Add(p.CapitalPaid)
	}

	item.InvestorProfit = domain.ApplyPercent(item.TotalInterestEarned, investor.ProfitPercentage)
	item.BusinessProfit = item.TotalInterestEarned.Sub(item.InvestorProfit)

	return item, nil
}

// PaymentSummary buckets payments into calendar months or ISO weeks.
// Empty buckets are omitted; periods come out sorted ascending, which
// the key formats guarantee lexically.
func (s *ReportService) PaymentSummary(filters domain.ReportFilters) (*domain.PaymentSummary, error) {
	payments, err := s.paymentRepo.ListAll(filters.StartDate, filters.EndDate)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*domain.PaymentSummaryItem)
	for _, p := range payments {
		key := util.MonthKey(p.PaymentDate)
		if filters.GroupBy == "week" {
			key = util.ISOWeekKey(p.PaymentDate)
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &domain.PaymentSummaryItem{
				Period:       key,
				InterestPaid: decimal.Zero,
				CapitalPaid:  decimal.Zero,
				TotalPaid:    decimal.Zero,
			}
			buckets[key] = bucket
		}
		bucket.PaymentCount++
		bucket.InterestPaid = bucket.InterestPaid.Add(p.InterestPaid)
		bucket.CapitalPaid = bucket.CapitalPaid.Add(p.CapitalPaid)
		bucket.TotalPaid = bucket.TotalPaid.Add(p.TotalPaid())
	}

	summary := &domain.PaymentSummary{
		Payments: make([]domain.PaymentSummaryItem, 0, len(buckets)),
		Totals: domain.PaymentSummaryTotals{
			TotalInterest: decimal.Zero,
			TotalCapital:  decimal.Zero,
			TotalAmount:   decimal.Zero,
		},
	}
	for _, bucket := range buckets {
		summary.Payments = append(summary.Payments, *bucket)
		summary.Totals.TotalInterest = summary.Totals.TotalInterest.Add(bucket.InterestPaid)
		summary.Totals.TotalCapital = summary.Totals.TotalCapital.Add(bucket.CapitalPaid)
		summary.Totals.TotalAmount = summary.Totals.TotalAmount.Add(bucket.TotalPaid)
		summary.Totals.TotalPayments += bucket.PaymentCount
	}
	sort.Slice(summary.Payments, func(i, j int) bool {
		return summary.Payments[i].Period < summary.Payments[j].Period
	})

	return summary, nil
}

// PortfolioSummary is the all-time dashboard snapshot. Active loans
// report circulating money (currentBalance); settled loans report what
// was lent (originalAmount).
func (s *ReportService) PortfolioSummary() (*domain.PortfolioSummary, error) {
	loans, err := s.loanRepo.ListAll()
	if err != nil {
		return nil, err
	}

	summary := &domain.PortfolioSummary{
		ActiveLoans:  domain.LoanGroupSummary{TotalAmount: decimal.Zero},
		SettledLoans: domain.LoanGroupSummary{TotalAmount: decimal.Zero},
		Payments: domain.PaymentGroupSummary{
			TotalInterest: decimal.Zero,
			TotalCapital:  decimal.Zero,
			TotalAmount:   decimal.Zero,
		},
	}

	for _, loan := range loans {
		if loan.IsSettled {
			summary.SettledLoans.Count++
			summary.SettledLoans.TotalAmount = summary.SettledLoans.TotalAmount.Add(loan.OriginalAmount)
		} else {
			summary.ActiveLoans.Count++
			summary.ActiveLoans.TotalAmount = summary.ActiveLoans.TotalAmount.Add(loan.CurrentBalance)
		}
	}

	payments, err := s.paymentRepo.ListAll(nil, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		summary.Payments.TotalInterest = summary.Payments.TotalInterest.Add(p.InterestPaid)
		summary.Payments.TotalCapital = summary.Payments.TotalCapital.Add(p.CapitalPaid)
		summary.Payments.TotalAmount = summary.Payments.TotalAmount.Add(p.TotalPaid())
	}

	customersTotal, customersActive, err := s.customerRepo.Count()
	if err != nil {
		return nil, err
	}
	summary.Customers = domain.PeopleSummary{Total: customersTotal, Active: customersActive}

	investorsTotal, investorsActive, err := s.investorRepo.Count()
	if err != nil {
		return nil, err
	}
	summary.Investors = domain.PeopleSummary{Total: investorsTotal, Active: investorsActive}

	return summary, nil
}
