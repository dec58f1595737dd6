package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/testutil"
)

type reportFixture struct {
	loans     *testutil.MockLoanRepository
	payments  *testutil.MockPaymentRepository
	customers *testutil.MockCustomerRepository
	investors *testutil.MockInvestorRepository
	service   *ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	loans := testutil.NewMockLoanRepository()
	payments := testutil.NewMockPaymentRepository()
	payments.Loans = loans
	customers := testutil.NewMockCustomerRepository()
	investors := testutil.NewMockInvestorRepository()

	return &reportFixture{
		loans:     loans,
		payments:  payments,
		customers: customers,
		investors: investors,
		service:   NewReportService(loans, payments, customers, investors),
	}
}

func (f *reportFixture) addInvestor(t *testing.T, name, pct string) *domain.Investor {
	t.Helper()
	investor, err := f.investors.Create(&domain.Investor{
		Name:             name,
		ProfitPercentage: decimal.RequireFromString(pct),
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("Create investor failed: %v", err)
	}
	return investor
}

func (f *reportFixture) addLoan(t *testing.T, investorID uuid.UUID, amount, balance string, settled bool, loanDate time.Time) *domain.Loan {
	t.Helper()
	loan, err := f.loans.Create(&domain.Loan{
		CustomerID:     uuid.New(),
		InvestorID:     investorID,
		OriginalAmount: decimal.RequireFromString(amount),
		CurrentBalance: decimal.RequireFromString(balance),
		LoanDate:       loanDate,
		IsSettled:      settled,
	})
	if err != nil {
		t.Fatalf("Create loan failed: %v", err)
	}
	return loan
}

func (f *reportFixture) addPayment(t *testing.T, loanID uuid.UUID, date time.Time, interest, capital string) {
	t.Helper()
	_, err := f.payments.Create(&domain.Payment{
		LoanID:       loanID,
		PaymentDate:  date,
		InterestPaid: decimal.RequireFromString(interest),
		CapitalPaid:  decimal.RequireFromString(capital),
	})
	if err != nil {
		t.Fatalf("Create payment failed: %v", err)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInvestorReport_ProfitSplit(t *testing.T) {
	// 33% investor on 100.01 interest: investor gets 33.00 (33.0033
	// rounded), business gets the exact complement 67.01
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "33")
	loan := f.addLoan(t, investor.ID, "1000.00", "1000.00", false, date(2024, 1, 10))
	f.addPayment(t, loan.ID, date(2024, 2, 1), "100.01", "0.00")

	report, err := f.service.InvestorReport(domain.ReportFilters{})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}
	if len(report.Investors) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(report.Investors))
	}

	item := report.Investors[0]
	if !item.InvestorProfit.Equal(decimal.RequireFromString("33.00")) {
		t.Errorf("Expected investor profit 33.00, got %s", item.InvestorProfit.String())
	}
	if !item.BusinessProfit.Equal(decimal.RequireFromString("67.01")) {
		t.Errorf("Expected business profit 67.01, got %s", item.BusinessProfit.String())
	}
	if !item.InvestorProfit.Add(item.BusinessProfit).Equal(item.TotalInterestEarned) {
		t.Error("Profit shares must sum exactly to interest earned")
	}
}

func TestInvestorReport_SplitEdges(t *testing.T) {
	f := newReportFixture(t)

	zero := f.addInvestor(t, "Zero Pct", "0")
	full := f.addInvestor(t, "Full Pct", "100")
	zeroLoan := f.addLoan(t, zero.ID, "1000.00", "1000.00", false, date(2024, 1, 10))
	fullLoan := f.addLoan(t, full.ID, "1000.00", "1000.00", false, date(2024, 1, 10))
	f.addPayment(t, zeroLoan.ID, date(2024, 2, 1), "200.00", "0.00")
	f.addPayment(t, fullLoan.ID, date(2024, 2, 1), "200.00", "0.00")

	report, err := f.service.InvestorReport(domain.ReportFilters{})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}

	for _, item := range report.Investors {
		switch item.InvestorID {
		case zero.ID:
			if !item.InvestorProfit.IsZero() {
				t.Errorf("0%% investor profit must be zero, got %s", item.InvestorProfit.String())
			}
			if !item.BusinessProfit.Equal(decimal.RequireFromString("200.00")) {
				t.Errorf("0%% business profit must be 200.00, got %s", item.BusinessProfit.String())
			}
		case full.ID:
			if !item.InvestorProfit.Equal(decimal.RequireFromString("200.00")) {
				t.Errorf("100%% investor profit must be 200.00, got %s", item.InvestorProfit.String())
			}
			if !item.BusinessProfit.IsZero() {
				t.Errorf("100%% business profit must be zero, got %s", item.BusinessProfit.String())
			}
		}
	}
}

func TestInvestorReport_StructuralVsWindowed(t *testing.T) {
	// Counts and balances ignore the window; money sums honor it
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "50")

	active := f.addLoan(t, investor.ID, "5000.00", "4000.00", false, date(2024, 1, 10))
	settled := f.addLoan(t, investor.ID, "3000.00", "500.00", true, date(2023, 6, 1))

	f.addPayment(t, active.ID, date(2024, 2, 1), "250.00", "1000.00") // in window
	f.addPayment(t, settled.ID, date(2023, 7, 1), "150.00", "500.00") // before window

	start := date(2024, 1, 1)
	end := date(2024, 12, 31)
	report, err := f.service.InvestorReport(domain.ReportFilters{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}

	item := report.Investors[0]
	if item.ActiveLoans != 1 || item.SettledLoans != 1 {
		t.Errorf("Expected 1 active / 1 settled, got %d / %d", item.ActiveLoans, item.SettledLoans)
	}
	if !item.TotalLentHistorical.Equal(decimal.RequireFromString("8000.00")) {
		t.Errorf("Historical lent must ignore window, got %s", item.TotalLentHistorical.String())
	}
	if !item.CurrentOutstandingBalance.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("Outstanding must sum active balances only, got %s", item.CurrentOutstandingBalance.String())
	}
	if !item.TotalInterestEarned.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("Interest must honor window, got %s", item.TotalInterestEarned.String())
	}
	if !item.TotalCapitalReturned.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("Capital must honor window, got %s", item.TotalCapitalReturned.String())
	}
	if !item.NewLoansAmount.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("New loans must be windowed by loan date, got %s", item.NewLoansAmount.String())
	}
}

func TestInvestorReport_WindowInclusive(t *testing.T) {
	// Payments on the boundary dates belong to the window
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "50")
	loan := f.addLoan(t, investor.ID, "1000.00", "1000.00", false, date(2023, 12, 1))

	f.addPayment(t, loan.ID, date(2024, 1, 1), "10.00", "0.00")  // start boundary
	f.addPayment(t, loan.ID, date(2024, 1, 31), "20.00", "0.00") // end boundary
	f.addPayment(t, loan.ID, date(2023, 12, 31), "40.00", "0.00")
	f.addPayment(t, loan.ID, date(2024, 2, 1), "80.00", "0.00")

	start := date(2024, 1, 1)
	end := date(2024, 1, 31)
	report, err := f.service.InvestorReport(domain.ReportFilters{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}

	if got := report.Investors[0].TotalInterestEarned; !got.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("Expected 30.00 (both boundaries included), got %s", got.String())
	}
}

func TestInvestorReport_SingleInvestorFilter(t *testing.T) {
	f := newReportFixture(t)
	ana := f.addInvestor(t, "Ana Ruiz", "50")
	f.addInvestor(t, "Carlos Diaz", "40")

	report, err := f.service.InvestorReport(domain.ReportFilters{InvestorID: &ana.ID})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}
	if len(report.Investors) != 1 || report.Investors[0].InvestorID != ana.ID {
		t.Fatalf("Expected only the filtered investor's row")
	}

	unknown := uuid.New()
	if _, err := f.service.InvestorReport(domain.ReportFilters{InvestorID: &unknown}); err != domain.ErrInvestorNotFound {
		t.Errorf("Expected ErrInvestorNotFound, got %v", err)
	}
}

func TestInvestorReport_Totals(t *testing.T) {
	f := newReportFixture(t)
	ana := f.addInvestor(t, "Ana Ruiz", "50")
	carlos := f.addInvestor(t, "Carlos Diaz", "25")
	anaLoan := f.addLoan(t, ana.ID, "1000.00", "1000.00", false, date(2024, 1, 10))
	carlosLoan := f.addLoan(t, carlos.ID, "2000.00", "2000.00", false, date(2024, 1, 12))
	f.addPayment(t, anaLoan.ID, date(2024, 2, 1), "100.00", "50.00")
	f.addPayment(t, carlosLoan.ID, date(2024, 2, 5), "200.00", "75.00")

	report, err := f.service.InvestorReport(domain.ReportFilters{})
	if err != nil {
		t.Fatalf("InvestorReport failed: %v", err)
	}

	if !report.Totals.TotalInterestEarned.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("Expected interest total 300.00, got %s", report.Totals.TotalInterestEarned.String())
	}
	if !report.Totals.TotalInvestorProfit.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("Expected investor profit total 100.00 (50 + 50), got %s", report.Totals.TotalInvestorProfit.String())
	}
	if !report.Totals.TotalBusinessProfit.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("Expected business profit total 200.00, got %s", report.Totals.TotalBusinessProfit.String())
	}
	if !report.Totals.TotalLentHistorical.Equal(decimal.RequireFromString("3000.00")) {
		t.Errorf("Expected lent total 3000.00, got %s", report.Totals.TotalLentHistorical.String())
	}
}

func TestPaymentSummary_MonthBuckets(t *testing.T) {
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "50")
	loan := f.addLoan(t, investor.ID, "1000.00", "1000.00", false, date(2024, 1, 1))

	f.addPayment(t, loan.ID, date(2024, 1, 5), "10.00", "100.00")
	f.addPayment(t, loan.ID, date(2024, 1, 20), "15.00", "150.00")
	f.addPayment(t, loan.ID, date(2024, 3, 2), "20.00", "200.00")

	summary, err := f.service.PaymentSummary(domain.ReportFilters{GroupBy: "month"})
	if err != nil {
		t.Fatalf("PaymentSummary failed: %v", err)
	}

	// February is empty and therefore absent
	if len(summary.Payments) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(summary.Payments))
	}
	jan := summary.Payments[0]
	if jan.Period != "2024-01" || jan.PaymentCount != 2 {
		t.Errorf("Expected 2024-01 with 2 payments, got %s with %d", jan.Period, jan.PaymentCount)
	}
	if !jan.TotalPaid.Equal(decimal.RequireFromString("275.00")) {
		t.Errorf("Expected January total 275.00, got %s", jan.TotalPaid.String())
	}
	if summary.Payments[1].Period != "2024-03" {
		t.Errorf("Expected 2024-03 second, got %s", summary.Payments[1].Period)
	}
	if summary.Totals.TotalPayments != 3 {
		t.Errorf("Expected 3 payments in totals, got %d", summary.Totals.TotalPayments)
	}
}

func TestPaymentSummary_ISOWeekAcrossYearBoundary(t *testing.T) {
	// 2024-12-30 and 2025-01-02 share ISO week 2025-W01
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "50")
	loan := f.addLoan(t, investor.ID, "1000.00", "1000.00", false, date(2024, 1, 1))

	f.addPayment(t, loan.ID, date(2024, 12, 30), "10.00", "0.00")
	f.addPayment(t, loan.ID, date(2025, 1, 2), "20.00", "0.00")

	summary, err := f.service.PaymentSummary(domain.ReportFilters{GroupBy: "week"})
	if err != nil {
		t.Fatalf("PaymentSummary failed: %v", err)
	}

	if len(summary.Payments) != 1 {
		t.Fatalf("Expected a single ISO week bucket, got %d", len(summary.Payments))
	}
	if summary.Payments[0].Period != "2025-W01" {
		t.Errorf("Expected 2025-W01, got %s", summary.Payments[0].Period)
	}
	if !summary.Payments[0].InterestPaid.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("Expected 30.00, got %s", summary.Payments[0].InterestPaid.String())
	}
}

func TestPortfolioSummary(t *testing.T) {
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Ana Ruiz", "50")
	f.investors.Create(&domain.Investor{Name: "Retired", ProfitPercentage: decimal.NewFromInt(10)})
	f.customers.Create(&domain.Customer{Name: "Maria Lopez", IsActive: true})
	f.customers.Create(&domain.Customer{Name: "Old Client", IsActive: false})

	active := f.addLoan(t, investor.ID, "5000.00", "4000.00", false, date(2024, 1, 10))
	f.addLoan(t, investor.ID, "3000.00", "200.00", true, date(2023, 6, 1))
	f.addPayment(t, active.ID, date(2024, 2, 1), "250.00", "1000.00")

	summary, err := f.service.PortfolioSummary()
	if err != nil {
		t.Fatalf("PortfolioSummary failed: %v", err)
	}

	if summary.ActiveLoans.Count != 1 || !summary.ActiveLoans.TotalAmount.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("Active loans: expected 1 / 4000.00, got %d / %s",
			summary.ActiveLoans.Count, summary.ActiveLoans.TotalAmount.String())
	}
	// Settled loans report what was lent, not the leftover balance
	if summary.SettledLoans.Count != 1 || !summary.SettledLoans.TotalAmount.Equal(decimal.RequireFromString("3000.00")) {
		t.Errorf("Settled loans: expected 1 / 3000.00, got %d / %s",
			summary.SettledLoans.Count, summary.SettledLoans.TotalAmount.String())
	}
	if !summary.Payments.TotalAmount.Equal(decimal.RequireFromString("1250.00")) {
		t.Errorf("Expected payments total 1250.00, got %s", summary.Payments.TotalAmount.String())
	}
	if summary.Customers.Total != 2 || summary.Customers.Active != 1 {
		t.Errorf("Customers: expected 2 / 1, got %d / %d", summary.Customers.Total, summary.Customers.Active)
	}
	if summary.Investors.Total != 2 || summary.Investors.Active != 1 {
		t.Errorf("Investors: expected 2 / 1, got %d / %d", summary.Investors.Total, summary.Investors.Active)
	}
}
