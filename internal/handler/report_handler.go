package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/service"
)

// ReportHandler handles reporting HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
	exportService *service.ExportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService, exportService *service.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// InvestorReportItemResponse is one row of the investor report
type InvestorReportItemResponse struct {
	InvestorID                string `json:"investorId"`
	InvestorName              string `json:"investorName"`
	ProfitPercentage          string `json:"profitPercentage"`
	ActiveLoans               int    `json:"activeLoans"`
	SettledLoans              int    `json:"settledLoans"`
	TotalLentHistorical       string `json:"totalLentHistorical"`
	CurrentOutstandingBalance string `json:"currentOutstandingBalance"`
	TotalInterestEarned       string `json:"totalInterestEarned"`
	TotalCapitalReturned      string `json:"totalCapitalReturned"`
	InvestorProfit            string `json:"investorProfit"`
	BusinessProfit            string `json:"businessProfit"`
	NewLoansAmount            string `json:"newLoansAmount"`
}

// InvestorReportTotalsResponse sums the report rows
type InvestorReportTotalsResponse struct {
	TotalLentHistorical       string `json:"totalLentHistorical"`
	CurrentOutstandingBalance string `json:"currentOutstandingBalance"`
	TotalInterestEarned       string `json:"totalInterestEarned"`
	TotalCapitalReturned      string `json:"totalCapitalReturned"`
	TotalInvestorProfit       string `json:"totalInvestorProfit"`
	TotalBusinessProfit       string `json:"totalBusinessProfit"`
	NewLoansAmount            string `json:"newLoansAmount"`
}

// InvestorReportResponse is the full investor report
type InvestorReportResponse struct {
	Investors []InvestorReportItemResponse `json:"investors"`
	Totals    InvestorReportTotalsResponse `json:"totals"`
}

// PaymentSummaryItemResponse is one period bucket
type PaymentSummaryItemResponse struct {
	Period       string `json:"period"`
	PaymentCount int    `json:"paymentCount"`
	InterestPaid string `json:"interestPaid"`
	CapitalPaid  string `json:"capitalPaid"`
	TotalPaid    string `json:"totalPaid"`
}

// PaymentSummaryResponse is the bucketed payment summary
type PaymentSummaryResponse struct {
	Payments []PaymentSummaryItemResponse `json:"payments"`
	Totals   PaymentSummaryTotalsResponse `json:"totals"`
}

// PaymentSummaryTotalsResponse sums the summary buckets
type PaymentSummaryTotalsResponse struct {
	TotalInterest string `json:"totalInterest"`
	TotalCapital  string `json:"totalCapital"`
	TotalAmount   string `json:"totalAmount"`
	TotalPayments int    `json:"totalPayments"`
}

// PortfolioSummaryResponse is the dashboard snapshot
type PortfolioSummaryResponse struct {
	ActiveLoans  LoanGroupSummaryResponse    `json:"activeLoans"`
	SettledLoans LoanGroupSummaryResponse    `json:"settledLoans"`
	Payments     PaymentGroupSummaryResponse `json:"payments"`
	Customers    PeopleSummaryResponse       `json:"customers"`
	Investors    PeopleSummaryResponse       `json:"investors"`
}

type LoanGroupSummaryResponse struct {
	Count       int    `json:"count"`
	TotalAmount string `json:"totalAmount"`
}

type PaymentGroupSummaryResponse struct {
	TotalInterest string `json:"totalInterest"`
	TotalCapital  string `json:"totalCapital"`
	TotalAmount   string `json:"totalAmount"`
}

type PeopleSummaryResponse struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// parseReportFilters reads the shared report query parameters
func parseReportFilters(c echo.Context) (domain.ReportFilters, error) {
	startDate, err := parseDateQuery(c, "startDate")
	if err != nil {
		return domain.ReportFilters{}, NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	endDate, err := parseDateQuery(c, "endDate")
	if err != nil {
		return domain.ReportFilters{}, NewValidationError(c, "Invalid end date", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	investorID, err := parseUUIDQuery(c, "investorId")
	if err != nil {
		return domain.ReportFilters{}, NewValidationError(c, "Invalid investor ID", []ValidationError{
			{Field: "investorId", Message: "Must be a valid UUID"},
		})
	}

	groupBy := c.QueryParam("groupBy")
	if groupBy == "" {
		groupBy = "month"
	}
	if groupBy != "month" && groupBy != "week" {
		return domain.ReportFilters{}, NewValidationError(c, "Invalid groupBy", []ValidationError{
			{Field: "groupBy", Message: "Must be month or week"},
		})
	}

	return domain.ReportFilters{
		StartDate:  startDate,
		EndDate:    endDate,
		InvestorID: investorID,
		GroupBy:    groupBy,
	}, nil
}

// GetInvestorReport handles GET /api/reports/investors
func (h *ReportHandler) GetInvestorReport(c echo.Context) error {
	filters, err := parseReportFilters(c)
	if err != nil {
		return err
	}

	report, err := h.reportService.InvestorReport(filters)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		log.Error().Err(err).Msg("Failed to build investor report")
		return NewInternalError(c, "Failed to build investor report")
	}

	resp := InvestorReportResponse{
		Investors: make([]InvestorReportItemResponse, 0, len(report.Investors)),
		Totals: InvestorReportTotalsResponse{
			TotalLentHistorical:       report.Totals.TotalLentHistorical.StringFixed(2),
			CurrentOutstandingBalance: report.Totals.CurrentOutstandingBalance.StringFixed(2),
			TotalInterestEarned:       report.Totals.TotalInterestEarned.StringFixed(2),
			TotalCapitalReturned:      report.Totals.TotalCapitalReturned.StringFixed(2),
			TotalInvestorProfit:       report.Totals.TotalInvestorProfit.StringFixed(2),
			TotalBusinessProfit:       report.Totals.TotalBusinessProfit.StringFixed(2),
			NewLoansAmount:            report.Totals.NewLoansAmount.StringFixed(2),
		},
	}
	for _, item := range report.Investors {
		resp.Investors = append(resp.Investors, InvestorReportItemResponse{
			InvestorID:                item.InvestorID.String(),
			InvestorName:              item.InvestorName,
			ProfitPercentage:          item.ProfitPercentage.StringFixed(2),
			ActiveLoans:               item.ActiveLoans,
			SettledLoans:              item.SettledLoans,
			TotalLentHistorical:       item.TotalLentHistorical.StringFixed(2),
			CurrentOutstandingBalance: item.CurrentOutstandingBalance.StringFixed(2),
			TotalInterestEarned:       item.TotalInterestEarned.StringFixed(2),
			TotalCapitalReturned:      item.TotalCapitalReturned.StringFixed(2),
			InvestorProfit:            item.InvestorProfit.StringFixed(2),
			BusinessProfit:            item.BusinessProfit.StringFixed(2),
			NewLoansAmount:            item.NewLoansAmount.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetPaymentSummary handles GET /api/reports/payments
func (h *ReportHandler) GetPaymentSummary(c echo.Context) error {
	filters, err := parseReportFilters(c)
	if err != nil {
		return err
	}

	summary, err := h.reportService.PaymentSummary(filters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build payment summary")
		return NewInternalError(c, "Failed to build payment summary")
	}

	resp := PaymentSummaryResponse{
		Payments: make([]PaymentSummaryItemResponse, 0, len(summary.Payments)),
		Totals: PaymentSummaryTotalsResponse{
			TotalInterest: summary.Totals.TotalInterest.StringFixed(2),
			TotalCapital:  summary.Totals.TotalCapital.StringFixed(2),
			TotalAmount:   summary.Totals.TotalAmount.StringFixed(2),
			TotalPayments: summary.Totals.TotalPayments,
		},
	}
	for _, item := range summary.Payments {
		resp.Payments = append(resp.Payments, PaymentSummaryItemResponse{
			Period:       item.Period,
			PaymentCount: item.PaymentCount,
			InterestPaid: item.InterestPaid.StringFixed(2),
			CapitalPaid:  item.CapitalPaid.StringFixed(2),
			TotalPaid:    item.TotalPaid.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetPortfolioSummary handles GET /api/reports/portfolio
func (h *ReportHandler) GetPortfolioSummary(c echo.Context) error {
	summary, err := h.reportService.PortfolioSummary()
	if err != nil {
		log.Error().Err(err).Msg("Failed to build portfolio summary")
		return NewInternalError(c, "Failed to build portfolio summary")
	}

	return c.JSON(http.StatusOK, PortfolioSummaryResponse{
		ActiveLoans: LoanGroupSummaryResponse{
			Count:       summary.ActiveLoans.Count,
			TotalAmount: summary.ActiveLoans.TotalAmount.StringFixed(2),
		},
		SettledLoans: LoanGroupSummaryResponse{
			Count:       summary.SettledLoans.Count,
			TotalAmount: summary.SettledLoans.TotalAmount.StringFixed(2),
		},
		Payments: PaymentGroupSummaryResponse{
			TotalInterest: summary.Payments.TotalInterest.StringFixed(2),
			TotalCapital:  summary.Payments.TotalCapital.StringFixed(2),
			TotalAmount:   summary.Payments.TotalAmount.StringFixed(2),
		},
		Customers: PeopleSummaryResponse{Total: summary.Customers.Total, Active: summary.Customers.Active},
		Investors: PeopleSummaryResponse{Total: summary.Investors.Total, Active: summary.Investors.Active},
	})
}

// ExportInvestorReport handles GET /api/reports/investors/export
func (h *ReportHandler) ExportInvestorReport(c echo.Context) error {
	filters, err := parseReportFilters(c)
	if err != nil {
		return err
	}

	data, err := h.exportService.InvestorReportXLSX(filters)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		log.Error().Err(err).Msg("Failed to export investor report")
		return NewInternalError(c, "Failed to export investor report")
	}

	filename := fmt.Sprintf("investor-report-%s.xlsx", time.Now().Format(dateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ExportPaymentSummary handles GET /api/reports/payments/export
func (h *ReportHandler) ExportPaymentSummary(c echo.Context) error {
	filters, err := parseReportFilters(c)
	if err != nil {
		return err
	}

	data, err := h.exportService.PaymentSummaryPDF(filters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to export payment summary")
		return NewInternalError(c, "Failed to export payment summary")
	}

	filename := fmt.Sprintf("payment-summary-%s.pdf", time.Now().Format(dateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}
