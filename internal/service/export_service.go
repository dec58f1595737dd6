package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/quincena/quincena-backend/internal/domain"
)

// ExportService renders reports as downloadable files
type ExportService struct {
	reports *ReportService
}

// NewExportService creates a new ExportService
func NewExportService(reports *ReportService) *ExportService {
	return &ExportService{reports: reports}
}

// InvestorReportXLSX renders the investor report as an XLSX workbook
func (s *ExportService) InvestorReportXLSX(filters domain.ReportFilters) ([]byte, error) {
	report, err := s.reports.InvestorReport(filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "investors"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Investor", "Profit %", "Active Loans", "Settled Loans",
		"Total Lent", "Outstanding", "Interest Earned", "Capital Returned",
		"Investor Profit", "Business Profit", "New Loans",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range report.Investors {
		row := i + 2
		values := []interface{}{
			item.InvestorName,
			item.ProfitPercentage.StringFixed(2),
			item.ActiveLoans,
			item.SettledLoans,
			item.TotalLentHistorical.StringFixed(2),
			item.CurrentOutstandingBalance.StringFixed(2),
			item.TotalInterestEarned.StringFixed(2),
			item.TotalCapitalReturned.StringFixed(2),
			item.InvestorProfit.StringFixed(2),
			item.BusinessProfit.StringFixed(2),
			item.NewLoansAmount.StringFixed(2),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	totalsRow := len(report.Investors) + 3
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "Totals")
	totals := []struct {
		col   int
		value string
	}{
		{5, report.Totals.TotalLentHistorical.StringFixed(2)},
		{6, report.Totals.CurrentOutstandingBalance.StringFixed(2)},
		{7, report.Totals.TotalInterestEarned.StringFixed(2)},
		{8, report.Totals.TotalCapitalReturned.StringFixed(2)},
		{9, report.Totals.TotalInvestorProfit.StringFixed(2)},
		{10, report.Totals.TotalBusinessProfit.StringFixed(2)},
		{11, report.Totals.NewLoansAmount.StringFixed(2)},
	}
	for _, t := range totals {
		cell, _ := excelize.CoordinatesToCellName(t.col, totalsRow)
		_ = f.SetCellValue(sheet, cell, t.value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PaymentSummaryPDF renders the payment summary as a PDF
func (s *ExportService) PaymentSummaryPDF(filters domain.ReportFilters) ([]byte, error) {
	summary, err := s.reports.PaymentSummary(filters)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Payment Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if filters.StartDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("From: %s", filters.StartDate.Format("2006-01-02")))
		pdf.Ln(5)
	}
	if filters.EndDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("To: %s", filters.EndDate.Format("2006-01-02")))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Period", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Payments", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Interest", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Capital", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range summary.Payments {
		pdf.CellFormat(35, 6, item.Period, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", item.PaymentCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, item.InterestPaid.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, item.CapitalPaid.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, item.TotalPaid.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Totals", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, fmt.Sprintf("%d", summary.Totals.TotalPayments), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, summary.Totals.TotalInterest.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, summary.Totals.TotalCapital.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, summary.Totals.TotalAmount.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
