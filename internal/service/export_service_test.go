package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/quincena/quincena-backend/internal/domain"
)

func TestInvestorReportXLSX(t *testing.T) {
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Rosa", "40")
	loan := f.addLoan(t, investor.ID, "5000.00", "4000.00", false, date(2024, time.March, 1))
	f.addPayment(t, loan.ID, date(2024, time.March, 20), "250.00", "1000.00")

	exports := NewExportService(f.service)
	data, err := exports.InvestorReportXLSX(domain.ReportFilters{})
	if err != nil {
		t.Fatalf("InvestorReportXLSX failed: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Generated workbook did not open: %v", err)
	}
	defer wb.Close()

	header, err := wb.GetCellValue("investors", "A1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if header != "Investor" {
		t.Errorf("Expected header 'Investor' in A1, got %q", header)
	}

	name, _ := wb.GetCellValue("investors", "A2")
	if name != "Rosa" {
		t.Errorf("Expected investor row 'Rosa', got %q", name)
	}
	profit, _ := wb.GetCellValue("investors", "I2")
	if profit != "100.00" {
		t.Errorf("Expected investor profit 100.00, got %q", profit)
	}
}

func TestPaymentSummaryPDF(t *testing.T) {
	f := newReportFixture(t)
	investor := f.addInvestor(t, "Rosa", "40")
	loan := f.addLoan(t, investor.ID, "5000.00", "4000.00", false, date(2024, time.March, 1))
	f.addPayment(t, loan.ID, date(2024, time.March, 20), "250.00", "1000.00")

	exports := NewExportService(f.service)
	data, err := exports.PaymentSummaryPDF(domain.ReportFilters{})
	if err != nil {
		t.Fatalf("PaymentSummaryPDF failed: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("Expected PDF magic bytes, got %q", data[:min(len(data), 8)])
	}
}
