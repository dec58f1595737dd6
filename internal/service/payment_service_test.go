package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/testutil"
)

type paymentFixture struct {
	tx        *testutil.MockTxBeginner
	loans     *testutil.MockLoanRepository
	payments  *testutil.MockPaymentRepository
	publisher *testutil.MockEventPublisher
	service   *PaymentService
	loan      *domain.Loan
}

func newPaymentFixture(t *testing.T, amount string) *paymentFixture {
	t.Helper()

	tx := testutil.NewMockTxBeginner()
	loans := testutil.NewMockLoanRepository()
	payments := testutil.NewMockPaymentRepository()
	payments.Loans = loans
	publisher := testutil.NewMockEventPublisher()

	amt := decimal.RequireFromString(amount)
	loan, _ := loans.Create(&domain.Loan{
		CustomerID:     uuid.New(),
		InvestorID:     uuid.New(),
		OriginalAmount: amt,
		CurrentBalance: amt,
		LoanDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})

	return &paymentFixture{
		tx:        tx,
		loans:     loans,
		payments:  payments,
		publisher: publisher,
		service:   NewPaymentService(tx, payments, loans, publisher),
		loan:      loan,
	}
}

func TestCreatePayment_RederivesBalance(t *testing.T) {
	// 10000 loan, 2500 capital payment: balance 7500, expected interest 375
	f := newPaymentFixture(t, "10000.00")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:       f.loan.ID,
		PaymentDate:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		InterestPaid: decimal.RequireFromString("500.00"),
		CapitalPaid:  decimal.RequireFromString("2500.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("7500.00")) {
		t.Errorf("Expected balance 7500.00, got %s", loan.CurrentBalance.String())
	}
	if !loan.ExpectedInterest().Equal(decimal.RequireFromString("375.00")) {
		t.Errorf("Expected interest 375.00, got %s", loan.ExpectedInterest().String())
	}
}

func TestCreatePayment_InterestOnlyLeavesBalance(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:       f.loan.ID,
		PaymentDate:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		InterestPaid: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("Interest-only payment must not touch balance, got %s", loan.CurrentBalance.String())
	}
}

func TestCreatePayment_OverpaymentGoesNegative(t *testing.T) {
	f := newPaymentFixture(t, "100.00")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("150.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("-50.00")) {
		t.Errorf("Expected -50.00, got %s", loan.CurrentBalance.String())
	}
}

func TestCreatePayment_SettledLoanAccepted(t *testing.T) {
	// Money arriving after a settle still counts
	f := newPaymentFixture(t, "1000.00")
	now := time.Now()
	f.loan.Settle(now)

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("Payment against settled loan must be accepted: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.IsSettled {
		t.Error("Payment must not reopen a settled loan")
	}
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("900.00")) {
		t.Errorf("Expected 900.00, got %s", loan.CurrentBalance.String())
	}
}

func TestCreatePayment_Rejections(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:      uuid.New(),
		PaymentDate: time.Now(),
		CapitalPaid: decimal.NewFromInt(10),
	})
	if err != domain.ErrLoanNotFound {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}

	_, err = f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Now(),
	})
	if err != domain.ErrPaymentAmountsInvalid {
		t.Errorf("Expected ErrPaymentAmountsInvalid for zero amounts, got %v", err)
	}

	_, err = f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		CapitalPaid: decimal.NewFromInt(10),
	})
	if err != domain.ErrPaymentDateRequired {
		t.Errorf("Expected ErrPaymentDateRequired, got %v", err)
	}
}

func TestUpdatePayment_RederivesBalance(t *testing.T) {
	f := newPaymentFixture(t, "10000.00")

	payment, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("2500.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	// Amend the capital component
	_, err = f.service.UpdatePayment(payment.ID, PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: payment.PaymentDate,
		CapitalPaid: decimal.RequireFromString("3000.00"),
	})
	if err != nil {
		t.Fatalf("UpdatePayment failed: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("7000.00")) {
		t.Errorf("Expected 7000.00 after amendment, got %s", loan.CurrentBalance.String())
	}
}

func TestDeletePayment_RederivesBalance(t *testing.T) {
	f := newPaymentFixture(t, "10000.00")

	payment, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("2500.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	if err := f.service.DeletePayment(payment.ID); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}

	loan, _ := f.loans.GetByID(f.loan.ID)
	if !loan.CurrentBalance.Equal(decimal.RequireFromString("10000.00")) {
		t.Errorf("Expected balance restored to 10000.00, got %s", loan.CurrentBalance.String())
	}

	got := f.publisher.EventTypes()
	want := []string{"payment.created", "payment.deleted"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected events %v, got %v", want, got)
	}
}

func TestListLoanPayments_JournalOrder(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	// Inserted out of order; listing must come back by paymentDate
	later, _ := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.NewFromInt(10),
	})
	earlier, _ := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.NewFromInt(20),
	})

	journal, err := f.service.ListLoanPayments(f.loan.ID)
	if err != nil {
		t.Fatalf("ListLoanPayments failed: %v", err)
	}
	if len(journal) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(journal))
	}
	if journal[0].ID != earlier.ID || journal[1].ID != later.ID {
		t.Error("Journal must be ordered by payment date, not insertion order")
	}
}

func TestCreatePayment_MissingLoan(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	_, err := f.service.CreatePayment(PaymentInput{
		PaymentDate: time.Now(),
		CapitalPaid: decimal.NewFromInt(10),
	})
	if err != domain.ErrPaymentLoanRequired {
		t.Errorf("Expected ErrPaymentLoanRequired for zero loan ID, got %v", err)
	}
	if len(f.tx.Txs) != 0 {
		t.Error("Validation failures must not open a transaction")
	}
}

func TestCreatePayment_CommitsInOneTransaction(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	if len(f.tx.Txs) != 1 {
		t.Fatalf("Expected one transaction, got %d", len(f.tx.Txs))
	}
	if !f.tx.LastTx().Committed || f.tx.LastTx().RolledBack {
		t.Error("Journal insert and balance write must commit together")
	}
}

func TestCreatePayment_RollsBackWhenBalanceWriteFails(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")
	f.loans.UpdateBalanceErr = errors.New("connection reset")

	_, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("100.00"),
	})
	if err == nil {
		t.Fatal("Expected CreatePayment to fail when the balance write fails")
	}

	if !f.tx.LastTx().RolledBack || f.tx.LastTx().Committed {
		t.Error("A failed balance write must roll the journal insert back")
	}
	if len(f.publisher.EventTypes()) != 0 {
		t.Error("No event may be published for a rolled-back payment")
	}
}

func TestDeletePayment_RollsBackWhenBalanceWriteFails(t *testing.T) {
	f := newPaymentFixture(t, "1000.00")

	payment, err := f.service.CreatePayment(PaymentInput{
		LoanID:      f.loan.ID,
		PaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CapitalPaid: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	f.loans.UpdateBalanceErr = errors.New("connection reset")
	if err := f.service.DeletePayment(payment.ID); err == nil {
		t.Fatal("Expected DeletePayment to fail when the balance write fails")
	}
	if !f.tx.LastTx().RolledBack || f.tx.LastTx().Committed {
		t.Error("A failed balance write must roll the journal delete back")
	}
}
