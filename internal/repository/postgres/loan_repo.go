package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quincena/quincena-backend/internal/domain"
)

const loanColumns = `id, customer_id, investor_id, original_amount, current_balance,
	loan_date, payment_method, notes, is_settled, settled_at, created_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create creates a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	originalAmount, err := decimalToPgNumeric(loan.OriginalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid original amount: %w", err)
	}
	currentBalance, err := decimalToPgNumeric(loan.CurrentBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid current balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO loans (customer_id, investor_id, original_amount, current_balance,
			loan_date, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+loanColumns,
		loan.CustomerID, loan.InvestorID, originalAmount, currentBalance,
		loan.LoanDate, methodToText(loan.PaymentMethod), ptrToText(loan.Notes),
	)
	return scanLoan(row)
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByIDTx retrieves a loan inside an open transaction and locks its
// row, so concurrent journal mutations on the same loan serialize.
func (r *LoanRepository) GetByIDTx(tx domain.Tx, id uuid.UUID) (*domain.Loan, error) {
	ctx := context.Background()

	row := txConn(tx).QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List retrieves loans joined with names and payment totals, filtered and paginated
func (r *LoanRepository) List(filter domain.LoanFilter) ([]*domain.LoanWithStats, int, error) {
	ctx := context.Background()

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (c.name ILIKE $%d OR i.name ILIKE $%d)", len(args), len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		where += fmt.Sprintf(" AND l.customer_id = $%d", len(args))
	}
	if filter.InvestorID != nil {
		args = append(args, *filter.InvestorID)
		where += fmt.Sprintf(" AND l.investor_id = $%d", len(args))
	}
	if filter.IsSettled != nil {
		args = append(args, *filter.IsSettled)
		where += fmt.Sprintf(" AND l.is_settled = $%d", len(args))
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM loans l
		JOIN customers c ON c.id = l.customer_id
		JOIN investors i ON i.id = l.investor_id ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT l.id, l.customer_id, l.investor_id, l.original_amount, l.current_balance,
		       l.loan_date, l.payment_method, l.notes, l.is_settled, l.settled_at, l.created_at,
		       c.name, i.name,
		       COALESCE(SUM(p.interest_paid), 0) AS total_interest,
		       COALESCE(SUM(p.capital_paid), 0) AS total_capital
		FROM loans l
		JOIN customers c ON c.id = l.customer_id
		JOIN investors i ON i.id = l.investor_id
		LEFT JOIN payments p ON p.loan_id = l.id
		` + where + `
		GROUP BY l.id, c.name, i.name
		ORDER BY l.loan_date DESC, l.created_at DESC`

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]*domain.LoanWithStats, 0)
	for rows.Next() {
		var (
			item           domain.LoanWithStats
			originalAmount pgtype.Numeric
			currentBalance pgtype.Numeric
			method         pgtype.Text
			notes          pgtype.Text
			settledAt      pgtype.Timestamptz
			totalInterest  pgtype.Numeric
			totalCapital   pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID, &item.CustomerID, &item.InvestorID, &originalAmount, &currentBalance,
			&item.LoanDate, &method, &notes, &item.IsSettled, &settledAt, &item.CreatedAt,
			&item.CustomerName, &item.InvestorName, &totalInterest, &totalCapital,
		); err != nil {
			return nil, 0, err
		}
		item.OriginalAmount = pgNumericToDecimal(originalAmount)
		item.CurrentBalance = pgNumericToDecimal(currentBalance)
		item.PaymentMethod = textToMethod(method)
		item.Notes = textToPtr(notes)
		item.SettledAt = timestampToPtr(settledAt)
		item.TotalPaidInterest = pgNumericToDecimal(totalInterest)
		item.TotalPaidCapital = pgNumericToDecimal(totalCapital)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListByInvestor retrieves every loan assigned to an investor
func (r *LoanRepository) ListByInvestor(investorID uuid.UUID) ([]*domain.Loan, error) {
	return r.listWhere("WHERE investor_id = $1", investorID)
}

// ListByCustomer retrieves every loan taken by a customer
func (r *LoanRepository) ListByCustomer(customerID uuid.UUID) ([]*domain.Loan, error) {
	return r.listWhere("WHERE customer_id = $1", customerID)
}

// ListAll retrieves every loan
func (r *LoanRepository) ListAll() ([]*domain.Loan, error) {
	return r.listWhere("")
}

func (r *LoanRepository) listWhere(where string, args ...interface{}) ([]*domain.Loan, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM loans `+where+` ORDER BY loan_date, created_at`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update updates a loan's editable fields
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE loans
		SET loan_date = $2, payment_method = $3, notes = $4
		WHERE id = $1
		RETURNING `+loanColumns,
		loan.ID, loan.LoanDate, methodToText(loan.PaymentMethod), ptrToText(loan.Notes),
	)
	updated, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateBalance persists a recomputed balance
func (r *LoanRepository) UpdateBalance(id uuid.UUID, balance decimal.Decimal) error {
	return r.updateBalance(r.pool, id, balance)
}

// UpdateBalanceTx persists a re-derived balance inside an open transaction
func (r *LoanRepository) UpdateBalanceTx(tx domain.Tx, id uuid.UUID, balance decimal.Decimal) error {
	return r.updateBalance(txConn(tx), id, balance)
}

func (r *LoanRepository) updateBalance(q querier, id uuid.UUID, balance decimal.Decimal) error {
	ctx := context.Background()

	num, err := decimalToPgNumeric(balance)
	if err != nil {
		return fmt.Errorf("invalid balance: %w", err)
	}

	tag, err := q.Exec(ctx, `UPDATE loans SET current_balance = $2 WHERE id = $1`, id, num)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// SetSettled persists a settle or reopen transition
func (r *LoanRepository) SetSettled(id uuid.UUID, settled bool, settledAt *time.Time) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE loans SET is_settled = $2, settled_at = $3 WHERE id = $1`,
		id, settled, ptrToTimestamp(settledAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan           domain.Loan
		originalAmount pgtype.Numeric
		currentBalance pgtype.Numeric
		method         pgtype.Text
		notes          pgtype.Text
		settledAt      pgtype.Timestamptz
	)
	if err := row.Scan(
		&loan.ID, &loan.CustomerID, &loan.InvestorID, &originalAmount, &currentBalance,
		&loan.LoanDate, &method, &notes, &loan.IsSettled, &settledAt, &loan.CreatedAt,
	); err != nil {
		return nil, err
	}
	loan.OriginalAmount = pgNumericToDecimal(originalAmount)
	loan.CurrentBalance = pgNumericToDecimal(currentBalance)
	loan.PaymentMethod = textToMethod(method)
	loan.Notes = textToPtr(notes)
	loan.SettledAt = timestampToPtr(settledAt)
	return &loan, nil
}

func methodToText(m *domain.PaymentMethod) pgtype.Text {
	if m == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(*m), Valid: true}
}

func textToMethod(t pgtype.Text) *domain.PaymentMethod {
	if !t.Valid {
		return nil
	}
	m := domain.PaymentMethod(t.String)
	return &m
}
