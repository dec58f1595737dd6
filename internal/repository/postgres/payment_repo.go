package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quincena/quincena-backend/internal/domain"
)

const paymentColumns = `id, loan_id, payment_date, interest_paid, capital_paid,
	payment_method, notes, created_at`

// journalOrder is the canonical ordering of the payment journal
const journalOrder = " ORDER BY payment_date, created_at"

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create creates a new payment
func (r *PaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	return r.create(r.pool, payment)
}

// CreateTx creates a new payment inside an open transaction
func (r *PaymentRepository) CreateTx(tx domain.Tx, payment *domain.Payment) (*domain.Payment, error) {
	return r.create(txConn(tx), payment)
}

func (r *PaymentRepository) create(q querier, payment *domain.Payment) (*domain.Payment, error) {
	ctx := context.Background()

	interestPaid, err := decimalToPgNumeric(payment.InterestPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid interest paid: %w", err)
	}
	capitalPaid, err := decimalToPgNumeric(payment.CapitalPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid capital paid: %w", err)
	}

	row := q.QueryRow(ctx, `
		INSERT INTO payments (loan_id, payment_date, interest_paid, capital_paid,
			payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+paymentColumns,
		payment.LoanID, payment.PaymentDate, interestPaid, capitalPaid,
		methodToText(payment.PaymentMethod), ptrToText(payment.Notes),
	)
	return scanPayment(row)
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// List retrieves payments joined with names, filtered and paginated
func (r *PaymentRepository) List(filter domain.PaymentFilter) ([]*domain.PaymentWithNames, int, error) {
	ctx := context.Background()

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (c.name ILIKE $%d OR i.name ILIKE $%d)", len(args), len(args))
	}
	if filter.LoanID != nil {
		args = append(args, *filter.LoanID)
		where += fmt.Sprintf(" AND p.loan_id = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		where += fmt.Sprintf(" AND l.customer_id = $%d", len(args))
	}
	if filter.InvestorID != nil {
		args = append(args, *filter.InvestorID)
		where += fmt.Sprintf(" AND l.investor_id = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND p.payment_date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND p.payment_date <= $%d", len(args))
	}

	joins := `
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		JOIN customers c ON c.id = l.customer_id
		JOIN investors i ON i.id = l.investor_id `

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+joins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id, p.loan_id, p.payment_date, p.interest_paid, p.capital_paid,
		       p.payment_method, p.notes, p.created_at, c.name, i.name ` +
		joins + where + " ORDER BY p.payment_date DESC, p.created_at DESC"

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

	result := make([]*domain.PaymentWithNames, 0)
	for rows.Next() {
		var (
			item         domain.PaymentWithNames
			interestPaid pgtype.Numeric
			capitalPaid  pgtype.Numeric
			method       pgtype.Text
			notes        pgtype.Text
		)
		if err := rows.Scan(
			&item.ID, &item.LoanID, &item.PaymentDate, &interestPaid, &capitalPaid,
			&method, &notes, &item.CreatedAt, &item.CustomerName, &item.InvestorName,
		); err != nil {
			return nil, 0, err
		}
		item.InterestPaid = pgNumericToDecimal(interestPaid)
		item.CapitalPaid = pgNumericToDecimal(capitalPaid)
		item.PaymentMethod = textToMethod(method)
		item.Notes = textToPtr(notes)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListByLoan retrieves a loan's full journal in canonical order
func (r *PaymentRepository) ListByLoan(loanID uuid.UUID) ([]*domain.Payment, error) {
	return r.listByLoan(r.pool, loanID)
}

// ListByLoanTx retrieves the journal inside an open transaction, so a
// fold sees the mutation it follows.
func (r *PaymentRepository) ListByLoanTx(tx domain.Tx, loanID uuid.UUID) ([]*domain.Payment, error) {
	return r.listByLoan(txConn(tx), loanID)
}

func (r *PaymentRepository) listByLoan(q querier, loanID uuid.UUID) ([]*domain.Payment, error) {
	ctx := context.Background()

	rows, err := q.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1`+journalOrder,
		loanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListByInvestor retrieves payments against an investor's loans within a window
func (r *PaymentRepository) ListByInvestor(investorID uuid.UUID, start, end *time.Time) ([]*domain.Payment, error) {
	ctx := context.Background()

	where := "WHERE l.investor_id = $1"
	args := []interface{}{investorID}
	if start != nil {
		args = append(args, *start)
		where += fmt.Sprintf(" AND p.payment_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		where += fmt.Sprintf(" AND p.payment_date <= $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.loan_id, p.payment_date, p.interest_paid, p.capital_paid,
		       p.payment_method, p.notes, p.created_at
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		`+where+` ORDER BY p.payment_date, p.created_at`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListAll retrieves payments within a window in canonical order
func (r *PaymentRepository) ListAll(start, end *time.Time) ([]*domain.Payment, error) {
	ctx := context.Background()

	where := "WHERE 1=1"
	args := []interface{}{}
	if start != nil {
		args = append(args, *start)
		where += fmt.Sprintf(" AND payment_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		where += fmt.Sprintf(" AND payment_date <= $%d", len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments `+where+journalOrder,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// Update updates a payment's editable fields
func (r *PaymentRepository) Update(payment *domain.Payment) (*domain.Payment, error) {
	return r.update(r.pool, payment)
}

// UpdateTx updates a payment inside an open transaction
func (r *PaymentRepository) UpdateTx(tx domain.Tx, payment *domain.Payment) (*domain.Payment, error) {
	return r.update(txConn(tx), payment)
}

func (r *PaymentRepository) update(q querier, payment *domain.Payment) (*domain.Payment, error) {
	ctx := context.Background()

	interestPaid, err := decimalToPgNumeric(payment.InterestPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid interest paid: %w", err)
	}
	capitalPaid, err := decimalToPgNumeric(payment.CapitalPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid capital paid: %w", err)
	}

	row := q.QueryRow(ctx, `
		UPDATE payments
		SET payment_date = $2, interest_paid = $3, capital_paid = $4,
		    payment_method = $5, notes = $6
		WHERE id = $1
		RETURNING `+paymentColumns,
		payment.ID, payment.PaymentDate, interestPaid, capitalPaid,
		methodToText(payment.PaymentMethod), ptrToText(payment.Notes),
	)
	updated, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a payment from the journal
func (r *PaymentRepository) Delete(id uuid.UUID) error {
	return r.delete(r.pool, id)
}

// DeleteTx removes a payment inside an open transaction
func (r *PaymentRepository) DeleteTx(tx domain.Tx, id uuid.UUID) error {
	return r.delete(txConn(tx), id)
}

func (r *PaymentRepository) delete(q querier, id uuid.UUID) error {
	ctx := context.Background()

	tag, err := q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	result := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment      domain.Payment
		interestPaid pgtype.Numeric
		capitalPaid  pgtype.Numeric
		method       pgtype.Text
		notes        pgtype.Text
	)
	if err := row.Scan(
		&payment.ID, &payment.LoanID, &payment.PaymentDate, &interestPaid, &capitalPaid,
		&method, &notes, &payment.CreatedAt,
	); err != nil {
		return nil, err
	}
	payment.InterestPaid = pgNumericToDecimal(interestPaid)
	payment.CapitalPaid = pgNumericToDecimal(capitalPaid)
	payment.PaymentMethod = textToMethod(method)
	payment.Notes = textToPtr(notes)
	return &payment, nil
}
