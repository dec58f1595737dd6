package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quincena/quincena-backend/internal/domain"
)

// CustomerRepository implements domain.CustomerRepository using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create creates a new customer
func (r *CustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, notes, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, phone, notes, is_active, created_at, updated_at`,
		customer.Name, ptrToText(customer.Phone), ptrToText(customer.Notes), customer.IsActive,
	)
	return scanCustomer(row)
}

// GetByID retrieves a customer by its ID
func (r *CustomerRepository) GetByID(id uuid.UUID) (*domain.Customer, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, notes, is_active, created_at, updated_at
		FROM customers
		WHERE id = $1`, id,
	)
	customer, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// List retrieves customers with their loan stats, filtered and paginated
func (r *CustomerRepository) List(filter domain.CustomerFilter) ([]*domain.CustomerWithStats, int, error) {
	ctx := context.Background()

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND c.name ILIKE $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += fmt.Sprintf(" AND c.is_active = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM customers c " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.name, c.phone, c.notes, c.is_active, c.created_at, c.updated_at,
		       COUNT(l.id) AS active_loans,
		       COALESCE(SUM(l.current_balance), 0) AS total_owed
		FROM customers c
		LEFT JOIN loans l ON l.customer_id = c.id AND l.is_settled = FALSE
		` + where + `
		GROUP BY c.id
		ORDER BY c.name`

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

	result := make([]*domain.CustomerWithStats, 0)
	for rows.Next() {
		var (
			item      domain.CustomerWithStats
			phone     pgtype.Text
			notes     pgtype.Text
			totalOwed pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &phone, &notes, &item.IsActive,
			&item.CreatedAt, &item.UpdatedAt,
			&item.ActiveLoansCount, &totalOwed,
		); err != nil {
			return nil, 0, err
		}
		item.Phone = textToPtr(phone)
		item.Notes = textToPtr(notes)
		item.TotalOwed = pgNumericToDecimal(totalOwed)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Count returns the total and active customer counts
func (r *CustomerRepository) Count() (int, int, error) {
	ctx := context.Background()

	var total, active int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM customers`,
	).Scan(&total, &active)
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// Update updates a customer's editable fields
func (r *CustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, phone, notes, is_active, created_at, updated_at`,
		customer.ID, customer.Name, ptrToText(customer.Phone), ptrToText(customer.Notes),
	)
	updated, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SetActive flips the customer's active flag
func (r *CustomerRepository) SetActive(id uuid.UUID, active bool) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET is_active = $2, updated_at = NOW() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		customer domain.Customer
		phone    pgtype.Text
		notes    pgtype.Text
	)
	if err := row.Scan(
		&customer.ID, &customer.Name, &phone, &notes,
		&customer.IsActive, &customer.CreatedAt, &customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	customer.Phone = textToPtr(phone)
	customer.Notes = textToPtr(notes)
	return &customer, nil
}
