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

// InvestorRepository implements domain.InvestorRepository using PostgreSQL
type InvestorRepository struct {
	pool *pgxpool.Pool
}

// NewInvestorRepository creates a new InvestorRepository
func NewInvestorRepository(pool *pgxpool.Pool) *InvestorRepository {
	return &InvestorRepository{pool: pool}
}

// Create creates a new investor
func (r *InvestorRepository) Create(investor *domain.Investor) (*domain.Investor, error) {
	ctx := context.Background()

	pct, err := decimalToPgNumeric(investor.ProfitPercentage)
	if err != nil {
		return nil, fmt.Errorf("invalid profit percentage: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO investors (name, profit_percentage, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, profit_percentage, is_active, created_at`,
		investor.Name, pct, investor.IsActive,
	)
	return scanInvestor(row)
}

// GetByID retrieves an investor by its ID
func (r *InvestorRepository) GetByID(id uuid.UUID) (*domain.Investor, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, profit_percentage, is_active, created_at
		FROM investors
		WHERE id = $1`, id,
	)
	investor, err := scanInvestor(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrInvestorNotFound
		}
		return nil, err
	}
	return investor, nil
}

// List retrieves investors with their loan stats, filtered and paginated
func (r *InvestorRepository) List(filter domain.InvestorFilter) ([]*domain.InvestorWithStats, int, error) {
	ctx := context.Background()

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND i.name ILIKE $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += fmt.Sprintf(" AND i.is_active = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM investors i " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT i.id, i.name, i.profit_percentage, i.is_active, i.created_at,
		       COUNT(l.id) AS active_loans,
		       COALESCE(SUM(l.current_balance), 0) AS total_invested
		FROM investors i
		LEFT JOIN loans l ON l.investor_id = i.id AND l.is_settled = FALSE
		` + where + `
		GROUP BY i.id
		ORDER BY i.name`

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

	result := make([]*domain.InvestorWithStats, 0)
	for rows.Next() {
		var (
			item          domain.InvestorWithStats
			pct           pgtype.Numeric
			totalInvested pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &pct, &item.IsActive, &item.CreatedAt,
			&item.ActiveLoansCount, &totalInvested,
		); err != nil {
			return nil, 0, err
		}
		item.ProfitPercentage = pgNumericToDecimal(pct)
		item.TotalInvested = pgNumericToDecimal(totalInvested)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListAll retrieves every investor without pagination
func (r *InvestorRepository) ListAll() ([]*domain.Investor, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, profit_percentage, is_active, created_at
		FROM investors
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Investor, 0)
	for rows.Next() {
		var (
			investor domain.Investor
			pct      pgtype.Numeric
		)
		if err := rows.Scan(
			&investor.ID, &investor.Name, &pct, &investor.IsActive, &investor.CreatedAt,
		); err != nil {
			return nil, err
		}
		investor.ProfitPercentage = pgNumericToDecimal(pct)
		result = append(result, &investor)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the total and active investor counts
func (r *InvestorRepository) Count() (int, int, error) {
	ctx := context.Background()

	var total, active int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM investors`,
	).Scan(&total, &active)
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// Update updates an investor's editable fields
func (r *InvestorRepository) Update(investor *domain.Investor) (*domain.Investor, error) {
	ctx := context.Background()

	pct, err := decimalToPgNumeric(investor.ProfitPercentage)
	if err != nil {
		return nil, fmt.Errorf("invalid profit percentage: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE investors
		SET name = $2, profit_percentage = $3, is_active = $4
		WHERE id = $1
		RETURNING id, name, profit_percentage, is_active, created_at`,
		investor.ID, investor.Name, pct, investor.IsActive,
	)
	updated, err := scanInvestor(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrInvestorNotFound
		}
		return nil, err
	}
	return updated, nil
}

func scanInvestor(row pgx.Row) (*domain.Investor, error) {
	var (
		investor domain.Investor
		pct      pgtype.Numeric
	)
	if err := row.Scan(
		&investor.ID, &investor.Name, &pct, &investor.IsActive, &investor.CreatedAt,
	); err != nil {
		return nil, err
	}
	investor.ProfitPercentage = pgNumericToDecimal(pct)
	return &investor, nil
}
