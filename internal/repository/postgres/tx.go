package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quincena/quincena-backend/internal/domain"
)

// TxManager starts pgx transactions for writes that span statements
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a transaction
func (m *TxManager) Begin(ctx context.Context) (domain.Tx, error) {
	return m.pool.Begin(ctx)
}

// txConn unwraps a domain.Tx back to the pgx transaction it came from
func txConn(tx domain.Tx) pgx.Tx {
	return tx.(pgx.Tx)
}

// querier is the query surface shared by the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
