package domain

import "context"

// Tx is a unit of work spanning multiple repository calls. Rollback
// after Commit is a no-op so callers can defer it.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner starts transactions. Journal mutations and the balance
// re-derivation they trigger must share one transaction so the stored
// balance can never outlive a partial write.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}
