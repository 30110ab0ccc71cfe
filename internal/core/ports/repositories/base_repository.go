package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically.
type TransactionManager interface {
	// WithTx runs fn against a repository bound to a single store transaction. The transaction
	// commits when fn returns nil and rolls back otherwise; partial writes are never visible.
	WithTx(ctx context.Context, fn func(txRepo LedgerRepositoryFacade) error) error
}
