package unitofwork

import "context"

// RepositoryFactory hands out a fresh unit of work per request or worker
// turn. Units are cheap to create; a transaction starts only on Begin.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
