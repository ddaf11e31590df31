package unitofwork

import (
	"context"

	"mpersona-be/internal/repository/contract"
)

// UnitOfWork hands out repositories bound to one database handle.
type UnitOfWork interface {
	AccountRepository() contract.AccountRepository
	FactRepository() contract.FactRepository
}

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
