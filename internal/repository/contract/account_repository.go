package contract

import (
	"context"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error)

	// IncrementUsage adds amount to one usage counter in a single UPDATE.
	IncrementUsage(ctx context.Context, id uuid.UUID, counter string, amount int64) error
}
