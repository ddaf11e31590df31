package contract

import (
	"context"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/repository/specification"
)

type FactRepository interface {
	Create(ctx context.Context, fact *entity.Fact) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Search ranks facts against the query text, best match first.
	Search(ctx context.Context, query string, limit int, specs ...specification.Specification) ([]*entity.RankedFact, error)
}
