package implementation

import (
	"context"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/mapper"
	"mpersona-be/internal/model"
	"mpersona-be/internal/repository/contract"
	"mpersona-be/internal/repository/specification"

	"gorm.io/gorm"
)

// FactDocument is the weighted text a fact is ranked on. cmd/migrate indexes the same expression.
const FactDocument = "setweight(to_tsvector('english', coalesce(facts.fact, '')), 'A') || " +
	"setweight(to_tsvector('english', coalesce(facts.keywords::text, '')), 'A') || " +
	"setweight(to_tsvector('english', coalesce(facts.questions::text, '')), 'B') || " +
	"setweight(to_tsvector('english', coalesce(facts.context, '')), 'D')"

type FactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FactMapper
}

func NewFactRepository(db *gorm.DB) contract.FactRepository {
	return &FactRepositoryImpl{
		db:     db,
		mapper: mapper.NewFactMapper(),
	}
}

func (r *FactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FactRepositoryImpl) Create(ctx context.Context, fact *entity.Fact) error {
	modelFact := r.mapper.ToModel(fact)
	if err := r.db.WithContext(ctx).Create(modelFact).Error; err != nil {
		return err
	}
	*fact = *r.mapper.ToEntity(modelFact)
	return nil
}

func (r *FactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Fact{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FactRepositoryImpl) Search(ctx context.Context, query string, limit int, specs ...specification.Specification) ([]*entity.RankedFact, error) {
	var rows []*model.RankedFact

	db := r.db.WithContext(ctx).Model(&model.Fact{}).
		Select("facts.*, ts_rank("+FactDocument+", plainto_tsquery('english', ?)) AS score", query).
		Where(FactDocument+" @@ plainto_tsquery('english', ?)", query)

	db = r.applySpecifications(db, specs...)

	if err := db.Order("score DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToRankedEntities(rows), nil
}
