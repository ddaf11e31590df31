package implementation

import (
	"context"
	"errors"
	"fmt"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/mapper"
	"mpersona-be/internal/model"
	"mpersona-be/internal/repository/contract"
	"mpersona-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var usageCounters = map[string]bool{
	"characters_used":     true,
	"own_characters_used": true,
}

type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewAccountRepository(db *gorm.DB) contract.AccountRepository {
	return &AccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *AccountRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entity.Account) error {
	modelAccount := r.mapper.ToModel(account)
	if err := r.db.WithContext(ctx).Create(modelAccount).Error; err != nil {
		return err
	}
	*account = *r.mapper.ToEntity(modelAccount)
	return nil
}

func (r *AccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	var modelAccount model.Account
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelAccount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelAccount), nil
}

func (r *AccountRepositoryImpl) IncrementUsage(ctx context.Context, id uuid.UUID, counter string, amount int64) error {
	if !usageCounters[counter] {
		return fmt.Errorf("unknown usage counter %q", counter)
	}

	return r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", amount)).Error
}
