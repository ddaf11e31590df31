package service

import (
	"context"
	"sync"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/repository/contract"
	"mpersona-be/internal/repository/specification"
	"mpersona-be/internal/repository/unitofwork"
	"mpersona-be/pkg/metering"

	"github.com/google/uuid"
)

type fakeAccountRepository struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]*entity.Account
	err        error
	increments []recordedUsage
}

func (r *fakeAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Id] = account
	return nil
}

func (r *fakeAccountRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.accounts[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepository) IncrementUsage(ctx context.Context, id uuid.UUID, counter string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.increments = append(r.increments, recordedUsage{Account: id.String(), Counter: metering.Counter(counter), Amount: amount})
	return nil
}

func (r *fakeAccountRepository) recorded() []recordedUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedUsage(nil), r.increments...)
}

type fakeFactRepository struct {
	mu      sync.Mutex
	results []*entity.RankedFact
	err     error
	calls   int
	query   string
	limit   int
}

func (r *fakeFactRepository) Create(ctx context.Context, fact *entity.Fact) error {
	return nil
}

func (r *fakeFactRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.results)), nil
}

func (r *fakeFactRepository) Search(ctx context.Context, query string, limit int, specs ...specification.Specification) ([]*entity.RankedFact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.query = query
	r.limit = limit
	return r.results, r.err
}

type fakeUnitOfWork struct {
	accounts *fakeAccountRepository
	facts    *fakeFactRepository
}

func (u *fakeUnitOfWork) AccountRepository() contract.AccountRepository { return u.accounts }
func (u *fakeUnitOfWork) FactRepository() contract.FactRepository       { return u.facts }

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func newFakeRepositoryFactory() *fakeRepositoryFactory {
	return &fakeRepositoryFactory{uow: &fakeUnitOfWork{
		accounts: &fakeAccountRepository{accounts: map[uuid.UUID]*entity.Account{}},
		facts:    &fakeFactRepository{},
	}}
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}
