package service

import (
	"context"
	"errors"
	"fmt"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/entity"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/pkg/serverutils"
	"mpersona-be/internal/repository/specification"
	"mpersona-be/internal/repository/unitofwork"
	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/metering"

	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")

type IAccountService interface {
	// FindAccountByToken returns nil without error for an empty, invalid or
	// unknown token; such callers are anonymous.
	FindAccountByToken(ctx context.Context, token string) (*entity.Account, error)
	GetUsage(ctx context.Context, accountId uuid.UUID) (*dto.UsageResponse, error)
}

type accountService struct {
	uowFactory unitofwork.RepositoryFactory
	jwtSecret  string
	logger     logger.ILogger
}

func NewAccountService(uowFactory unitofwork.RepositoryFactory, jwtSecret string, log logger.ILogger) IAccountService {
	return &accountService{
		uowFactory: uowFactory,
		jwtSecret:  jwtSecret,
		logger:     log,
	}
}

func (s *accountService) FindAccountByToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, nil
	}

	accountId, err := serverutils.ParseAccountToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Debug("ACCOUNT", "Ignoring unusable token", map[string]interface{}{"reason": err.Error()})
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: accountId})
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func (s *accountService) GetUsage(ctx context.Context, accountId uuid.UUID) (*dto.UsageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: accountId})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	remaining := account.CharacterReserve - account.CharactersUsed
	if remaining < 0 {
		remaining = 0
	}

	ownKeys := []string{}
	for _, provider := range []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderAzureOpenAI} {
		if OwnCredential(account, provider) != nil {
			ownKeys = append(ownKeys, provider)
		}
	}

	return &dto.UsageResponse{
		AccountId:         account.Id,
		CharactersUsed:    account.CharactersUsed,
		OwnCharactersUsed: account.OwnCharactersUsed,
		CharacterReserve:  account.CharacterReserve,
		Remaining:         remaining,
		OwnKeys:           ownKeys,
	}, nil
}

// OwnCredential returns the account's stored credential for the provider, or nil.
func OwnCredential(account *entity.Account, provider string) *llm.Credential {
	if account == nil {
		return nil
	}

	switch provider {
	case llm.ProviderOpenAI:
		if account.OpenAIApiKey != "" {
			return &llm.Credential{APIKey: account.OpenAIApiKey}
		}
	case llm.ProviderAnthropic:
		if account.AnthropicApiKey != "" {
			return &llm.Credential{APIKey: account.AnthropicApiKey}
		}
	case llm.ProviderAzureOpenAI:
		if account.AzureOpenAIApiKey != "" {
			return &llm.Credential{APIKey: account.AzureOpenAIApiKey, Endpoint: account.AzureOpenAIApiEndpoint}
		}
	}
	return nil
}

// UsageSnapshot converts an account into the metering view for one provider.
func UsageSnapshot(account *entity.Account, provider string) *metering.Account {
	if account == nil {
		return nil
	}
	return &metering.Account{
		UUID:              account.Id.String(),
		CharactersUsed:    account.CharactersUsed,
		OwnCharactersUsed: account.OwnCharactersUsed,
		CharacterReserve:  account.CharacterReserve,
		OwnKey:            OwnCredential(account, provider) != nil,
	}
}
