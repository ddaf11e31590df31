package service

import (
	"context"
	"errors"
	"testing"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/metering"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestFindAccountByToken(t *testing.T) {
	factory := newFakeRepositoryFactory()
	account := &entity.Account{Id: uuid.New(), Username: "ada", CharacterReserve: 500}
	factory.uow.accounts.accounts[account.Id] = account

	svc := NewAccountService(factory, testSecret, logger.NewNopLogger())
	ctx := context.Background()

	t.Run("empty token is anonymous", func(t *testing.T) {
		got, err := svc.FindAccountByToken(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("bad signature is anonymous", func(t *testing.T) {
		got, err := svc.FindAccountByToken(ctx, signToken(t, jwt.MapClaims{"uuid": account.Id.String()}, "other"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("valid token loads the account", func(t *testing.T) {
		got, err := svc.FindAccountByToken(ctx, signToken(t, jwt.MapClaims{"uuid": account.Id.String()}, testSecret))
		require.NoError(t, err)
		assert.Equal(t, account, got)
	})

	t.Run("unknown account is anonymous", func(t *testing.T) {
		got, err := svc.FindAccountByToken(ctx, signToken(t, jwt.MapClaims{"uuid": uuid.NewString()}, testSecret))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestFindAccountByTokenStoreError(t *testing.T) {
	factory := newFakeRepositoryFactory()
	factory.uow.accounts.err = errors.New("connection refused")

	svc := NewAccountService(factory, testSecret, logger.NewNopLogger())
	_, err := svc.FindAccountByToken(context.Background(), signToken(t, jwt.MapClaims{"uuid": uuid.NewString()}, testSecret))
	assert.ErrorIs(t, err, factory.uow.accounts.err)
}

func TestGetUsage(t *testing.T) {
	factory := newFakeRepositoryFactory()
	account := &entity.Account{
		Id:                uuid.New(),
		CharactersUsed:    120,
		OwnCharactersUsed: 40,
		CharacterReserve:  100,
		AnthropicApiKey:   "sk-ant",
	}
	factory.uow.accounts.accounts[account.Id] = account

	svc := NewAccountService(factory, testSecret, logger.NewNopLogger())

	res, err := svc.GetUsage(context.Background(), account.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(120), res.CharactersUsed)
	assert.Equal(t, int64(40), res.OwnCharactersUsed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, []string{llm.ProviderAnthropic}, res.OwnKeys)

	_, err = svc.GetUsage(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestOwnCredential(t *testing.T) {
	account := &entity.Account{
		OpenAIApiKey:           "sk-oa",
		AzureOpenAIApiKey:      "az-key",
		AzureOpenAIApiEndpoint: "https://example.openai.azure.com",
	}

	assert.Equal(t, &llm.Credential{APIKey: "sk-oa"}, OwnCredential(account, llm.ProviderOpenAI))
	assert.Nil(t, OwnCredential(account, llm.ProviderAnthropic))
	assert.Equal(t, &llm.Credential{APIKey: "az-key", Endpoint: "https://example.openai.azure.com"}, OwnCredential(account, llm.ProviderAzureOpenAI))
	assert.Nil(t, OwnCredential(account, "cohere"))
	assert.Nil(t, OwnCredential(nil, llm.ProviderOpenAI))
}

func TestUsageSnapshot(t *testing.T) {
	assert.Nil(t, UsageSnapshot(nil, llm.ProviderOpenAI))

	account := &entity.Account{Id: uuid.New(), CharactersUsed: 5, CharacterReserve: 10, OpenAIApiKey: "sk"}
	snap := UsageSnapshot(account, llm.ProviderOpenAI)
	assert.Equal(t, &metering.Account{
		UUID:             account.Id.String(),
		CharactersUsed:   5,
		CharacterReserve: 10,
		OwnKey:           true,
	}, snap)

	assert.False(t, UsageSnapshot(account, llm.ProviderAnthropic).OwnKey)
}
