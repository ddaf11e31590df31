package mapper

import (
	"mpersona-be/internal/entity"
	"mpersona-be/internal/model"
)

type AccountMapper struct{}

func NewAccountMapper() *AccountMapper {
	return &AccountMapper{}
}

func (m *AccountMapper) ToEntity(a *model.Account) *entity.Account {
	if a == nil {
		return nil
	}
	return &entity.Account{
		Id:                     a.Id,
		Username:               a.Username,
		Email:                  a.Email,
		Status:                 entity.AccountStatus(a.Status),
		CharactersUsed:         a.CharactersUsed,
		OwnCharactersUsed:      a.OwnCharactersUsed,
		CharacterReserve:       a.CharacterReserve,
		OpenAIApiKey:           a.OpenAIApiKey,
		AnthropicApiKey:        a.AnthropicApiKey,
		AzureOpenAIApiKey:      a.AzureOpenAIApiKey,
		AzureOpenAIApiEndpoint: a.AzureOpenAIApiEndpoint,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (m *AccountMapper) ToModel(a *entity.Account) *model.Account {
	if a == nil {
		return nil
	}
	return &model.Account{
		Id:                     a.Id,
		Username:               a.Username,
		Email:                  a.Email,
		Status:                 string(a.Status),
		CharactersUsed:         a.CharactersUsed,
		OwnCharactersUsed:      a.OwnCharactersUsed,
		CharacterReserve:       a.CharacterReserve,
		OpenAIApiKey:           a.OpenAIApiKey,
		AnthropicApiKey:        a.AnthropicApiKey,
		AzureOpenAIApiKey:      a.AzureOpenAIApiKey,
		AzureOpenAIApiEndpoint: a.AzureOpenAIApiEndpoint,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}
