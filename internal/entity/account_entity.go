package entity

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

type Account struct {
	Id       uuid.UUID
	Username string
	Email    string
	Status   AccountStatus

	CharactersUsed    int64
	OwnCharactersUsed int64
	CharacterReserve  int64

	// Bring-your-own-key credentials
	OpenAIApiKey           string
	AnthropicApiKey        string
	AzureOpenAIApiKey      string
	AzureOpenAIApiEndpoint string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
