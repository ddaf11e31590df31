package dto

import "github.com/google/uuid"

// UsageIncrement is the queued form of one metered request.
type UsageIncrement struct {
	AccountId uuid.UUID `json:"account_id"`
	Counter   string    `json:"counter"`
	Amount    int64     `json:"amount"`
}

type UsageResponse struct {
	AccountId         uuid.UUID `json:"accountUuid"`
	CharactersUsed    int64     `json:"charactersUsed"`
	OwnCharactersUsed int64     `json:"ownCharactersUsed"`
	CharacterReserve  int64     `json:"characterReserve"`
	Remaining         int64     `json:"remaining"`
	OwnKeys           []string  `json:"ownKeys"`
}

type ProvidersResponse struct {
	Providers map[string]bool `json:"providers"`
	Default   string          `json:"default"`
}
