package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Email    string    `gorm:"type:varchar(255);index"`
	Status   string    `gorm:"type:varchar(50);not null;default:'active'"`

	CharactersUsed    int64 `gorm:"not null;default:0"`
	OwnCharactersUsed int64 `gorm:"not null;default:0"`
	CharacterReserve  int64 `gorm:"not null;default:0"`

	OpenAIApiKey           string `gorm:"column:open_ai_api_key;type:text"`
	AnthropicApiKey        string `gorm:"type:text"`
	AzureOpenAIApiKey      string `gorm:"column:azure_open_ai_api_key;type:text"`
	AzureOpenAIApiEndpoint string `gorm:"column:azure_open_ai_api_endpoint;type:text"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Account) TableName() string {
	return "accounts"
}
