package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Fact struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KnowledgeProfileUuid string         `gorm:"type:varchar(64);index"`
	FileUuid             string         `gorm:"type:varchar(64)"`
	Context              string         `gorm:"type:text"`
	Fact                 string         `gorm:"type:text;not null"`
	Keywords             datatypes.JSON `gorm:"type:jsonb"`
	Questions            datatypes.JSON `gorm:"type:jsonb"`
	Status               string         `gorm:"type:varchar(50);not null;default:'active';index"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
}

func (Fact) TableName() string {
	return "facts"
}

// RankedFact is the row shape of a ranked full-text search.
type RankedFact struct {
	Fact
	Score float64 `gorm:"column:score"`
}
