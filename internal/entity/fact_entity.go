package entity

import (
	"time"

	"github.com/google/uuid"
)

type FactStatus string

const (
	FactStatusActive   FactStatus = "active"
	FactStatusInactive FactStatus = "inactive"
)

type Fact struct {
	Id                   uuid.UUID
	KnowledgeProfileUuid string
	FileUuid             string
	Context              string
	Fact                 string
	Keywords             []string
	Questions            []string
	Status               FactStatus
	CreatedAt            time.Time
}

// RankedFact is a fact returned by a relevance search with its text-rank score.
type RankedFact struct {
	Fact  Fact
	Score float64
}
