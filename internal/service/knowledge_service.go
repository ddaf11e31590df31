package service

import (
	"context"
	"fmt"
	"strings"

	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/repository/memory"
	"mpersona-be/internal/repository/specification"
	"mpersona-be/internal/repository/unitofwork"
	"mpersona-be/pkg/rag/prompt"
)

type knowledgeService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.FactCache
	logger     logger.ILogger
}

// NewKnowledgeService returns the fact retriever used by the prompt assembler.
// cache may be nil.
func NewKnowledgeService(uowFactory unitofwork.RepositoryFactory, cache *memory.FactCache, log logger.ILogger) prompt.FactRetriever {
	return &knowledgeService{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
	}
}

func (s *knowledgeService) SearchFacts(ctx context.Context, query string, knowledgeProfileUUIDs []string) ([]prompt.ScoredFact, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(knowledgeProfileUUIDs) == 0 {
		return nil, nil
	}

	key := memory.FactCacheKey(query, knowledgeProfileUUIDs)
	if s.cache != nil {
		if facts, found := s.cache.Get(ctx, key); found {
			return facts, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	ranked, err := uow.FactRepository().Search(ctx, query, prompt.MaxFacts,
		specification.ActiveFacts{},
		specification.InKnowledgeProfiles{UUIDs: knowledgeProfileUUIDs},
	)
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}

	facts := make([]prompt.ScoredFact, 0, len(ranked))
	for _, r := range ranked {
		facts = append(facts, prompt.ScoredFact{Fact: r.Fact.Fact, Score: r.Score})
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, facts)
	}

	s.logger.Debug("KNOWLEDGE", "Fact search", map[string]interface{}{
		"profiles": len(knowledgeProfileUUIDs),
		"results":  len(facts),
	})
	return facts, nil
}
