package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"mpersona-be/internal/pkg/logger"
	"mpersona-be/pkg/rag/prompt"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const factKeyPrefix = "facts:"

// FactCache keeps recent fact-search results in process and, when redis is
// configured, shares them with other broker instances.
type FactCache struct {
	local  *cache.Cache
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewFactCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *FactCache {
	return &FactCache{
		local:  cache.New(ttl, 2*ttl),
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

// FactCacheKey is stable under reordering of the profile list.
func FactCacheKey(query string, knowledgeProfileUUIDs []string) string {
	uuids := append([]string(nil), knowledgeProfileUUIDs...)
	sort.Strings(uuids)

	sum := sha256.Sum256([]byte(strings.Join(uuids, ",") + "\x00" + query))
	return factKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *FactCache) Get(ctx context.Context, key string) ([]prompt.ScoredFact, bool) {
	if x, found := c.local.Get(key); found {
		return x.([]prompt.ScoredFact), true
	}

	if c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("FACT_CACHE", "Redis read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var facts []prompt.ScoredFact
	if err := json.Unmarshal(raw, &facts); err != nil {
		c.logger.Warn("FACT_CACHE", "Dropping undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return nil, false
	}

	c.local.Set(key, facts, cache.DefaultExpiration)
	return facts, true
}

func (c *FactCache) Set(ctx context.Context, key string, facts []prompt.ScoredFact) {
	c.local.Set(key, facts, cache.DefaultExpiration)

	if c.rdb == nil {
		return
	}

	raw, err := json.Marshal(facts)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("FACT_CACHE", "Redis write failed", map[string]interface{}{"error": err.Error()})
	}
}
