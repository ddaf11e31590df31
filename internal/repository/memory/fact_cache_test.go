package memory

import (
	"context"
	"testing"
	"time"

	"mpersona-be/internal/pkg/logger"
	"mpersona-be/pkg/rag/prompt"

	"github.com/stretchr/testify/assert"
)

func TestFactCacheKeyIgnoresProfileOrder(t *testing.T) {
	a := FactCacheKey("paris", []string{"kp-2", "kp-1"})
	b := FactCacheKey("paris", []string{"kp-1", "kp-2"})
	c := FactCacheKey("rome", []string{"kp-1", "kp-2"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, factKeyPrefix)
}

func TestFactCacheLocalOnly(t *testing.T) {
	c := NewFactCache(nil, time.Minute, logger.NewNopLogger())
	ctx := context.Background()
	key := FactCacheKey("q", []string{"kp"})

	_, found := c.Get(ctx, key)
	assert.False(t, found)

	facts := []prompt.ScoredFact{{Fact: "x", Score: 1.5}}
	c.Set(ctx, key, facts)

	got, found := c.Get(ctx, key)
	assert.True(t, found)
	assert.Equal(t, facts, got)
}
