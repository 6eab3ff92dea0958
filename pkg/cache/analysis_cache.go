package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/PromptOps/PromptForge/pkg/domain/prompt"
)

const analysisKeyPattern = "promptforge:analysis:%s"

// AnalysisCache memoises analyzer results by prompt hash. Analysis is
// deterministic, so a hit is always valid until the TTL expires it.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewAnalysisCache builds the cache. A nil client disables caching.
func NewAnalysisCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *AnalysisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnalysisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached metrics for text, if present.
func (c *AnalysisCache) Get(ctx context.Context, text string) (prompt.Metrics, bool) {
	if c.client == nil {
		return prompt.Metrics{}, false
	}
	raw, err := c.client.Get(ctx, c.key(text)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("analysis cache read failed")
		}
		return prompt.Metrics{}, false
	}

	var m prompt.Metrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		c.logger.WithError(err).Warn("corrupt analysis cache entry")
		return prompt.Metrics{}, false
	}
	return m, true
}

// Set stores metrics for text.
func (c *AnalysisCache) Set(ctx context.Context, text string, m prompt.Metrics) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		c.logger.WithError(err).Warn("failed to marshal analysis cache entry")
		return
	}
	if err := c.client.Set(ctx, c.key(text), string(raw), c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("analysis cache write failed")
	}
}

func (c *AnalysisCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf(analysisKeyPattern, hex.EncodeToString(sum[:]))
}
