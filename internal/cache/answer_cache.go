package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ragstack/internal/rag/pipeline"
	"ragstack/pkg/logger"
)

// AnswerCache keeps recently composed answers in Redis for a short TTL so
// repeated identical questions skip the provider round trips. Keys are
// scoped per tenant; a cache hit can never leak another tenant's answer.
//
// A nil *AnswerCache is valid and disables caching.
type AnswerCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

// New creates an AnswerCache.
func New(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *AnswerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{log: log, rdb: rdb, ttl: ttl}
}

func key(tenantID, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("answer:%s:%s", tenantID, hex.EncodeToString(sum[:]))
}

// Get returns the cached answer for the tenant's query, or false on a miss.
// Cache errors are logged and treated as misses.
func (c *AnswerCache) Get(ctx context.Context, tenantID, query string) (*pipeline.Answer, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key(tenantID, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("answer cache read failed")
		return nil, false
	}

	var answer pipeline.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		c.log.WithError(err).Warn("discarding unreadable cache entry")
		return nil, false
	}
	return &answer, true
}

// Set stores the answer under the tenant's query. Cache errors are logged
// and otherwise ignored; the caller already has the answer.
func (c *AnswerCache) Set(ctx context.Context, tenantID, query string, answer *pipeline.Answer) {
	if c == nil {
		return
	}

	data, err := json.Marshal(answer)
	if err != nil {
		c.log.WithError(err).Warn("answer cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key(tenantID, query), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("answer cache write failed")
	}
}
