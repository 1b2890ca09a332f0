package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/generator"
	redisclient "github.com/candorapp/session-server-go/internal/redis"
)

// PromptCache caches generated prompt sets in redis. Prompt sets only depend
// on (audience, relationshipType, topic), so one generator call serves every
// session with the same context. Cache failures degrade to a generator call.
type PromptCache struct {
	redis *redisclient.Client
	ttl   time.Duration
}

func NewPromptCache(redis *redisclient.Client, ttl time.Duration) *PromptCache {
	return &PromptCache{redis: redis, ttl: ttl}
}

func (c *PromptCache) Fetch(
	ctx context.Context,
	audience generator.Audience,
	relationshipType, topic string,
	generate func(context.Context) ([]generator.Prompt, error),
) ([]generator.Prompt, error) {
	if c == nil || c.redis == nil {
		return generate(ctx)
	}

	key := redisclient.PromptCacheKey(string(audience), relationshipType, topic)

	data, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var prompts []generator.Prompt
		if jsonErr := json.Unmarshal([]byte(data), &prompts); jsonErr == nil {
			return prompts, nil
		}
		log.Warn().Str("key", key).Msg("discarding malformed cached prompt set")
	}

	prompts, err := generate(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(prompts); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache prompt set")
		}
	}

	return prompts, nil
}
