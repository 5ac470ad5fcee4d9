package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/pos-register/internal/domain/plan"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const planConfigsKey = "plan:configs"

const DefaultPlanTTL = 10 * time.Minute

// RedisPlanCache stores the plan tiers as one JSON value. Tiers change
// rarely and are shared by every organization.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

func (r *RedisPlanCache) GetConfigs(ctx context.Context) ([]plan.Config, error) {
	data, err := r.client.Get(ctx, planConfigsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var configs []plan.Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("unmarshal plan configs failed: %w", err)
	}
	return configs, nil
}

func (r *RedisPlanCache) SetConfigs(ctx context.Context, configs []plan.Config) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("marshal plan configs failed: %w", err)
	}
	if err := r.client.Set(ctx, planConfigsKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisPlanCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, planConfigsKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
