package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scoreline/internal/config"
	leaderboarddomain "github.com/smallbiznis/scoreline/internal/leaderboard/domain"
	"go.uber.org/zap"
)

const keyLeaderboardCurrent = "leaderboard:current:%s"

// CurrentLeaderboard is the cached read-path payload: the latest
// snapshot of a period together with its ranked rows.
type CurrentLeaderboard struct {
	Snapshot leaderboarddomain.Snapshot `json:"snapshot"`
	Rows     []leaderboarddomain.Row   `json:"rows"`
}

// LeaderboardCache stores the current leaderboard per period. Entries
// are invalidated whenever a new snapshot is written.
type LeaderboardCache interface {
	GetCurrent(ctx context.Context, periodID snowflake.ID) (*CurrentLeaderboard, bool)
	SetCurrent(ctx context.Context, periodID snowflake.ID, current CurrentLeaderboard, ttl time.Duration)
	Invalidate(ctx context.Context, periodID snowflake.ID)
}

// NewLeaderboardCache picks Redis when an address is configured and
// falls back to the in-process TTL cache otherwise.
func NewLeaderboardCache(cfg config.Config, log *zap.Logger) LeaderboardCache {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &memoryLeaderboardCache{
			entries: NewTTLCache[snowflake.ID, CurrentLeaderboard](),
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	return &redisLeaderboardCache{
		client: client,
		log:    log.Named("cache.leaderboard"),
	}
}

type memoryLeaderboardCache struct {
	entries Cache[snowflake.ID, CurrentLeaderboard]
}

func (c *memoryLeaderboardCache) GetCurrent(_ context.Context, periodID snowflake.ID) (*CurrentLeaderboard, bool) {
	current, ok := c.entries.Get(periodID)
	if !ok {
		return nil, false
	}
	return &current, true
}

func (c *memoryLeaderboardCache) SetCurrent(_ context.Context, periodID snowflake.ID, current CurrentLeaderboard, ttl time.Duration) {
	c.entries.Set(periodID, current, ttl)
}

func (c *memoryLeaderboardCache) Invalidate(_ context.Context, periodID snowflake.ID) {
	c.entries.Delete(periodID)
}

type redisLeaderboardCache struct {
	client *redis.Client
	log    *zap.Logger
}

func (c *redisLeaderboardCache) GetCurrent(ctx context.Context, periodID snowflake.ID) (*CurrentLeaderboard, bool) {
	payload, err := c.client.Get(ctx, leaderboardKey(periodID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var current CurrentLeaderboard
	if err := json.Unmarshal(payload, &current); err != nil {
		c.log.Warn("leaderboard cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return &current, true
}

func (c *redisLeaderboardCache) SetCurrent(ctx context.Context, periodID snowflake.ID, current CurrentLeaderboard, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(current)
	if err != nil {
		c.log.Warn("leaderboard cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, leaderboardKey(periodID), payload, ttl).Err(); err != nil {
		c.log.Warn("leaderboard cache write failed", zap.Error(err))
	}
}

func (c *redisLeaderboardCache) Invalidate(ctx context.Context, periodID snowflake.ID) {
	if err := c.client.Del(ctx, leaderboardKey(periodID)).Err(); err != nil {
		c.log.Warn("leaderboard cache invalidate failed", zap.Error(err))
	}
}

func leaderboardKey(periodID snowflake.ID) string {
	return fmt.Sprintf(keyLeaderboardCurrent, periodID.String())
}
