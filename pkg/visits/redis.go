package visits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. Counters are plain INCR/HINCRBY targets; the detail
// list is an LPUSH+LTRIM capped list of JSON records.
const (
	redisKeyTotal  = "lakewatch:visits:total"
	redisKeyRoutes = "lakewatch:visits:routes"
	redisKeyIPs    = "lakewatch:visits:ips"
	redisKeyBots   = "lakewatch:visits:bots"
	redisKeyRecent = "lakewatch:visits:recent"
)

// RedisStore implements the visit log on Redis, for deployments where
// several dashboard instances share one log. Each append is a single
// MULTI/EXEC pipeline, which serializes concurrent writers on the
// server side.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed visit log.
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string for no auth)
//   - db: Redis database number (typically 0)
//
// Returns an error if the connection to Redis fails.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	if rec.Route == "" || rec.IP == "" {
		return errors.New("visit record requires route and ip")
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal visit record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, redisKeyTotal)
	pipe.HIncrBy(ctx, redisKeyRoutes, rec.Route, 1)
	pipe.HIncrBy(ctx, redisKeyIPs, rec.IP, 1)
	if rec.BotCategory != "" {
		pipe.HIncrBy(ctx, redisKeyBots, rec.BotCategory, 1)
	}
	pipe.LPush(ctx, redisKeyRecent, payload)
	pipe.LTrim(ctx, redisKeyRecent, 0, RecentLimit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append visit to redis: %w", err)
	}
	return nil
}

// Rollup implements Store.
func (s *RedisStore) Rollup(ctx context.Context, now time.Time) (Rollup, error) {
	t := newTotals()

	total, err := s.client.Get(ctx, redisKeyTotal).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Rollup{}, fmt.Errorf("read total from redis: %w", err)
	}
	if total != "" {
		t.hits, err = strconv.ParseInt(total, 10, 64)
		if err != nil {
			return Rollup{}, fmt.Errorf("parse total %q: %w", total, err)
		}
	}

	for key, dst := range map[string]map[string]int64{
		redisKeyRoutes: t.routes,
		redisKeyIPs:    t.ips,
		redisKeyBots:   t.bots,
	} {
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return Rollup{}, fmt.Errorf("read %s from redis: %w", key, err)
		}
		for field, raw := range fields {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return Rollup{}, fmt.Errorf("parse counter %s/%s: %w", key, field, err)
			}
			dst[field] = n
		}
	}

	items, err := s.client.LRange(ctx, redisKeyRecent, 0, RecentLimit-1).Result()
	if err != nil {
		return Rollup{}, fmt.Errorf("read recent visits from redis: %w", err)
	}

	detail := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return Rollup{}, fmt.Errorf("unmarshal visit record: %w", err)
		}
		detail = append(detail, rec)
	}

	return buildRollup(t, detail, now), nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
