package results

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mimprep/profile-audit/internal/record"
)

const (
	keyPrefix         = "result:"
	connectionTimeout = 5 * time.Second
	defaultTTL        = 10 * time.Minute
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the slice of a key/value cache CachedStore needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrCacheMiss when absent
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct{ client *redis.Client }

func NewRedisCache(client *redis.Client) *RedisCache { return &RedisCache{client: client} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DialRedis connects to addr and pings it. A nil client and a non-nil error mean the
// cache should be left off.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: connectionTimeout,
	})
	timeoutCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(timeoutCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// CachedStore is a read-through cache in front of another Store. Cache failures are
// logged and bypassed; the wrapped store stays the source of truth.
type CachedStore struct {
	next   Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

func NewCachedStore(next Store, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, logger: logger.With("component", "result_cache")}
}

func cacheKey(code string) string { return keyPrefix + code }

func (c *CachedStore) Get(ctx context.Context, code string) (Result, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Result{}, err
	}
	key := cacheKey(code)
	b, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		if res, derr := decodeCached(b); derr == nil {
			c.hits.Add(1)
			c.logger.Debug("cache hit", "code", code)
			return res, nil
		}
		c.failures.Add(1)
		c.logger.Warn("cache entry unreadable", "code", code)
	case errors.Is(err, ErrCacheMiss):
		c.misses.Add(1)
	default:
		c.failures.Add(1)
		c.logger.Warn("cache get failed", "code", code, "error", err)
	}

	res, err := c.next.Get(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if b, jerr := json.Marshal(res); jerr == nil {
		if serr := c.cache.Set(ctx, key, b, c.ttl); serr != nil {
			c.failures.Add(1)
			c.logger.Warn("cache set failed", "code", code, "error", serr)
		}
	}
	return res, nil
}

type cachedResult struct {
	Code      string          `json:"code"`
	Record    json.RawMessage `json:"record"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// decodeCached keeps record numbers as json.Number, the same as a row read from the
// database.
func decodeCached(b []byte) (Result, error) {
	var cr cachedResult
	if err := json.Unmarshal(b, &cr); err != nil {
		return Result{}, err
	}
	rec, err := record.Decode(cr.Record)
	if err != nil {
		return Result{}, err
	}
	return Result{Code: cr.Code, Record: rec, CreatedAt: cr.CreatedAt, UpdatedAt: cr.UpdatedAt}, nil
}

func (c *CachedStore) Put(ctx context.Context, code string, rec record.Record) error {
	if err := c.next.Put(ctx, code, rec); err != nil {
		return err
	}
	code, _ = NormalizeCode(code)
	if err := c.cache.Del(ctx, cacheKey(code)); err != nil {
		c.failures.Add(1)
		c.logger.Warn("cache invalidation failed", "code", code, "error", err)
	}
	return nil
}

func (c *CachedStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	return c.next.List(ctx, opts)
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

func (c *CachedStore) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.failures.Load()}
}
