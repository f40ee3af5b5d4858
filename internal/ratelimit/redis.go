package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisWindow is a sliding window shared between processes through a
// Redis sorted set scored by attempt time in milliseconds.
type RedisWindow struct {
	client redis.Cmdable
	key    string
	limit  int
	window time.Duration
	clk    func() time.Time
}

// NewRedisWindow creates a shared limiter stored under key.
func NewRedisWindow(client redis.Cmdable, key string, limit int, window time.Duration, clk func() time.Time) *RedisWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = time.Now
	}
	return &RedisWindow{client: client, key: key, limit: limit, window: window, clk: clk}
}

func (w *RedisWindow) cutoff(now time.Time) string {
	// scores at or below the cutoff are outside the window
	return strconv.FormatInt(now.Add(-w.window).UnixMilli(), 10)
}

// CanProceed implements Limiter.
func (w *RedisWindow) CanProceed(ctx context.Context) (bool, error) {
	now := w.clk()

	var card *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, w.key, "-inf", w.cutoff(now))
		card = p.ZCard(ctx, w.key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate window %s: %w", w.key, err)
	}
	return card.Val() < int64(w.limit), nil
}

// RecordAttempt implements Limiter.
func (w *RedisWindow) RecordAttempt(ctx context.Context) error {
	now := w.clk()

	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, w.key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.New().String()})
		p.PExpire(ctx, w.key, w.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rate window %s: %w", w.key, err)
	}
	return nil
}

var reserveScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local n = redis.call('ZCARD', KEYS[1])
if n < limit then
	redis.call('ZADD', KEYS[1], now, ARGV[4])
	redis.call('PEXPIRE', KEYS[1], window)
	return {1, 0}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {0, tonumber(oldest[2]) + window - now}
`)

// Reserve implements Reserver with a server-side script.
func (w *RedisWindow) Reserve(ctx context.Context) (bool, time.Duration, error) {
	now := w.clk()

	res, err := reserveScript.Run(ctx, w.client, []string{w.key},
		now.UnixMilli(), w.window.Milliseconds(), w.limit, uuid.New().String()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate window %s: %w", w.key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate window %s: unexpected reply %v", w.key, res)
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

// Count returns the attempts currently in the window.
func (w *RedisWindow) Count(ctx context.Context) (int, error) {
	n, err := w.client.ZCount(ctx, w.key, "("+w.cutoff(w.clk()), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("rate window %s: %w", w.key, err)
	}
	return int(n), nil
}
