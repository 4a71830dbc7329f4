package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// slidingWindowScript prunes hits at or before now-window, rejects without
// recording when max hits remain, otherwise records now. Scores are unix ms.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
  redis.call('PEXPIRE', key, window)
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// WindowLimiter is a sliding-window limiter shared by every process using
// the same Redis. Keys expire on their own once idle for a window.
type WindowLimiter struct {
	client  *redis.Client
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

func NewWindowLimiter(client *redis.Client, window time.Duration, max int, log zerolog.Logger) *WindowLimiter {
	if max < 1 {
		max = 1
	}
	return &WindowLimiter{
		client:  client,
		window:  window,
		max:     max,
		prefix:  "ratelimit:orders:",
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		log:     log,
	}
}

// Allow fails open: when Redis cannot answer the request is admitted.
func (l *WindowLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		l.now().UnixMilli(), l.window.Milliseconds(), l.max, uuid.NewString(),
	).Int()
	if err != nil {
		l.log.Error().Err(err).Str("key", key).Msg("rate limit check failed, allowing request")
		return true
	}
	return res == 1
}
