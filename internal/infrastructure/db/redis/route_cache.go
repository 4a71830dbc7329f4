package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

const defaultRouteTTL = 24 * time.Hour

// RouteCache decorates a RouteFinder with a Redis cache keyed by coordinate
// pair. Cache failures are logged and treated as misses; only successful
// lookups are cached.
type RouteCache struct {
	client *redis.Client
	next   ports.RouteFinder
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRouteCache(client *redis.Client, next ports.RouteFinder, ttl time.Duration, log zerolog.Logger) *RouteCache {
	if ttl <= 0 {
		ttl = defaultRouteTTL
	}
	return &RouteCache{client: client, next: next, ttl: ttl, log: log}
}

func (c *RouteCache) Route(ctx context.Context, from, to domain.Coordinates) (ports.Route, error) {
	key := RouteKey(from, to)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var r ports.Route
		if jsonErr := json.Unmarshal(raw, &r); jsonErr == nil {
			return r, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding malformed cached route")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("route cache read failed")
	}

	r, err := c.next.Route(ctx, from, to)
	if err != nil {
		return ports.Route{}, err
	}

	if data, err := json.Marshal(r); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("route cache write failed")
		}
	}
	return r, nil
}

// RouteKey formats route:<lon1>,<lat1>;<lon2>,<lat2>.
func RouteKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("route:%s,%s;%s,%s", coord(from.Lon), coord(from.Lat), coord(to.Lon), coord(to.Lat))
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
