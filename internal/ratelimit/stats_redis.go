package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is one limiter decision. Route is the matched route template
// (ex: "/job/:id"), empty for unmatched paths.
type Event struct {
	Class   string
	Key     string
	Method  string
	Route   string
	Allowed bool
	At      time.Time
}

type StatsRecorder interface {
	Record(ctx context.Context, ev Event) error
}

// RedisStats keeps hash counters of allowed/denied decisions:
// <prefix>:total, <prefix>:class, <prefix>:minute:<yyyymmddhhmm> and <prefix>:route.
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

func NewRedisStats(rdb *redis.Client, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{rdb: rdb, prefix: "ratelimit:stats", ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStats) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	if ev.Class != "" {
		pipe.HIncrBy(ctx, s.prefix+":class", ev.Class+":"+field, 1)
	}

	minuteKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, minuteKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, minuteKey, s.ttl)
	}

	if ev.Route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", ev.Method+" "+ev.Route+":"+field, 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
