package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions accepts either a bare host:port or a redis:// (rediss://) URL.
func RedisOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// OpenRedis connects and pings; the client backs the job cache, the
// notification stream and the rate limiter stats.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opt, err := RedisOptions(addr)
	if err != nil {
		return nil, err
	}
	opt.ClientName = "jobber"
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
