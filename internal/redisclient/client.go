package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "authhub:ratelimit:"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Hit implements a fixed window counter shared by every API replica.
// The window starts on the first hit. The expiry is only set while the key
// has none, so later hits never extend the window.
func (c *Client) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := keyPrefix + key

	pipe := c.redisdb.TxPipeline()
	count := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	retryAfter := ttl.Val()

	// PTTL is negative when the key has no expiry
	if retryAfter < 0 {
		if err := c.redisdb.PExpire(ctx, k, window).Err(); err != nil {
			return false, 0, err
		}
		retryAfter = window
	}

	if count.Val() > int64(limit) {
		if retryAfter <= 0 {
			retryAfter = window
		}
		return false, retryAfter, nil
	}

	return true, 0, nil
}
