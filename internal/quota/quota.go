// Package quota enforces a per-client title generation allowance in Redis.
// Redis failures never block a caller.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renderdragon/backend/internal/logger"
)

const defaultPrefix = "renderdragon:quota:titles:"

// Connect parses a redis:// URL and verifies the server answers
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Status is the allowance left for one client
type Status struct {
	Enabled   bool       `json:"enabled"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
	ResetsAt  *time.Time `json:"resetsAt,omitempty"`
}

// Options configures a Quota
type Options struct {
	Limit  int
	Window time.Duration
	Prefix string
	Logger *logger.Logger
}

// Quota counts generations per client key in fixed windows. A nil *Quota
// is valid and reports the quota as disabled.
type Quota struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    *logger.Logger
	now    func() time.Time
}

// New creates a quota over client
func New(client *redis.Client, opts Options) *Quota {
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.Window <= 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Quota{
		client: client,
		limit:  opts.Limit,
		window: opts.Window,
		prefix: opts.Prefix,
		log:    opts.Logger.WithComponent("quota"),
		now:    time.Now,
	}
}

// Enabled reports whether the quota is enforced
func (q *Quota) Enabled() bool {
	return q != nil && q.client != nil && q.limit > 0
}

// Status returns the allowance left for key. On Redis failure the full
// limit is reported.
func (q *Quota) Status(ctx context.Context, key string) Status {
	if !q.Enabled() {
		return Status{}
	}

	full := Status{Enabled: true, Limit: q.limit, Remaining: q.limit}

	pipe := q.client.Pipeline()
	getCmd := pipe.Get(ctx, q.prefix+key)
	ttlCmd := pipe.PTTL(ctx, q.prefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		q.log.WarnErr(ctx, "quota lookup failed, allowing request", err)
		return full
	}

	used, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return full
	}
	if err != nil {
		q.log.WarnErr(ctx, "quota value unreadable, allowing request", err)
		return full
	}

	remaining := q.limit - used
	if remaining < 0 {
		remaining = 0
	}
	st := Status{Enabled: true, Limit: q.limit, Remaining: remaining}
	if ttl := ttlCmd.Val(); ttl > 0 {
		resets := q.now().Add(ttl).UTC().Truncate(time.Second)
		st.ResetsAt = &resets
	}
	return st
}

// Allow reports whether key may generate again
func (q *Quota) Allow(ctx context.Context, key string) bool {
	if !q.Enabled() {
		return true
	}
	return q.Status(ctx, key).Remaining > 0
}

// Charge records one generation for key. The window starts at the first
// charge.
func (q *Quota) Charge(ctx context.Context, key string) {
	if !q.Enabled() {
		return
	}

	redisKey := q.prefix + key
	n, err := q.client.Incr(ctx, redisKey).Result()
	if err != nil {
		q.log.WarnErr(ctx, "quota charge failed", err)
		return
	}
	if n == 1 {
		if err := q.client.Expire(ctx, redisKey, q.window).Err(); err != nil {
			q.log.WarnErr(ctx, "quota expiry failed", err)
		}
	}
	q.log.Debug(ctx, "quota charged", map[string]interface{}{
		"used":  n,
		"limit": q.limit,
	})
}

// Ping checks the Redis connection for health probes
func (q *Quota) Ping(ctx context.Context) error {
	if q == nil || q.client == nil {
		return errors.New("redis not configured")
	}
	return q.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (q *Quota) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}
