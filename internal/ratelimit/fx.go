package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/baizehq/baize/internal/config"
)

const (
	keyPOSEndpoint  = "baize:pos:endpoint:%s"
	keyRegisterLock = "baize:register:lock:%s"

	posEndpointRate  = 20.0
	posEndpointBurst = 40
	registerLockTTL  = 10 * time.Second
)

// NewRedisClient returns nil when no redis address is configured; every
// consumer degrades gracefully on a nil client.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
}

// POSLimiter throttles write endpoints and serializes register
// operations across terminals. With no redis configured it allows
// everything, which is the single-terminal deployment.
type POSLimiter struct {
	bucket *TokenBucket
	locker *Locker
}

func NewPOSLimiter(client *redis.Client) *POSLimiter {
	if client == nil {
		return &POSLimiter{}
	}
	return &POSLimiter{
		bucket: NewTokenBucket(client),
		locker: NewLocker(client),
	}
}

func (l *POSLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *POSLimiter) AllowEndpoint(ctx context.Context, endpoint string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyPOSEndpoint, endpoint), posEndpointRate, posEndpointBurst)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (l *POSLimiter) TryLockRegister(ctx context.Context, register string) (string, bool, error) {
	if l == nil || l.locker == nil {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyRegisterLock, strings.TrimSpace(register)), registerLockTTL)
}

func (l *POSLimiter) ReleaseRegister(ctx context.Context, register, token string) error {
	if l == nil || l.locker == nil {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyRegisterLock, strings.TrimSpace(register)), token)
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewPOSLimiter),
)
