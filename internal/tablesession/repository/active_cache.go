package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
)

const activeCacheTTL = 24 * time.Hour

// activeCache mirrors table occupancy in redis under table:{id}:session.
// A nil client turns every call into a no-op, and redis failures are
// logged and swallowed: the session table is the source of truth.
type activeCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewActiveCache(client *redis.Client, log *zap.Logger) sessiondomain.ActiveCache {
	return &activeCache{
		client: client,
		log:    log.Named("tablesession.cache"),
	}
}

func (c *activeCache) Store(ctx context.Context, tableID, sessionID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, activeKey(tableID), sessionID, activeCacheTTL).Err(); err != nil {
		c.log.Warn("active session cache set failed", zap.String("table_id", tableID), zap.Error(err))
	}
}

func (c *activeCache) Clear(ctx context.Context, tableID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, activeKey(tableID)).Err(); err != nil {
		c.log.Warn("active session cache del failed", zap.String("table_id", tableID), zap.Error(err))
	}
}

func activeKey(tableID string) string {
	return fmt.Sprintf("table:%s:session", tableID)
}
