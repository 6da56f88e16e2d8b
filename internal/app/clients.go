package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/ghostline-backend/internal/data/db"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/realtime/bus"
	"github.com/yungbote/ghostline-backend/internal/temporalx"
)

type Clients struct {
	DB *db.Service
	// Redis, Bus and Temporal are nil when not configured.
	Redis    goredis.UniversalClient
	Bus      bus.Bus
	Cache    kv.Store
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, withTemporal bool) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	dbs, err := db.Open(log, cfg.DB)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}
	c.DB = dbs

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			c.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		c.Redis = rdb
		c.Bus = bus.NewRedisBusWithClient(log, rdb, cfg.RedisChannel)
		c.Cache = kv.NewRedis(rdb, "ghostline:")
	} else {
		c.Cache = kv.NewMemory()
	}

	if withTemporal && cfg.Temporal.Enabled() {
		tc, err := temporalx.NewClient(ctx, log, cfg.Temporal)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init temporal client: %w", err)
		}
		c.Temporal = tc
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
