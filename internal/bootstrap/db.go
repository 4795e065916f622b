package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhaven/studyhaven-backend/config"
	"github.com/studyhaven/studyhaven-backend/internal/db"
)

// OpenDB connects to Postgres and applies pending migrations.
func OpenDB(ctx context.Context, c config.DatabaseConfig) (*db.DB, error) {
	database, err := db.Open(ctx, c)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := db.Migrate(migrateCtx, database.SQL); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// OpenRedis connects to Redis and fails fast when it is unreachable.
func OpenRedis(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	if c.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
