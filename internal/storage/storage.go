package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/aggregator"
)

// Store 基于 Redis 的共享缓存，多个实例之间共用同一份新闻摘要
type Store struct {
	Redis *redis.Client
}

func NewStore(redisAddr string) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{Redis: rdb}
}

// Get 未命中返回 aggregator.ErrCacheMiss
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, aggregator.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Redis.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Close() error {
	return s.Redis.Close()
}
