package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skymate/internal/config"
	"skymate/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New 初始化Redis客户端
func New(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)
	return client, nil
}

const revokedTokenPrefix = "skymate:auth:revoked:"

func revokedKey(tokenID string) string {
	return revokedTokenPrefix + tokenID
}

// TokenStore 记录已注销的 JWT（按 jti），过期时间与 token 一致
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Revoke 注销 token，ttl <= 0 时无需记录（token 已过期）
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

// IsRevoked 查询 token 是否已注销
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, revokedKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
