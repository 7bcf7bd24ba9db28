package helpers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked session tokens in redis until they would have expired.
type TokenBlacklist struct {
	redis *redis.Client
}

// NewTokenBlacklist connects to redisURL and pings it.
func NewTokenBlacklist(ctx context.Context, redisURL string) (*TokenBlacklist, error) {
	opts, err := redis.ParseURL(redisURL)
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
	return &TokenBlacklist{redis: client}, nil
}

func (b *TokenBlacklist) Close() error {
	return b.redis.Close()
}

func blacklistKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "kam:jwt:revoked:" + hex.EncodeToString(hash[:])
}

// Revoke blacklists token for ttl. Tokens that already expired are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.redis.Set(ctx, blacklistKey(token), "revoked", ttl).Err()
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.redis.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
