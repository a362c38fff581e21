package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	sessionPrefix     = "session:"
	idempotencyPrefix = "idempotency:order:"
	lockPrefix        = "lock:"
)

type Client struct {
	rdb        *redis.Client
	sessionTTL time.Duration
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int, sessionTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, sessionTTL: sessionTTL}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping is used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// CurrentUser loads the operator bound to a session token.
// A missing or unreadable session yields nil; the caller treats it as logged out.
func (c *Client) CurrentUser(ctx context.Context, token string) *models.User {
	raw, err := c.rdb.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		util.GetLogger().Warn("failed to read session", zap.Error(err))
		return nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		util.GetLogger().Warn("discarding malformed session", zap.Error(err))
		_ = c.rdb.Del(ctx, sessionPrefix+token).Err()
		return nil
	}
	return &user
}

// SetCurrentUser stores the operator for a token; nil removes the session
func (c *Client) SetCurrentUser(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		if err := c.rdb.Del(ctx, sessionPrefix+token).Err(); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionPrefix+token, raw, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// SetIdempotencyKey remembers which order a client request key produced
func (c *Client) SetIdempotencyKey(ctx context.Context, key, orderID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyPrefix+key, orderID, ttl).Err()
}

// GetIdempotencyKey returns the order created for key, if any
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	orderID, err := c.rdb.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return orderID, true, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockPrefix+lockKey, "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, lockPrefix+lockKey).Err()
}
