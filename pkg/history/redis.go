package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/demoforge/demoforge/pkg/interfaces"
)

// RedisHistory implements a Redis-backed session transcript so planning
// sessions survive tool restarts.
type RedisHistory struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisOption represents an option for configuring the Redis history
type RedisOption func(*RedisHistory)

// WithTTL sets the TTL for session keys
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisHistory) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets a custom prefix for session keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisHistory) {
		r.keyPrefix = prefix
	}
}

// NewRedisHistory creates a new Redis-backed transcript store
func NewRedisHistory(client *redis.Client, options ...RedisOption) *RedisHistory {
	h := &RedisHistory{
		client:    client,
		ttl:       24 * time.Hour,
		keyPrefix: "demoforge:session:",
	}

	for _, option := range options {
		option(h)
	}

	return h
}

func (r *RedisHistory) sessionKey(ctx context.Context) (string, error) {
	sessionID, ok := GetSessionID(ctx)
	if !ok {
		return "", fmt.Errorf("session ID not found in context")
	}
	return r.keyPrefix + sessionID, nil
}

// AddMessage appends a message to the session transcript
func (r *RedisHistory) AddMessage(ctx context.Context, message interfaces.Message) error {
	key, err := r.sessionKey(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// GetMessages retrieves messages from the session transcript
func (r *RedisHistory) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	key, err := r.sessionKey(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(raw))
	for _, item := range raw {
		var msg interfaces.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	if len(opts.Roles) > 0 {
		var filtered []interfaces.Message
		for _, msg := range messages {
			for _, role := range opts.Roles {
				if msg.Role == role {
					filtered = append(filtered, msg)
					break
				}
			}
		}
		messages = filtered
	}

	if opts.Limit > 0 && opts.Limit < len(messages) {
		messages = messages[len(messages)-opts.Limit:]
	}

	return messages, nil
}

// Clear discards the session transcript
func (r *RedisHistory) Clear(ctx context.Context) error {
	key, err := r.sessionKey(ctx)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
