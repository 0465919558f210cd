// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ideafit/fithub/internal/platform/apperr"
)

// # Reset Token Repository

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
//
// Grants are serialized as JSON under "auth:reset_token:<token>". The key TTL
// is the physical retention window, not the logical 15-minute deadline: the
// orchestrator checks ExpiresAt itself so that a late redemption can be told
// apart from an unknown token.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

/*
Set stores a reset grant under its raw token for the retention window.

Parameters:
  - context: context.Context
  - token: string
  - grant: PasswordResetToken

Returns:
  - error: Serialization or execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, grant PasswordResetToken) error {
	key := fmt.Sprintf("auth:reset_token:%s", token)

	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("redis_reset_token_marshal_failed: %w", err)
	}

	if err := repository.client.Set(context, key, payload, ResetTokenRetention).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the grant for a given token.

Description: Returns apperr.NotFound when the key is absent, which covers
unknown tokens, consumed tokens, and tokens past physical retention.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *PasswordResetToken: The stored grant
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (*PasswordResetToken, error) {
	key := fmt.Sprintf("auth:reset_token:%s", token)

	payload, err := repository.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Reset token")
		}
		return nil, fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}

	grant := &PasswordResetToken{}
	if err := json.Unmarshal(payload, grant); err != nil {
		return nil, fmt.Errorf("redis_reset_token_unmarshal_failed: %w", err)
	}

	return grant, nil
}

/*
Delete removes the grant from Redis after successful consumption.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	key := fmt.Sprintf("auth:reset_token:%s", token)

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}

	return nil
}
