package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "stock:revoked:"

// RevokedTokenStore guarda los jti revocados por logout hasta que el token expiraría.
type RevokedTokenStore struct {
	rdb *redis.Client
}

// NewRevokedTokenStore construye el store.
func NewRevokedTokenStore(rdb *redis.Client) *RevokedTokenStore {
	return &RevokedTokenStore{rdb: rdb}
}

// Revoke marca el jti como revocado durante ttl. ttl <= 0 no guarda nada: el token ya expiró.
func (s *RevokedTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked informa si el jti fue revocado.
func (s *RevokedTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	err := s.rdb.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}
