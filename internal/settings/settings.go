// Package settings resolves operational values such as the payment gateway
// credentials. Values live in the admin_settings table so operators can rotate
// them without a deploy; the environment serves as fallback and dev mode.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the key has no configured value.
var ErrNotFound = errors.New("setting not found")

// Well-known keys.
const (
	KeyPaynowIntegrationID  = "paynow_integration_id"
	KeyPaynowIntegrationKey = "paynow_integration_key"
)

// Provider resolves a setting value by key.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
}

// Static serves settings from a fixed map.
type Static map[string]string

// Get returns the mapped value.
func (s Static) Get(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// PostgresProvider reads settings from the admin_settings table, caching hits
// in Redis so the hot path (webhook verification) does not touch the table.
type PostgresProvider struct {
	pool     *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewPostgresProvider builds a database-backed provider. Cache may be nil.
func NewPostgresProvider(pool *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration) *PostgresProvider {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &PostgresProvider{pool: pool, cache: cache, cacheTTL: cacheTTL}
}

func (p *PostgresProvider) Get(ctx context.Context, key string) (string, error) {
	cacheKey := "settings:v1:" + key
	if p.cache != nil {
		if v, err := p.cache.Get(ctx, cacheKey).Result(); err == nil && v != "" {
			return v, nil
		}
	}

	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM admin_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	if value == "" {
		return "", ErrNotFound
	}

	if p.cache != nil {
		// Best-effort cache fill.
		p.cache.Set(ctx, cacheKey, value, p.cacheTTL)
	}
	return value, nil
}

// Chain tries each provider in order and returns the first hit.
type Chain []Provider

// Get resolves the key against the chain.
func (c Chain) Get(ctx context.Context, key string) (string, error) {
	for _, p := range c {
		v, err := p.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", ErrNotFound
}
