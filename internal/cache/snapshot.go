// Package cache keeps the last full listing result set in Redis so reads can
// be served when the database is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"soukBack/internal/models"
)

const snapshotKey = "listings:snapshot"

var ErrMiss = errors.New("cache: no snapshot")

// ListingSnapshot stores a JSON copy of every listing under one key.
type ListingSnapshot struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewListingSnapshot(rdb *redis.Client, ttl time.Duration) *ListingSnapshot {
	return &ListingSnapshot{rdb: rdb, ttl: ttl}
}

func (s *ListingSnapshot) Save(ctx context.Context, listings []models.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.rdb.Set(ctx, snapshotKey, data, s.ttl).Err()
}

// Load returns ErrMiss when no snapshot is stored.
func (s *ListingSnapshot) Load(ctx context.Context) ([]models.Listing, error) {
	data, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return listings, nil
}

func (s *ListingSnapshot) Invalidate(ctx context.Context) error {
	return s.rdb.Del(ctx, snapshotKey).Err()
}

// Noop is used when Redis is not configured. Load always misses.
type Noop struct{}

func (Noop) Save(context.Context, []models.Listing) error   { return nil }
func (Noop) Load(context.Context) ([]models.Listing, error) { return nil, ErrMiss }
func (Noop) Invalidate(context.Context) error                { return nil }
