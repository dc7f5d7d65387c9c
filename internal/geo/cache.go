// README: Redis read-through caches in front of geocoding and weather providers.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"unirides/internal/types"
)

const (
	geocodeKeyPrefix = "geo:geocode:"
	weatherKeyPrefix = "geo:weather:"
)

type CachedGeocoder struct {
	next  Geocoder
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, redis: rdb, ttl: ttl}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*types.Point, error) {
	key := cacheKey(geocodeKeyPrefix, address)
	var p types.Point
	if hit, err := getJSON(ctx, c.redis, key, &p); err == nil && hit {
		return &p, nil
	}

	res, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	// Cache write failures only cost a future lookup.
	_ = setJSON(ctx, c.redis, key, res, c.ttl)
	return res, nil
}

type CachedWeather struct {
	next  WeatherProvider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedWeather(next WeatherProvider, rdb *redis.Client, ttl time.Duration) *CachedWeather {
	return &CachedWeather{next: next, redis: rdb, ttl: ttl}
}

func (c *CachedWeather) Current(ctx context.Context, location string) (*Weather, error) {
	key := cacheKey(weatherKeyPrefix, location)
	var w Weather
	if hit, err := getJSON(ctx, c.redis, key, &w); err == nil && hit {
		return &w, nil
	}

	res, err := c.next.Current(ctx, location)
	if err != nil {
		return nil, err
	}
	_ = setJSON(ctx, c.redis, key, res, c.ttl)
	return res, nil
}

func cacheKey(prefix, s string) string {
	return prefix + strings.ToLower(strings.TrimSpace(s))
}

func getJSON(ctx context.Context, rdb *redis.Client, key string, dst any) (bool, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}
