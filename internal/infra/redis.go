// README: Redis client for the geocoding and weather caches.
package infra

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns a lazily connecting client. An unreachable Redis only
// disables caching; lookups fall through to the providers.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  300 * time.Millisecond,
		WriteTimeout: 300 * time.Millisecond,
	})
}
