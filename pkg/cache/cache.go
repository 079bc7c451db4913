package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching services. It fronts hot lookups
// such as device tokens so the notifier does not re-read the user document on
// every send. A miss is reported as an empty value with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DeviceTokenTTL bounds how long a cached registration token is trusted
// before the user document is consulted again.
const DeviceTokenTTL = 24 * time.Hour

// DeviceTokenKey builds the cache key under which a user's current FCM
// registration token is stored.
func DeviceTokenKey(userID string) string {
	return "device-token:" + userID
}
