// internal/sms/dedupe/dedupe.go
package dedupe

import (
	"context"
	"time"

	"sms-librarian/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Store suppresses webhook redeliveries. The provider retries any webhook it
// considers failed, so the same MessageSid can arrive more than once; a
// short-TTL SETNX record makes the second delivery a recognizable no-op.
//
// The store fails open: if Redis is unreachable the message is treated as
// first-seen, since reprocessing a command beats dropping it.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "dedupe"}),
	}
}

// FirstSeen records messageSid and reports whether this is its first delivery.
func (s *Store) FirstSeen(ctx context.Context, messageSid string) bool {
	if s == nil || s.client == nil || messageSid == "" {
		return true
	}

	ok, err := s.client.SetNX(ctx, "sms:sid:"+messageSid, 1, s.ttl).Result()
	if err != nil {
		s.logger.Warn("dedupe check failed, treating as first delivery", map[string]interface{}{
			"messageSid": messageSid,
			"error":      err.Error(),
		})
		return true
	}
	return ok
}
