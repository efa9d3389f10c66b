package prescriptions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careloop/clinicdesk/pkg/logging"
)

// SaveGuard serializes prescription saves per visit with a short-lived Redis
// key. It is an in-flight latch, not a lock service: when Redis is down the
// guard degrades open and the database link constraint remains the backstop.
type SaveGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewSaveGuard creates a guard. A nil client disables guarding entirely.
func NewSaveGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *SaveGuard {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SaveGuard{client: client, ttl: ttl, logger: logger}
}

// Acquire claims the save slot for a visit. It returns ErrSaveInFlight when
// another save holds the slot, and a release func otherwise.
func (g *SaveGuard) Acquire(ctx context.Context, visitID string) (func(), error) {
	if g == nil || g.client == nil {
		return func() {}, nil
	}

	key := "rx:save:" + visitID
	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		g.logger.Warn("save guard unavailable, proceeding without it", "error", err, "visit_id", visitID)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrSaveInFlight
	}
	return func() {
		if err := g.client.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			g.logger.Warn("failed to release save guard", "error", err, "visit_id", visitID)
		}
	}, nil
}
