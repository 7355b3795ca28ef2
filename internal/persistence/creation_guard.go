package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the guard only while it still holds our token, so a
// guard that expired and was re-acquired by another request survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// CreationGuard serializes ticket creation per (guild, creator) across processes.
type CreationGuard struct {
	rdb *redis.Client
}

// NewCreationGuard returns a guard backed by rdb.
func NewCreationGuard(rdb *redis.Client) *CreationGuard {
	return &CreationGuard{rdb: rdb}
}

// Acquire takes the guard for ttl. When acquired is false another creation
// for the same member is in flight and release is nil.
func (g *CreationGuard) Acquire(ctx context.Context, guildID, userID string, ttl time.Duration) (func(), bool, error) {
	key := KeyCreateGuard(guildID, userID)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
