// Package reminder runs the periodic dispatch cycle that finds upcoming
// appointments and delivers reminders over the client's preferred channels.
package reminder

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard grants at most one dispatch cycle at a time. TryAcquire never blocks:
// a cycle that finds the guard held skips its tick entirely and the next tick
// tries again.
type Guard interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

// LocalGuard excludes overlapping cycles within one process.
type LocalGuard struct {
	busy atomic.Bool
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{}
}

func (g *LocalGuard) TryAcquire(_ context.Context) bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *LocalGuard) Release(_ context.Context) {
	g.busy.Store(false)
}

// RedisGuard excludes overlapping cycles across replicas with a SET NX lease.
// The lease carries an owner token so an expired holder cannot release a
// lease someone else has since acquired.
type RedisGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	owner  string
}

func NewRedisGuard(client *redis.Client, key string, ttl time.Duration) *RedisGuard {
	if key == "" {
		key = "scheduling:reminder:dispatch"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisGuard{client: client, key: key, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context) bool {
	owner := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, owner, g.ttl).Result()
	if err != nil || !ok {
		return false
	}
	g.owner = owner
	return true
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) Release(ctx context.Context) {
	if g.owner == "" {
		return
	}
	_ = releaseScript.Run(ctx, g.client, []string{g.key}, g.owner).Err()
	g.owner = ""
}
