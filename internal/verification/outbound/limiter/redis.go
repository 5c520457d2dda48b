package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "verification:cooldown:"

// reserveScript keeps the last issuance time in milliseconds. It returns 0
// when the reservation is taken, otherwise the milliseconds left to wait.
var reserveScript = redis.NewScript(`
local last = redis.call("GET", KEYS[1])
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])
if last then
	local left = tonumber(last) + cooldown - now
	if left > 0 then
		return left
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", cooldown)
return 0
`)

// Redis is a cooldown limiter shared by every node using the same Redis.
type Redis struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewRedis(client *redis.Client, cooldown time.Duration) *Redis {
	return &Redis{
		client:   client,
		cooldown: cooldown,
	}
}

func (r *Redis) Reserve(ctx context.Context, identifier string, now time.Time) (bool, time.Duration, error) {
	if r.cooldown <= 0 {
		return true, 0, nil
	}

	left, err := reserveScript.Run(ctx, r.client,
		[]string{redisKeyPrefix + identifier},
		now.UnixMilli(), r.cooldown.Milliseconds(),
	).Int64()
	if err != nil {
		return false, 0, err
	}
	if left > 0 {
		return false, time.Duration(left) * time.Millisecond, nil
	}

	return true, 0, nil
}

func (r *Redis) Release(ctx context.Context, identifier string) error {
	return r.client.Del(ctx, redisKeyPrefix+identifier).Err()
}
