package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sendThrottleScript counts sends per phone inside a rolling window.
//
// KEYS[1] = counter key
// ARGV[1] = limit (int)
// ARGV[2] = window_ms (int)
//
// Returns 1 when the send is allowed, 0 when the limit is reached.
var sendThrottleScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

// Throttle caps OTP sends per phone number. TTL keeps abandoned counters
// from leaking.
type Throttle struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewThrottle(rdb *redis.Client, limit int, window time.Duration) *Throttle {
	return &Throttle{rdb: rdb, limit: limit, window: window}
}

// Allow reports whether another send to the phone is permitted right now.
func (t *Throttle) Allow(ctx context.Context, phone string) (bool, error) {
	if t == nil || t.rdb == nil {
		// No backend configured: throttling disabled.
		return true, nil
	}
	if phone == "" {
		return false, ErrPhoneRequired
	}
	if t.limit <= 0 || t.window <= 0 {
		return false, fmt.Errorf("otp: throttle limit and window must be positive")
	}

	key := "otp:send:" + NormalizePhone(phone)
	res, err := sendThrottleScript.Run(ctx, t.rdb, []string{key}, t.limit, t.window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
