package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Submission providers suspend accounts that burst past their per-minute
// and daily send quotas. The throttle enforces both quotas per sender
// account with an atomic Lua check, so concurrent batch sends cannot race
// past a limit with GET then INCR.
const throttleLuaScript = `
local minuteKey = KEYS[1]
local dailyKey = KEYS[2]
local minuteLimit = tonumber(ARGV[1])
local dailyLimit = tonumber(ARGV[2])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dailyKey) or "0")

if dayCurrent + 1 > dailyLimit then
    return {0, 2}
end
if minCurrent + 1 > minuteLimit then
    return {0, 1}
end

local newMin = redis.call("INCR", minuteKey)
if newMin == 1 then
    redis.call("EXPIRE", minuteKey, 120)
end

local newDay = redis.call("INCR", dailyKey)
if newDay == 1 then
    redis.call("EXPIRE", dailyKey, 90000)
end

return {1, 0}
`

// ErrDailyLimit means the sender account has exhausted its daily quota and
// the batch should stop rather than wait.
var ErrDailyLimit = fmt.Errorf("daily send limit reached")

// Throttle is a Redis-backed per-sender send limiter.
type Throttle struct {
	redis        *redis.Client
	script       *redis.Script
	perMinuteCap int
	dailyCap     int
	sleep        func(context.Context, time.Duration) error
}

func NewThrottle(client *redis.Client, perMinuteCap, dailyCap int) *Throttle {
	return &Throttle{
		redis:        client,
		script:       redis.NewScript(throttleLuaScript),
		perMinuteCap: perMinuteCap,
		dailyCap:     dailyCap,
		sleep:        sleepCtx,
	}
}

// Wait blocks until the sender may send one more message. It returns
// ErrDailyLimit when the daily quota is spent and the context error when
// cancelled while waiting.
func (t *Throttle) Wait(ctx context.Context, sender string) error {
	for {
		allowed, reason, err := t.tryAcquire(ctx, sender)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if reason == 2 {
			return ErrDailyLimit
		}

		// Minute bucket is full; wait for it to roll over.
		wait := time.Duration(60-time.Now().Second()) * time.Second
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (t *Throttle) tryAcquire(ctx context.Context, sender string) (allowed bool, reason int64, err error) {
	now := time.Now()
	minuteKey := fmt.Sprintf("throttle:%s:min:%d", sender, now.Unix()/60)
	dailyKey := fmt.Sprintf("throttle:%s:day:%s", sender, now.Format("2006-01-02"))

	result, err := t.script.Run(ctx, t.redis,
		[]string{minuteKey, dailyKey},
		t.perMinuteCap,
		t.dailyCap,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("throttle check: %w", err)
	}

	return result[0].(int64) == 1, result[1].(int64), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
