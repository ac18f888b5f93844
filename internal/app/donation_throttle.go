package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DonationRoute names the donation endpoint an attempt is counted against. Checkout and
// direct donations have separate budgets.
type DonationRoute string

const (
	DonationRouteCheckout DonationRoute = "checkout"
	DonationRouteDirect   DonationRoute = "direct"
)

const defaultThrottlePrefix = "fundraising:rate_limit"

// DonationThrottle counts donation attempts per route and client IP in fixed one-minute
// windows stored in Redis. Each window gets its own key, so the counter never needs resetting.
type DonationThrottle struct {
	client    redis.UniversalClient
	prefix    string
	perWindow int
	window    time.Duration
	now       func() time.Time
}

// NewDonationThrottle allows perMinute attempts per route and client each minute.
func NewDonationThrottle(client redis.UniversalClient, prefix string, perMinute int) *DonationThrottle {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultThrottlePrefix
	}
	return &DonationThrottle{
		client:    client,
		prefix:    prefix,
		perWindow: perMinute,
		window:    time.Minute,
		now:       time.Now,
	}
}

// Enabled reports whether attempts are counted at all.
func (t *DonationThrottle) Enabled() bool {
	return t != nil && t.client != nil && t.perWindow > 0
}

// Attempt records one attempt and reports whether it is within budget. When it is not,
// retryAfter is the number of seconds until the current window closes.
func (t *DonationThrottle) Attempt(ctx context.Context, route DonationRoute, clientIP string) (allowed bool, retryAfter int, err error) {
	clientIP = strings.TrimSpace(clientIP)
	if !t.Enabled() || clientIP == "" {
		return true, 0, nil
	}

	index, retryAfter := throttleWindow(t.now(), t.window)
	key := t.key(route, clientIP, index)

	var hits *redis.IntCmd
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, key)
		// Outlive the window slightly so a late INCR never resurrects an expired counter.
		pipe.Expire(ctx, key, t.window+5*time.Second)
		return nil
	})
	if err != nil {
		return true, 0, fmt.Errorf("donation throttle: %w", err)
	}
	if hits.Val() > int64(t.perWindow) {
		return false, retryAfter, nil
	}
	return true, 0, nil
}

func (t *DonationThrottle) key(route DonationRoute, clientIP string, index int64) string {
	return fmt.Sprintf("%s:donations:%s:%s:%d", t.prefix, route, clientIP, index)
}

// throttleWindow returns the index of the window containing now and the whole seconds,
// at least one, until that window closes.
func throttleWindow(now time.Time, window time.Duration) (int64, int) {
	elapsed := now.UnixMilli()
	windowMs := window.Milliseconds()
	index := elapsed / windowMs
	remainingMs := (index+1)*windowMs - elapsed
	retryAfter := int((remainingMs + 999) / 1000)
	if retryAfter < 1 {
		retryAfter = 1
	}
	return index, retryAfter
}
