package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/response"
)

const (
	attemptKeyPrefix = "brute_force:attempts:"
	lockKeyPrefix    = "brute_force:lock:"
	attemptWindow    = 15 * time.Minute
)

// BruteForceProtection locks out an IP after repeated failed logins
type BruteForceProtection struct {
	cache cache.Cache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(c cache.Cache) *BruteForceProtection {
	return &BruteForceProtection{cache: c}
}

func attemptKey(ip string) string { return attemptKeyPrefix + ip }
func lockKey(ip string) string    { return lockKeyPrefix + ip }

// lockoutFor maps a failure count onto a progressive lockout. Zero means no lock.
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	}
	return 0
}

// CheckAndRecordAttempt middleware rejects requests from a locked IP
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		locked, err := b.cache.Exists(c.UserContext(), lockKey(ip))
		if err != nil {
			// cache outage must not lock everyone out
			return c.Next()
		}

		if locked {
			ttl, _ := b.cache.TTL(c.UserContext(), lockKey(ip))
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt counts a failed login for ip and applies the lockout
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.UserContext()

	attempts, err := b.cache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}
	if attempts == 1 {
		_ = b.cache.Expire(ctx, attemptKey(ip), attemptWindow)
	}

	lock := lockoutFor(attempts)
	if lock == 0 {
		return nil
	}
	return b.cache.Set(ctx, lockKey(ip), "locked", lock)
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	return b.cache.Delete(c.UserContext(), attemptKey(ip), lockKey(ip))
}

// GetAttemptCount returns the current attempt count for an IP
func (b *BruteForceProtection) GetAttemptCount(c *fiber.Ctx, ip string) (int, error) {
	val, err := b.cache.Get(c.UserContext(), attemptKey(ip))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(val))
}
