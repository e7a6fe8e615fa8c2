package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cppla/blogicum/config"
)

// counters holds registration abuse counters when Redis is not configured.
var counters = &memCounters{items: map[string]memCounter{}}

type memCounter struct {
	n       int64
	expires time.Time
}

type memCounters struct {
	mu    sync.Mutex
	items map[string]memCounter
}

func (m *memCounters) get(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[key]
	if !ok || time.Now().After(c.expires) {
		delete(m.items, key)
		return 0
	}
	return c.n
}

func (m *memCounters) incr(key string, ttl time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c, ok := m.items[key]
	if !ok || now.After(c.expires) {
		c = memCounter{expires: now.Add(ttl)}
	}
	c.n++
	m.items[key] = c
	return c.n
}

func (m *memCounters) setNX(key string, ttl time.Duration) bool {
	if m.get(key) > 0 {
		return false
	}
	m.incr(key, ttl)
	return true
}

func (m *memCounters) reset() {
	m.mu.Lock()
	m.items = map[string]memCounter{}
	m.mu.Unlock()
}

func regKey(parts ...string) string {
	return "reg:" + strings.Join(parts, ":")
}

func endOfDay() time.Duration {
	return time.Until(time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour))
}

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	ttl := time.Duration(sec) * time.Second
	key := regKey("cooldown", ip)
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		ok, err := cli.SetNX(ctx, key, "1", ttl).Result()
		if err != nil {
			return true
		} // fail-open
		return ok
	}
	return counters.setNX(key, ttl)
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	key := regKey("succday", ip, time.Now().Format("20060102"))
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := cli.Get(ctx, key).Int()
		if err != nil {
			// redis.Nil means no registrations yet; anything else fails open
			return true
		}
		return n < limit
	}
	return counters.get(key) < int64(limit)
}

// RegistrationDailyIncrement increments the success counter for today.
func RegistrationDailyIncrement(ip string) {
	key := regKey("succday", ip, time.Now().Format("20060102"))
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := cli.Incr(ctx, key).Err(); err == nil {
			_ = cli.Expire(ctx, key, endOfDay()).Err()
		}
		return
	}
	counters.incr(key, endOfDay())
}

// RegistrationFailRecord increments failure count per hour; returns current count.
func RegistrationFailRecord(ip string) int {
	key := regKey("failhour", ip, time.Now().Format("2006010215"))
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := cli.Incr(ctx, key).Result()
		if err != nil {
			return 0
		}
		_ = cli.Expire(ctx, key, time.Hour).Err()
		return int(n)
	}
	return int(counters.incr(key, time.Hour))
}

// RegistrationIsBanned checks temporary ban status for IP.
func RegistrationIsBanned(ip string) bool {
	key := regKey("ban", ip)
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		exists, err := cli.Exists(ctx, key).Result()
		if err != nil {
			return false
		}
		return exists > 0
	}
	return counters.get(key) > 0
}

// RegistrationBan sets a temporary ban for IP.
func RegistrationBan(ip string) {
	minutes := config.Get().RegisterTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	ttl := time.Duration(minutes) * time.Minute
	key := regKey("ban", ip)
	Sugar.Warnw("registration temporarily banned", "ip", ip, "minutes", minutes)
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = cli.Set(ctx, key, "1", ttl).Err()
		return
	}
	counters.incr(key, ttl)
}

// ResetRegistrationCounters clears in-process counters.
func ResetRegistrationCounters() {
	counters.reset()
}
