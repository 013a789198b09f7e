package ratelimit

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/smallbiznis/bytebills/internal/clock"
)

type memoryState struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is the in-process Bucket. Limits are per replica.
type MemoryBucket struct {
	mu    sync.Mutex
	clock clock.Clock
	cache *cache.Cache
}

func NewMemoryBucket(clk clock.Clock) *MemoryBucket {
	return &MemoryBucket{
		clock: clk,
		cache: cache.New(10*time.Minute, 5*time.Minute),
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, rate float64, burst int) (Result, error) {
	if err := checkArgs(key, rate, burst); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	state := memoryState{tokens: float64(burst), ts: now}
	if v, ok := m.cache.Get(key); ok {
		prev := v.(memoryState)
		elapsed := math.Max(0, now.Sub(prev.ts).Seconds())
		state.tokens = math.Min(float64(burst), prev.tokens+elapsed*rate)
	}

	allowed := state.tokens >= 1
	if allowed {
		state.tokens--
	}
	m.cache.Set(key, state, bucketTTL(rate, burst))
	return result(allowed, state.tokens, rate), nil
}

func parseFloat(v any) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case int64:
		return float64(val)
	case float64:
		return val
	}
	return 0
}
