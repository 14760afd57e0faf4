package forecast

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := NewCache(CacheConfig{InMemory: true, TTL: time.Hour})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_PutGet(t *testing.T) {
	cache := newTestCache(t)

	res := Result{Timestamp: "2024-01-01T11:00:00+06:00", Forecast: 123.5, CustomName: "model_a"}
	cache.Put("model_a|2024-01-01|5|00000000deadbeef", res)

	got, ok := cache.Get("model_a|2024-01-01|5|00000000deadbeef")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if got != res {
		t.Errorf("Got %+v, want %+v", got, res)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	cache := newTestCache(t)
	if _, ok := cache.Get("nope"); ok {
		t.Error("Expected cache miss")
	}
}

func TestCache_FingerprintChangeMisses(t *testing.T) {
	cache := newTestCache(t)

	cache.Put("model_a|2024-01-01|5|0000000000000001", Result{Forecast: 1})
	if _, ok := cache.Get("model_a|2024-01-01|5|0000000000000002"); ok {
		t.Error("Expected miss for a different store fingerprint")
	}
}
