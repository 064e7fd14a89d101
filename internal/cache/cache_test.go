// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flybywiresim/api/internal/metrics"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(100 * time.Millisecond)

	c.Set("key1", "value1")

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c := New(50 * time.Millisecond)

	// Entry with its own longer TTL survives the default expiry window.
	c.SetWithTTL("marker", "upstream-down", 1*time.Minute)
	time.Sleep(80 * time.Millisecond)

	if _, exists := c.Get("marker"); !exists {
		t.Error("Expected custom-TTL entry to outlive default TTL")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}

	// Deleting a missing key is a no-op.
	c.Delete("missing")
}

func TestCacheClear(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, exists := c.Get("a"); exists {
		t.Error("Expected cache to be empty after Clear")
	}
	if stats := c.GetStats(); stats.TotalKeys != 0 {
		t.Errorf("Expected 0 keys after Clear, got %d", stats.TotalKeys)
	}
}

func TestCacheStats(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Get("key1")
	c.Get("missing")

	stats := c.GetStats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if rate := c.HitRate(); rate != 50.0 {
		t.Errorf("Expected 50%% hit rate, got %.2f", rate)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Take int
		Skip int
	}

	k1 := GenerateKey("listActive", params{Take: 25, Skip: 0})
	k2 := GenerateKey("listActive", params{Take: 25, Skip: 0})
	k3 := GenerateKey("listActive", params{Take: 25, Skip: 25})

	if k1 != k2 {
		t.Error("Expected identical params to produce identical keys")
	}
	if k1 == k3 {
		t.Error("Expected differing params to produce differing keys")
	}
}

func TestCacheExportsHitAndMissCounters(t *testing.T) {
	c := New(time.Minute)

	hitsBefore := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(cacheType))
	missesBefore := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(cacheType))

	c.Get("absent")
	c.Set("present", 1)
	c.Get("present")
	c.Get("present")

	hits := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(cacheType)) - hitsBefore
	misses := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(cacheType)) - missesBefore

	if hits != 2 {
		t.Errorf("Expected 2 exported hits, got %v", hits)
	}
	if misses != 1 {
		t.Errorf("Expected 1 exported miss, got %v", misses)
	}
}
