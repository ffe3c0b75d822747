package proxy

import (
	"testing"
	"time"
)

func TestBackendCacheSetAndGet(t *testing.T) {
	c := &backendCache{entries: make(map[string]backendCacheEntry)}
	c.set("demo.example.com", "10.0.0.1:8080")

	target, ok := c.get("demo.example.com")
	if !ok || target != "10.0.0.1:8080" {
		t.Fatalf("expected cached target, got %q ok=%v", target, ok)
	}
}

func TestBackendCacheExpiry(t *testing.T) {
	c := &backendCache{entries: make(map[string]backendCacheEntry)}
	c.entries["demo.example.com"] = backendCacheEntry{target: "10.0.0.1:8080", expiresAt: time.Now().Add(-time.Second)}

	if _, ok := c.get("demo.example.com"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestBackendCacheInvalidate(t *testing.T) {
	c := &backendCache{entries: make(map[string]backendCacheEntry)}
	c.set("demo.example.com", "10.0.0.1:8080")
	c.invalidate("demo.example.com")

	if _, ok := c.get("demo.example.com"); ok {
		t.Fatal("expected invalidated entry to miss")
	}
}

func TestBackendCacheCleanExpired(t *testing.T) {
	c := &backendCache{entries: make(map[string]backendCacheEntry)}
	c.entries["stale"] = backendCacheEntry{target: "x", expiresAt: time.Now().Add(-time.Minute)}
	c.entries["fresh"] = backendCacheEntry{target: "y", expiresAt: time.Now().Add(time.Minute)}

	c.cleanExpired()

	if _, ok := c.entries["stale"]; ok {
		t.Fatal("expected stale entry removed")
	}
	if _, ok := c.entries["fresh"]; !ok {
		t.Fatal("expected fresh entry kept")
	}
}
