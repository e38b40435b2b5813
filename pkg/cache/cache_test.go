package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	// Miss before any Set
	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss on empty cache")
	}

	// Set then hit
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v", data, hit)
	}

	// Expired entries read as misses
	c.mu.Lock()
	c.entries["gone"] = memoryEntry{data: []byte("x"), expiresAt: time.Now().Add(-time.Second)}
	c.mu.Unlock()
	if _, hit, _ := c.Get(ctx, "gone"); hit {
		t.Error("expired entry should miss")
	}

	// Delete
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("double delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v", data, hit)
	}

	// A second instance over the same directory sees the entry
	c2, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c2.Get(ctx, "key"); !hit {
		t.Error("entry not visible across instances")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestArtifactKey(t *testing.T) {
	dot := []byte("digraph G {}")
	svgKey := ArtifactKey("svg", dot)
	dotKey := ArtifactKey("dot", dot)
	if svgKey == dotKey {
		t.Error("formats must not share keys")
	}
	if svgKey != ArtifactKey("svg", dot) {
		t.Error("key should be deterministic")
	}
	if svgKey == ArtifactKey("svg", []byte("digraph H {}")) {
		t.Error("different graphs must not share keys")
	}
}
