package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/transitmap/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("objective value: 4\n"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "objective value: 4\n" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("replaced"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "replaced" {
		t.Errorf("Get after overwrite = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v, want a clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := c.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 5 {
		t.Errorf("Clear removed %d entries, want 5", n)
	}
	if _, hit, _ := c.Get(ctx, "key-0"); hit {
		t.Error("entry survived Clear")
	}
}

func TestFileCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val := []byte(strings.Repeat(fmt.Sprint(i), 1000))
			if err := c.Set(ctx, "shared", val, 0); err != nil {
				t.Errorf("Set: %v", err)
			}
			data, hit, err := c.Get(ctx, "shared")
			if err != nil || !hit || len(data) != 1000 {
				t.Errorf("Get = %d bytes, hit %v, err %v", len(data), hit, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	k1 := k.SolutionKey("abc", SolutionKeyOpts{Solver: "scip"})
	k2 := k.SolutionKey("abc", SolutionKeyOpts{Solver: "/opt/scip/bin/scip"})
	k3 := k.SolutionKey("abd", SolutionKeyOpts{Solver: "scip"})

	if !strings.HasPrefix(k1, "solution:") {
		t.Errorf("SolutionKey = %s, want solution: prefix", k1)
	}
	if k1 == k2 || k1 == k3 {
		t.Error("different inputs produced the same key")
	}
	if k1 != k.SolutionKey("abc", SolutionKeyOpts{Solver: "scip"}) {
		t.Error("SolutionKey is not deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "berlin:")

	opts := SolutionKeyOpts{Solver: "scip"}
	if got, want := scoped.SolutionKey("h", opts), "berlin:"+inner.SolutionKey("h", opts); got != want {
		t.Errorf("SolutionKey = %s, want %s", got, want)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if !strings.HasPrefix(nilInner.SolutionKey("h", opts), "p:solution:") {
		t.Error("nil inner keyer should fall back to the default keyer")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(context.Background(), "", dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fc, ok := c.(*FileCache)
	if !ok || fc.Dir() != dir {
		t.Errorf("Open(\"\") = %T, want *FileCache in %s", c, dir)
	}

	_, err = Open(context.Background(), "memcached://localhost:11211", dir)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unsupported scheme error = %v", err)
	}
}

func TestOpenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials network addresses")
	}
	tests := []string{
		"redis://127.0.0.1:1/0",
		"mongodb://127.0.0.1:1/?connectTimeoutMS=200&serverSelectionTimeoutMS=200",
	}
	for _, url := range tests {
		t.Run(strings.SplitN(url, ":", 2)[0], func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := Open(ctx, url, t.TempDir()); !errors.Is(err, errors.ErrCodeIO) {
				t.Errorf("Open(%s) error = %v, want %s", url, err, errors.ErrCodeIO)
			}
		})
	}
}
