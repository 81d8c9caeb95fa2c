package proxy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathYieldsEmptyPool(t *testing.T) {
	pool, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Size() != 0 {
		t.Errorf("size: got %d, want 0", pool.Size())
	}
	if pool.Random() != "" {
		t.Error("Random on empty pool should return \"\"")
	}
	if pool.ByIndex(5) != "" {
		t.Error("ByIndex on empty pool should return \"\"")
	}
}

func TestLoadMissingFileYieldsEmptyPool(t *testing.T) {
	pool, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Size() != 0 {
		t.Errorf("size: got %d, want 0", pool.Size())
	}
}

func TestLoadSkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# residential\nhttp://p1:8080\n\n  http://p2:8080  \n# eol\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	pool, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Size() != 2 {
		t.Fatalf("size: got %d, want 2", pool.Size())
	}
	if got := pool.All(); got[0] != "http://p1:8080" || got[1] != "http://p2:8080" {
		t.Errorf("unexpected endpoints: %v", got)
	}
}

func TestByIndexRoundRobin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pool, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "b", "c", "a", "b"}
	for i, w := range want {
		if got := pool.ByIndex(i); got != w {
			t.Errorf("ByIndex(%d): got %q, want %q", i, got, w)
		}
	}
}

func TestRandomDrawsFromPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	if err := os.WriteFile(path, []byte("only\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pool, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if got := pool.Random(); got != "only" {
			t.Errorf("Random: got %q, want %q", got, "only")
		}
	}
}
