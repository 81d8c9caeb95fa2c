// Package proxy holds the read-only proxy endpoint pool. The pool is loaded
// once at startup and safely shared across workers; selection never mutates it.
package proxy

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Pool is an ordered set of proxy endpoint strings.
type Pool struct {
	addrs []string
}

// Load reads a newline-delimited proxy list. An empty path or a missing file
// yields an empty pool, which means scraping proceeds without proxying.
// Blank lines and #-comments are skipped.
func Load(path string) (*Pool, error) {
	if path == "" {
		return &Pool{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Pool{}, nil
		}
		return nil, fmt.Errorf("proxy: open %q: %w", path, err)
	}
	defer f.Close()

	var addrs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addrs = append(addrs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("proxy: read %q: %w", path, err)
	}

	return &Pool{addrs: addrs}, nil
}

// Size returns the number of endpoints in the pool.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.addrs)
}

// Random returns a uniformly random endpoint, or "" for an empty pool.
func (p *Pool) Random() string {
	if p.Size() == 0 {
		return ""
	}
	return p.addrs[rand.Intn(len(p.addrs))]
}

// ByIndex returns the endpoint at i modulo the pool size, or "" for an empty
// pool. Used to bind each query variant to a proxy round-robin.
func (p *Pool) ByIndex(i int) string {
	if p.Size() == 0 {
		return ""
	}
	return p.addrs[i%len(p.addrs)]
}

// All returns a copy of the endpoint list.
func (p *Pool) All() []string {
	out := make([]string, p.Size())
	if p != nil {
		copy(out, p.addrs)
	}
	return out
}
