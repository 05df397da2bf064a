package utils

import (
	"net/url"
	"strings"
	"sync"
)

// URLTracker remembers listing URLs so the same room is only emitted once.
// URLs are compared after normalization: scheme and host lowercased, query,
// fragment and trailing slash dropped.
type URLTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewURLTracker creates an empty tracker
func NewURLTracker() *URLTracker {
	return &URLTracker{seen: make(map[string]struct{})}
}

// Add reports whether raw is new. Empty URLs are never tracked and always count as new.
func (t *URLTracker) Add(raw string) bool {
	key := NormalizeURL(raw)
	if key == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.seen[key]; exists {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Count returns the number of distinct URLs tracked
func (t *URLTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// NormalizeURL returns the comparison key for raw
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimSuffix(u.EscapedPath(), "/")
}
