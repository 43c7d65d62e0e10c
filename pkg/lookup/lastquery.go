package lookup

import (
	"strings"
	"sync"
)

// LastQuery remembers the last key that was consulted successfully so a
// repeat can be skipped.
type LastQuery struct {
	mu   sync.Mutex
	last string
}

// Begin reports whether key should be consulted and records it as the last
// query when it should.
func (q *LastQuery) Begin(key string) bool {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if key == q.last {
		return false
	}
	q.last = key
	return true
}

// Forget clears the remembered key so the next Begin proceeds.
func (q *LastQuery) Forget() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.last = ""
}

// Last returns the remembered key.
func (q *LastQuery) Last() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}
