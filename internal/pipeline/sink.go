package pipeline

import "sync"

// Sink receives completed results. The orchestrator hands each result over
// exactly once and never touches it again; durable storage is an external
// collaborator's concern.
type Sink interface {
	Store(result *Result) error
}

// MemorySink retains the most recent results in a fixed-size ring. It backs
// the history endpoint and is safe for concurrent use.
type MemorySink struct {
	mu      sync.RWMutex
	results []*Result
	next    int
	full    bool
}

// NewMemorySink creates a sink retaining up to capacity results.
func NewMemorySink(capacity int) *MemorySink {
	if capacity < 1 {
		capacity = 1
	}
	return &MemorySink{results: make([]*Result, capacity)}
}

// Store records a result, evicting the oldest once the ring is full.
func (s *MemorySink) Store(result *Result) error {
	s.mu.Lock()
	s.results[s.next] = result
	s.next = (s.next + 1) % len(s.results)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return nil
}

// Recent returns up to n results, newest first.
func (s *MemorySink) Recent(n int) []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = len(s.results)
	}
	if n > size {
		n = size
	}

	out := make([]*Result, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.results)) % len(s.results)
		out = append(out, s.results[idx])
	}
	return out
}
