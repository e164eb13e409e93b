// Package search guards overlapping autocomplete requests. Responses
// for the same key can arrive out of order; only the one matching the
// latest issued sequence number may update what the user sees.
package search

import "sync"

// Sequencer hands out monotonically increasing sequence numbers per key
// and answers whether a completed request is still the latest one.
type Sequencer struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{seqs: make(map[string]uint64)}
}

// Next issues the sequence number for a new request under key. Issuing
// a new number implicitly invalidates all earlier in-flight requests
// for the same key.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key]++
	return s.seqs[key]
}

// IsCurrent reports whether seq is still the latest issued number for
// key. A stale response must be discarded, not rendered.
func (s *Sequencer) IsCurrent(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqs[key] == seq
}

// Reset forgets the counter for key, typically when the search box is
// cleared or the session ends.
func (s *Sequencer) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seqs, key)
}
