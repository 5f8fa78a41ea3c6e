package search

import "sync/atomic"

// Sequencer issues monotonically increasing request tokens so responses to
// superseded requests can be recognized and dropped.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a token newer than every token issued before it.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// IsLatest reports whether token is the most recently issued one.
func (s *Sequencer) IsLatest(token uint64) bool {
	return s.latest.Load() == token
}
