package search

import (
	"context"
	"sync"
	"time"

	"rental-marketplace/internal/common/errors"
)

// Update is one message pushed to a live search client.
type Update struct {
	Seq      uint64    `json:"seq"`
	Text     string    `json:"text"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// LiveSession serves search-as-you-type for one client. Input is debounced;
// starting a search cancels the one in flight, and any response that is not
// for the latest issued token is dropped.
type LiveSession struct {
	ctx       context.Context
	querier   Querier
	debouncer *Debouncer
	seq       Sequencer
	emit      func(Update)

	mu       sync.Mutex
	inflight context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	emitMu sync.Mutex
}

func NewLiveSession(ctx context.Context, querier Querier, window time.Duration, emit func(Update)) *LiveSession {
	return &LiveSession{
		ctx:       ctx,
		querier:   querier,
		debouncer: NewDebouncer(window),
		emit:      emit,
	}
}

// Input records the latest text and filter state.
func (s *LiveSession) Input(text string, filters Filters) {
	s.debouncer.Trigger(func() { s.run(text, filters) })
}

func (s *LiveSession) run(text string, filters Filters) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	token := s.seq.Next()
	ctx, cancel := context.WithCancel(s.ctx)
	if s.inflight != nil {
		s.inflight()
	}
	s.inflight = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	resp, err := s.querier.Search(ctx, text, filters)

	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if !s.seq.IsLatest(token) || ctx.Err() != nil {
		return
	}

	update := Update{Seq: token, Text: text, Response: resp}
	if err != nil {
		stdErr := errors.AsStandard(err)
		update.Response = nil
		update.Error = stdErr.Message
		update.Code = string(stdErr.Code)
	}
	s.emit(update)
}

// Close drops pending input, cancels the in-flight search and waits for it.
func (s *LiveSession) Close() {
	s.mu.Lock()
	s.closed = true
	if s.inflight != nil {
		s.inflight()
	}
	s.mu.Unlock()

	s.debouncer.Stop()
	s.wg.Wait()
}
