package search

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(60 * time.Millisecond)
	var (
		mu    sync.Mutex
		calls []string
		done  = make(chan struct{}, 1)
	)

	for _, text := range []string{"k", "kl", "klc", "klcc"} {
		text := text
		d.Trigger(func() {
			mu.Lock()
			calls = append(calls, text)
			mu.Unlock()
			done <- struct{}{}
		})
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	// give a wrongly scheduled extra call the chance to show up
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"klcc"}, calls)
	assert.False(t, d.Pending())
}

func TestDebouncer_StopDropsPendingCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(30 * time.Millisecond)
	var fired atomic.Bool
	d.Trigger(func() { fired.Store(true) })
	d.Stop()
	d.Trigger(func() { fired.Store(true) })

	time.Sleep(80 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestDebouncer_SeparatedTriggersEachFire(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(20 * time.Millisecond)
	var count atomic.Int32
	for i := 0; i < 3; i++ {
		d.Trigger(func() { count.Add(1) })
		time.Sleep(60 * time.Millisecond)
	}
	assert.EqualValues(t, 3, count.Load())
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	first := s.Next()
	second := s.Next()

	assert.Greater(t, second, first)
	assert.False(t, s.IsLatest(first))
	assert.True(t, s.IsLatest(second))
}
