// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

func entries(indices ...int) []Entry {
	es := make([]Entry, len(indices))
	for i, idx := range indices {
		es[i] = Entry{
			Paper:    types.Paper{ID: "paper"},
			Abstract: "abstract",
			Index:    idx,
		}
	}
	return es
}

// startRecorder collects the entries a sequencer starts.
type startRecorder struct {
	mu      sync.Mutex
	started []int
}

func (r *startRecorder) start(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, e.Index)
}

func (r *startRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.started...)
}

func TestSequencerFIFOOrder(t *testing.T) {
	var r startRecorder
	seq := NewSequencer(time.Millisecond, nil, r.start, nil)

	seq.EnqueueAll(entries(0, 1, 2))

	for i := 0; i < 3; i++ {
		seq.PumpIfIdle()
		seq.Completed()
		time.Sleep(5 * time.Millisecond) // let the delayed pump fire
	}

	assert.Equal(t, []int{0, 1, 2}, r.snapshot())
}

func TestSequencerBusyBlocksSecondPump(t *testing.T) {
	var r startRecorder
	seq := NewSequencer(time.Millisecond, nil, r.start, nil)

	seq.EnqueueAll(entries(0, 1))
	seq.PumpIfIdle()
	seq.PumpIfIdle() // must be a no-op while busy
	seq.PumpIfIdle()

	assert.Equal(t, []int{0}, r.snapshot())
	assert.True(t, seq.Busy())
	assert.Equal(t, 1, seq.Len())
}

func TestSequencerDedupsByIndex(t *testing.T) {
	var r startRecorder
	seq := NewSequencer(time.Millisecond, nil, r.start, nil)

	seq.EnqueueAll(entries(0, 1))
	seq.EnqueueAll(entries(1, 2, 0))

	assert.Equal(t, 3, seq.Len(), "duplicate indices must be dropped")
}

func TestSequencerDiscardsInvalidWithoutDelay(t *testing.T) {
	var r startRecorder
	valid := func(index int) bool { return index != 0 && index != 1 }
	seq := NewSequencer(time.Hour, valid, r.start, nil) // delay would stall the test if incurred

	seq.EnqueueAll(entries(0, 1, 2))
	seq.PumpIfIdle()

	// Indices 0 and 1 are stale; 2 starts immediately with no delay.
	assert.Equal(t, []int{2}, r.snapshot())
	assert.Equal(t, 0, seq.Len())
}

func TestSequencerEmptyAndBusyPumpsAreNoops(t *testing.T) {
	var r startRecorder
	seq := NewSequencer(time.Millisecond, nil, r.start, nil)

	seq.PumpIfIdle() // empty queue
	assert.Empty(t, r.snapshot())
	assert.False(t, seq.Busy())
}

func TestSequencerDelayBetweenAnalyses(t *testing.T) {
	// Scenario: with a 60ms delay, after the first analysis completes the
	// second starts no earlier than the delay, not immediately.
	const delay = 60 * time.Millisecond

	var mu sync.Mutex
	var startTimes []time.Time
	start := func(Entry) {
		mu.Lock()
		startTimes = append(startTimes, time.Now())
		mu.Unlock()
	}

	seq := NewSequencer(delay, nil, start, nil)
	seq.EnqueueAll(entries(0, 1, 2))

	seq.PumpIfIdle()
	completedAt := time.Now()
	seq.Completed()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(startTimes) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	gap := startTimes[1].Sub(completedAt)
	mu.Unlock()
	assert.GreaterOrEqual(t, gap, delay-5*time.Millisecond,
		"second analysis started %v after completion, want >= %v", gap, delay)
}

func TestSequencerClearCancelsScheduledPump(t *testing.T) {
	var r startRecorder
	seq := NewSequencer(20*time.Millisecond, nil, r.start, nil)

	seq.EnqueueAll(entries(0, 1))
	seq.PumpIfIdle()
	seq.Completed() // schedules a delayed pump for index 1
	seq.Clear()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []int{0}, r.snapshot(), "cleared pump still fired")
	assert.Equal(t, 0, seq.Len())
	assert.False(t, seq.Busy())
}

func TestSequencerAtMostOneInFlight(t *testing.T) {
	// Property: under randomized enqueue/complete/clear interleavings, at
	// most one analysis is ever observed in flight.
	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	var seq *Sequencer
	start := func(Entry) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		go func() {
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			seq.Completed()
		}()
	}

	seq = NewSequencer(time.Millisecond, nil, start, nil)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				switch i % 3 {
				case 0:
					seq.EnqueueAll(entries(g*100 + i))
				case 1:
					seq.PumpIfIdle()
				case 2:
					time.Sleep(time.Millisecond)
				}
			}
		}(g)
	}
	wg.Wait()

	// Drain whatever is left.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return inFlight == 0
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, maxInFlight, 1, "more than one analysis in flight")
}
