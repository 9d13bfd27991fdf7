// Package progress reports byte throughput of long-running archive operations.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
)

// DefaultInterval is how often the tracker samples its counter.
const DefaultInterval = 250 * time.Millisecond

// Tracker counts processed bytes and periodically prints throughput to out.
// A nil *Tracker is valid and discards all updates.
type Tracker struct {
	out      io.Writer
	interval time.Duration

	processed atomic.Uint64
	total     atomic.Uint64

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
	start   time.Time
}

// New returns a stopped tracker printing to out.
func New(out io.Writer) *Tracker {
	return &Tracker{out: out, interval: DefaultInterval}
}

// SetTotal sets the expected number of bytes. Zero means unknown.
func (t *Tracker) SetTotal(n uint64) {
	if t == nil {
		return
	}
	t.total.Store(n)
}

// Start resets the counter and begins periodic reporting.
// Calling Start on a running tracker has no effect.
func (t *Tracker) Start() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.processed.Store(0)
	t.start = time.Now()
	t.done = make(chan struct{})
	t.running = true
	t.wg.Add(1)
	go t.loop(t.done)
}

// Stop ends reporting and prints a summary line.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	close(t.done)
	t.running = false
	t.mu.Unlock()
	t.wg.Wait()
}

// Add records n processed bytes.
func (t *Tracker) Add(n uint64) {
	if t == nil || n == 0 {
		return
	}
	t.processed.Add(n)
}

// Processed returns the number of bytes recorded since Start.
func (t *Tracker) Processed() uint64 {
	if t == nil {
		return 0
	}
	return t.processed.Load()
}

// Writer wraps w so that every successful write is recorded.
func (t *Tracker) Writer(w io.Writer) io.Writer {
	if t == nil {
		return w
	}
	return &countingWriter{w: w, t: t}
}

func (t *Tracker) loop(done <-chan struct{}) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var prevBytes uint64
	var prevPercentage float64
	lastOutput := time.Now()

	for {
		select {
		case <-ticker.C:
			current := t.processed.Load()
			rate := uint64(float64(current-prevBytes) / t.interval.Seconds())
			prevBytes = current

			total := t.total.Load()
			percentage := 0.0
			if total > 0 {
				percentage = float64(current) / float64(total) * 100
			}

			// Print once a second or on a 10% jump.
			if time.Since(lastOutput) < time.Second && percentage-prevPercentage < 10 {
				continue
			}
			lastOutput = time.Now()
			prevPercentage = percentage

			if total > 0 {
				fmt.Fprintf(t.out, "Processed %s of %s (%.1f%%) | Rate: %s/s | ETA: %s\n",
					units.BytesSize(float64(current)), units.BytesSize(float64(total)),
					percentage, units.BytesSize(float64(rate)), eta(total, current, rate))
			} else {
				fmt.Fprintf(t.out, "Processed %s | Rate: %s/s\n",
					units.BytesSize(float64(current)), units.BytesSize(float64(rate)))
			}
		case <-done:
			elapsed := time.Since(t.start)
			current := t.processed.Load()
			avg := float64(current)
			if s := elapsed.Seconds(); s > 0 {
				avg /= s
			}
			fmt.Fprintf(t.out, "Completed processing %s in %.1f seconds (avg rate: %s/s)\n",
				units.BytesSize(float64(current)), elapsed.Seconds(), units.BytesSize(avg))
			return
		}
	}
}

func eta(total, current, rate uint64) string {
	if current >= total {
		return "done"
	}
	if rate == 0 {
		return "calculating..."
	}
	return units.HumanDuration(time.Duration(float64(total-current) / float64(rate) * float64(time.Second)))
}

type countingWriter struct {
	w io.Writer
	t *Tracker
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.t.Add(uint64(n))
	}
	return n, err
}
