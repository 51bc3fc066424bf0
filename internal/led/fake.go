package led

import (
	"fmt"
	"sync"
)

// Write is one recorded Set call.
type Write struct {
	Line int
	Duty float64
}

// Recorder is an Output that remembers every write, for tests that
// assert on duty cycles instead of real hardware.
type Recorder struct {
	lines int

	mu     sync.Mutex
	writes []Write
	closed bool
}

// NewRecorder returns a Recorder driving the given number of lines.
func NewRecorder(lines int) *Recorder {
	return &Recorder{lines: lines}
}

func (r *Recorder) Lines() int { return r.lines }

func (r *Recorder) Set(line int, duty float64) error {
	if line < 0 || line >= r.lines {
		return fmt.Errorf("led line %d out of range", line)
	}
	r.mu.Lock()
	r.writes = append(r.writes, Write{Line: line, Duty: duty})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Writes returns a copy of the recorded Set calls in order.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}

// Last returns the most recent duty per line, -1 for untouched lines.
func (r *Recorder) Last() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := make([]float64, r.lines)
	for i := range last {
		last[i] = -1
	}
	for _, w := range r.writes {
		last[w.Line] = w.Duty
	}
	return last
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
