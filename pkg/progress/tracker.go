// ABOUTME: Sample clock that discretizes continuous time into sample slots
// ABOUTME: Every sample index is handed out exactly once regardless of how time is chunked
// Package progress converts elapsed time into a gap-free count of samples.
package progress

import (
	"math"
	"time"
)

// Tracker partitions continuous time into fixed-period sample slots.
//
// The zero value is not usable; create trackers with New.
type Tracker struct {
	currentTime   float64 // seconds
	currentSample uint64  // index of the next sample not yet handed out
	samplePeriod  float64 // seconds
}

// New creates a tracker for the given sample rate
func New(sampleRate int) Tracker {
	return Tracker{samplePeriod: 1.0 / float64(sampleRate)}
}

// Advance moves the clock forward by dt seconds and returns how many samples
// fall into the advanced range. Negative dt is treated as zero.
func (t *Tracker) Advance(dt float64) uint64 {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	nextTime := t.currentTime + dt
	// Nominal time of the next sample to emit
	sampleTime := float64(t.currentSample) * t.samplePeriod
	available := math.Max(0, nextTime-sampleTime)
	n := uint64(math.Ceil(available / t.samplePeriod))

	t.currentTime = nextTime
	t.currentSample += n
	return n
}

// Samples returns the number of samples handed out so far
func (t *Tracker) Samples() uint64 {
	return t.currentSample
}

// Time returns the accumulated continuous time in seconds
func (t *Tracker) Time() float64 {
	return t.currentTime
}

// Elapsed returns the duration covered by the samples handed out so far
func (t *Tracker) Elapsed() time.Duration {
	return time.Duration(float64(t.currentSample) * t.samplePeriod * float64(time.Second))
}

// SamplePeriod returns the duration of one sample in seconds
func (t *Tracker) SamplePeriod() float64 {
	return t.samplePeriod
}
