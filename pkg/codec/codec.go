// ABOUTME: Shared codec types: sink/source contracts, stats and config errors
// ABOUTME: Keeps the codec independent of concrete audio containers
package codec

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration error of this package
var ErrInvalidConfig = errors.New("invalid codec configuration")

// Sink receives interleaved samples in [-1, 1]. output.Sink satisfies it.
type Sink interface {
	Write(samples []float64) error
	Finish() error
}

// Source yields blocks of interleaved samples and io.EOF at the end.
// input.Source satisfies it.
type Source interface {
	Read() ([]float64, error)
}

// Stats describes the progress of an encoding or decoding pass
type Stats struct {
	Frames  uint64
	Points  uint64
	Samples uint64
	Elapsed time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%d frames, %d points, %d samples (%s)",
		s.Frames, s.Points, s.Samples, s.Elapsed.Round(time.Millisecond))
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidConfig, name, v)
	}
	return nil
}
