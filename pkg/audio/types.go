// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and the normalized <-> PCM sample mapping
package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedBitDepth is returned for bit depths other than 8, 16 or 32
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks the format can be written as signed PCM
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	return CheckBitDepth(f.BitDepth)
}

// BytesPerSample returns the width of one sample of one channel
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dbit/%dch", f.SampleRate, f.BitDepth, f.Channels)
}

// CheckBitDepth accepts the signed PCM widths the codec writes
func CheckBitDepth(bitDepth int) error {
	switch bitDepth {
	case 8, 16, 32:
		return nil
	}
	return fmt.Errorf("%w: %d (supported: 8, 16, 32)", ErrUnsupportedBitDepth, bitDepth)
}

// Range returns the signed integer range of a bit depth (1-32 bits)
func Range(bitDepth int) (min, max int64) {
	max = int64(1)<<(bitDepth-1) - 1
	min = -max - 1
	return min, max
}

// Quantize maps a normalized value in [-1, 1] onto the signed range of
// bitDepth using sample = a*value + b, a = (max-min)/2, b = (max+min)/2.
// Values outside [-1, 1] are clamped; the result is truncated toward zero.
func Quantize(value float64, bitDepth int) int32 {
	lo, hi := Range(bitDepth)
	a := (float64(hi) - float64(lo)) / 2
	b := (float64(hi) + float64(lo)) / 2

	if math.IsNaN(value) {
		value = 0
	}
	value = math.Max(-1, math.Min(1, value))

	s := int64(a*value + b)
	if s > hi {
		s = hi
	} else if s < lo {
		s = lo
	}
	return int32(s)
}

// Normalize maps a signed sample back by dividing by the range maximum
func Normalize(sample int32, bitDepth int) float64 {
	_, hi := Range(bitDepth)
	return float64(sample) / float64(hi)
}
