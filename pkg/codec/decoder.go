// ABOUTME: Stream decoder rebuilding laser frames from sample vectors
// ABOUTME: Demultiplexes each vector into a point and cuts frames every 1/fps seconds
package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lasertools/ildawav/pkg/channel"
	"github.com/lasertools/ildawav/pkg/ilda"
)

// boundaryEpsilon absorbs float error when sample_rate/fps is integral
const boundaryEpsilon = 1e-6

// DecoderConfig configures a Decoder
type DecoderConfig struct {
	Mapping    channel.Mapping
	FPS        float64
	SampleRate int

	// OnFrame, if set, is called after every completed frame
	OnFrame func(Stats)
}

// Validate checks the configuration
func (c DecoderConfig) Validate() error {
	if c.Mapping.Len() == 0 {
		return fmt.Errorf("%w: channel mapping is empty", ErrInvalidConfig)
	}
	if err := positive("fps", c.FPS); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0, got %d", ErrInvalidConfig, c.SampleRate)
	}
	return nil
}

// Decoder accumulates points from sample vectors
type Decoder struct {
	config          DecoderConfig
	samplesPerFrame float64
	boundary        uint64 // index of the frame that ends next, from 1
	samples         uint64
	points          []ilda.Point
	stats           Stats
}

// NewDecoder creates a decoder
func NewDecoder(config DecoderConfig) (*Decoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d := &Decoder{
		config:          config,
		samplesPerFrame: float64(config.SampleRate) / config.FPS,
		boundary:        1,
	}
	log.Printf("Decoder: channels=%s fps=%g rate=%dHz (%.1f samples/frame)",
		config.Mapping, config.FPS, config.SampleRate, d.samplesPerFrame)

	return d, nil
}

// Stats returns the progress so far
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Push adds one sample vector. It returns a completed frame when the vector
// crosses a frame boundary.
func (d *Decoder) Push(values []float64) (ilda.Frame, bool) {
	d.points = append(d.points, d.config.Mapping.Decode(values))
	d.samples++

	if float64(d.samples)+boundaryEpsilon < float64(d.boundary)*d.samplesPerFrame {
		return ilda.Frame{}, false
	}
	d.boundary++
	return d.cut(), true
}

// Flush returns the partial frame still being accumulated, if any
func (d *Decoder) Flush() (ilda.Frame, bool) {
	if len(d.points) == 0 {
		return ilda.Frame{}, false
	}
	return d.cut(), true
}

func (d *Decoder) cut() ilda.Frame {
	frame := ilda.NewFrame(d.points)
	d.points = make([]ilda.Point, 0, cap(d.points))

	d.stats.Frames++
	d.stats.Points += uint64(len(frame.Points))
	d.stats.Samples = d.samples
	d.stats.Elapsed = time.Duration(float64(d.samples) / float64(d.config.SampleRate) * float64(time.Second))
	if d.config.OnFrame != nil {
		d.config.OnFrame(d.stats)
	}
	return frame
}

// Decode reads src to the end and writes the rebuilt frames to w, including
// a final short frame. Cancelling ctx stops between blocks; the partial
// frame is still written and ctx.Err() is returned.
func Decode(ctx context.Context, dec *Decoder, src Source, w ilda.FrameWriter) error {
	channels := dec.config.Mapping.Len()

	var stopErr error
	for {
		if stopErr = ctx.Err(); stopErr != nil {
			break
		}

		block, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read samples: %w", err)
		}
		if len(block)%channels != 0 {
			return fmt.Errorf("got %d samples, not a multiple of %d channels", len(block), channels)
		}

		for i := 0; i < len(block); i += channels {
			frame, ok := dec.Push(block[i : i+channels])
			if !ok {
				continue
			}
			if err := w.WriteFrame(frame); err != nil {
				return fmt.Errorf("failed to write frame: %w", err)
			}
		}
	}

	if frame, ok := dec.Flush(); ok {
		if err := w.WriteFrame(frame); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}

	log.Printf("Decoded %s", dec.Stats())
	return stopErr
}
