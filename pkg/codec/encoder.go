// ABOUTME: Frame encoder turning laser points into timed sample vectors
// ABOUTME: Splits each frame into distance-weighted travel and fixed dwell per point
package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/lasertools/ildawav/pkg/channel"
	"github.com/lasertools/ildawav/pkg/ilda"
	"github.com/lasertools/ildawav/pkg/progress"
)

// EncoderConfig configures an Encoder
type EncoderConfig struct {
	Mapping     channel.Mapping
	FPS         float64 // target frames per second
	PPS         float64 // maximum points per second of the projector
	SampleRate  int
	Correctness float64 // dwell time per point in units of 1/PPS

	// Debug logs the time budget of every frame
	Debug bool

	// OnFrame, if set, is called after every encoded frame
	OnFrame func(Stats)
}

// Validate checks the configuration
func (c EncoderConfig) Validate() error {
	if c.Mapping.Len() == 0 {
		return fmt.Errorf("%w: channel mapping is empty", ErrInvalidConfig)
	}
	if err := positive("fps", c.FPS); err != nil {
		return err
	}
	if err := positive("pps", c.PPS); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if !(c.Correctness >= 0) || math.IsInf(c.Correctness, 0) {
		return fmt.Errorf("%w: correctness must be >= 0, got %v", ErrInvalidConfig, c.Correctness)
	}
	return nil
}

// Encoder converts frames into sample vectors. It carries the beam position
// and sample clock from one frame to the next, so one Encoder serves exactly
// one output stream.
type Encoder struct {
	config     EncoderConfig
	specs      []channel.Spec
	tracker    progress.Tracker
	guaranteed float64 // dwell seconds per point
	period     float64 // seconds per frame

	settled []float64
	targets [][]float64
	dists   []float64
	buf     []float64
	stats   Stats
}

// NewEncoder creates an encoder with the beam settled at the origin
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Encoder{
		config:     config,
		specs:      config.Mapping.Specs(),
		tracker:    progress.New(config.SampleRate),
		guaranteed: config.Correctness / config.PPS,
		period:     1.0 / config.FPS,
		settled:    make([]float64, config.Mapping.Len()),
	}

	log.Printf("Encoder: channels=%s fps=%g pps=%g rate=%dHz correctness=%g (dwell %.1fµs/point)",
		config.Mapping, config.FPS, config.PPS, config.SampleRate, config.Correctness, e.guaranteed*1e6)

	return e, nil
}

// Stats returns the progress so far
func (e *Encoder) Stats() Stats {
	return e.stats
}

// EncodeFrame writes the samples for one frame to sink. An empty frame
// produces no samples.
func (e *Encoder) EncodeFrame(frame ilda.Frame, sink Sink) error {
	k := len(frame.Points)
	e.stats.Frames++
	e.stats.Points += uint64(k)
	if k == 0 {
		e.report()
		return nil
	}

	// map every point and measure how far the beam travels to reach it
	e.grow(k)
	total := 0.0
	prev := e.settled
	for i, p := range frame.Points {
		e.targets[i] = e.config.Mapping.Encode(p, e.targets[i])
		e.dists[i] = e.config.Mapping.Distance(prev, e.targets[i])
		total += e.dists[i]
		prev = e.targets[i]
	}

	shared := math.Max(0, e.period-e.guaranteed*float64(k))
	if e.config.Debug {
		log.Printf("Frame %d: guaranteed=%gs shared=%gs period=%gs points=%d distance=%g",
			e.stats.Frames, e.guaranteed*float64(k), shared, e.period, k, total)
	}

	e.buf = e.buf[:0]
	for i := 0; i < k; i++ {
		target := e.targets[i]

		var share float64
		if total > 0 {
			share = shared * e.dists[i] / total
		} else {
			// nothing moves; spread the free time evenly
			share = shared / float64(k)
		}

		// travel
		if n := e.tracker.Advance(share); n > 0 {
			for s := uint64(1); s <= n; s++ {
				for c, spec := range e.specs {
					v := target[c]
					if spec.IsAxis() {
						step := (target[c] - e.settled[c]) / float64(n)
						v = e.settled[c] + step*float64(s)
					}
					e.buf = append(e.buf, v)
				}
			}
		}

		copy(e.settled, target)

		// dwell
		n := e.tracker.Advance(e.guaranteed)
		for j := uint64(0); j < n; j++ {
			e.buf = append(e.buf, e.settled...)
		}
	}

	e.stats.Samples = e.tracker.Samples()
	e.stats.Elapsed = e.tracker.Elapsed()

	if len(e.buf) > 0 {
		if err := sink.Write(e.buf); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", e.stats.Frames, err)
		}
	}
	e.report()
	return nil
}

func (e *Encoder) grow(k int) {
	for len(e.targets) < k {
		e.targets = append(e.targets, make([]float64, len(e.specs)))
	}
	if cap(e.dists) < k {
		e.dists = make([]float64, k)
	}
	e.dists = e.dists[:k]
}

func (e *Encoder) report() {
	if e.config.OnFrame != nil {
		e.config.OnFrame(e.stats)
	}
}

// Encode drains frames through enc into sink. The sink is finished on every
// return path. Exhausting frames is a normal end; cancelling ctx stops
// between frames and returns ctx.Err().
func Encode(ctx context.Context, enc *Encoder, frames ilda.FrameReader, sink Sink) (err error) {
	defer func() {
		if ferr := sink.Finish(); err == nil && ferr != nil {
			err = fmt.Errorf("failed to finish output: %w", ferr)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := frames.Next()
		if errors.Is(err, io.EOF) {
			log.Printf("Encoded %s", enc.Stats())
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}

		if err := enc.EncodeFrame(frame, sink); err != nil {
			return err
		}
	}
}
