// ABOUTME: Frame repeater for endless playback
// ABOUTME: Buffers every frame on the first pass and replays them in order forever
package ilda

import "io"

// Repeater replays a finite frame sequence forever.
//
// Every frame produced by the source is retained, so peak memory equals the
// whole materialized animation.
type Repeater struct {
	source    FrameReader
	frames    []Frame
	cursor    int
	replaying bool
}

// NewRepeater wraps source
func NewRepeater(source FrameReader) *Repeater {
	return &Repeater{source: source}
}

// Next returns the next frame. It returns io.EOF only if the source produced no frames.
func (r *Repeater) Next() (Frame, error) {
	if !r.replaying {
		frame, err := r.source.Next()
		if err == nil {
			r.frames = append(r.frames, frame)
			return frame, nil
		}
		if err != io.EOF {
			return Frame{}, err
		}
		r.replaying = true
	}

	if len(r.frames) == 0 {
		return Frame{}, io.EOF
	}

	frame := r.frames[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.frames)
	return frame, nil
}

// Buffered returns the number of retained frames
func (r *Repeater) Buffered() int {
	return len(r.frames)
}
