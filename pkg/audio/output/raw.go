// ABOUTME: Raw PCM sink
// ABOUTME: Writes headerless signed little-endian PCM through a buffered writer
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/encode"
)

// Raw writes bare PCM
type Raw struct {
	w        *bufio.Writer
	encoder  *encode.PCMEncoder
	channels int
	finished bool
}

// NewRaw creates a raw PCM sink over w
func NewRaw(w io.Writer, format audio.Format) (*Raw, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	encoder, err := encode.NewPCM(format)
	if err != nil {
		return nil, err
	}

	return &Raw{
		w:        bufio.NewWriterSize(w, 64*1024),
		encoder:  encoder,
		channels: format.Channels,
	}, nil
}

// Write outputs samples
func (r *Raw) Write(samples []float64) error {
	if r.finished {
		return fmt.Errorf("raw sink already finished")
	}
	if len(samples)%r.channels != 0 {
		return fmt.Errorf("got %d samples for %d channels", len(samples), r.channels)
	}

	data, err := r.encoder.Encode(samples)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("raw write failed: %w", err)
	}
	return nil
}

// Finish flushes buffered bytes
func (r *Raw) Finish() error {
	if r.finished {
		return nil
	}
	r.finished = true
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("raw flush failed: %w", err)
	}
	return nil
}
