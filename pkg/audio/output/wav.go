// ABOUTME: WAV container sink
// ABOUTME: Writes PCM into a RIFF/WAVE container with go-audio/wav
package output

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/lasertools/ildawav/pkg/audio"
)

const wavFormatPCM = 1

// WAV writes a WAV file. The destination must be seekable so the header
// sizes can be patched on Finish; wrap streams in a BufferedWriteSeeker.
type WAV struct {
	ws       io.WriteSeeker
	encoder  *wav.Encoder
	format   audio.Format
	buf      *goaudio.IntBuffer
	wrote    bool
	finished bool
}

// NewWAV creates a WAV sink over ws
func NewWAV(ws io.WriteSeeker, format audio.Format) (*WAV, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &WAV{
		ws:      ws,
		encoder: wav.NewEncoder(ws, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format:  format,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// Write outputs samples
func (w *WAV) Write(samples []float64) error {
	if w.finished {
		return fmt.Errorf("wav sink already finished")
	}
	if len(samples)%w.format.Channels != 0 {
		return fmt.Errorf("got %d samples for %d channels", len(samples), w.format.Channels)
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, v := range samples {
		s := int(audio.Quantize(v, w.format.BitDepth))
		// 8-bit WAV data is unsigned
		if w.format.BitDepth == 8 {
			s += 128
		}
		w.buf.Data[i] = s
	}

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	w.wrote = true
	return nil
}

// Finish patches the header sizes and flushes the destination if it buffers
func (w *WAV) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true

	if !w.wrote {
		// an empty stream still needs its header
		w.buf.Data = w.buf.Data[:0]
		if err := w.encoder.Write(w.buf); err != nil {
			return fmt.Errorf("wav header write failed: %w", err)
		}
	}
	if err := w.encoder.Close(); err != nil {
		return fmt.Errorf("wav close failed: %w", err)
	}
	if f, ok := w.ws.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("wav flush failed: %w", err)
		}
	}
	return nil
}
