// ABOUTME: WAV container source
// ABOUTME: Reads RIFF/WAVE PCM with go-audio/wav
package input

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/lasertools/ildawav/pkg/audio"
)

// WAV reads a WAV file
type WAV struct {
	src     io.Reader
	decoder *wav.Decoder
	format  audio.Format
	buf     *goaudio.IntBuffer
	pending []int
	out     []float64
	done    bool
}

// NewWAV parses the WAV header from r. go-audio/wav needs to seek, so a
// non-seekable r (a pipe, stdin) is read into memory first.
func NewWAV(r io.Reader) (*WAV, error) {
	rs, ok := seekable(r)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read wav stream: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV stream")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find wav data: %w", err)
	}

	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth < 8 || bitDepth > 32 || bitDepth%8 != 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrUnsupportedBitDepth, bitDepth)
	}
	f := decoder.Format()
	if f.NumChannels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", f.NumChannels)
	}

	return &WAV{
		src:     r,
		decoder: decoder,
		format: audio.Format{
			SampleRate: f.SampleRate,
			Channels:   f.NumChannels,
			BitDepth:   bitDepth,
		},
		buf: &goaudio.IntBuffer{
			Format: f,
			Data:   make([]int, blockFrames*f.NumChannels),
		},
	}, nil
}

func seekable(r io.Reader) (io.ReadSeeker, bool) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, false
	}
	if _, err := rs.Seek(0, io.SeekCurrent); err != nil {
		return nil, false
	}
	return rs, true
}

func (s *WAV) Format() audio.Format { return s.format }

func (s *WAV) Read() ([]float64, error) {
	channels := s.format.Channels
	for !s.done && len(s.pending) < channels {
		n, err := s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return nil, fmt.Errorf("wav read failed: %w", err)
		}
		if n == 0 {
			s.done = true
			break
		}
		s.pending = append(s.pending, s.buf.Data[:n]...)
	}

	whole := len(s.pending) - len(s.pending)%channels
	if whole == 0 {
		return nil, io.EOF
	}

	s.out = s.out[:0]
	for _, v := range s.pending[:whole] {
		// 8-bit WAV data is unsigned
		if s.format.BitDepth == 8 {
			v -= 128
		}
		s.out = append(s.out, audio.Normalize(int32(v), s.format.BitDepth))
	}
	s.pending = append(s.pending[:0], s.pending[whole:]...)
	return s.out, nil
}

func (s *WAV) Close() error {
	return closeIfCloser(s.src)
}
