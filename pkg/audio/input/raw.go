// ABOUTME: Raw PCM source
// ABOUTME: Reads headerless signed little-endian PCM of a configured format
package input

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/decode"
)

// Raw reads bare PCM
type Raw struct {
	r       io.Reader
	src     io.Reader
	format  audio.Format
	decoder *decode.PCMDecoder
	buf     []byte
	done    bool
}

// NewRaw reads PCM of format from r
func NewRaw(r io.Reader, format audio.Format) (*Raw, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	decoder, err := decode.NewPCM(format)
	if err != nil {
		return nil, err
	}

	return &Raw{
		r:       bufio.NewReaderSize(r, 64*1024),
		src:     r,
		format:  format,
		decoder: decoder,
		buf:     make([]byte, blockFrames*format.Channels*decoder.SampleWidth()),
	}, nil
}

func (s *Raw) Format() audio.Format { return s.format }

func (s *Raw) Read() ([]float64, error) {
	if s.done {
		return nil, io.EOF
	}

	vector := s.format.Channels * s.decoder.SampleWidth()
	n, err := readWhole(s.r, s.buf, vector)
	if err != nil {
		s.done = true
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("raw read failed: %w", err)
	}
	if n < len(s.buf) {
		s.done = true
	}

	return s.decoder.Decode(s.buf[:n])
}

func (s *Raw) Close() error {
	return closeIfCloser(s.src)
}
