// ABOUTME: FLAC container source
// ABOUTME: Decodes lossless FLAC captures with mewkiz/flac
package input

import (
	"fmt"
	"io"
	"log"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLAC reads a FLAC stream
type FLAC struct {
	stream *flac.Stream
	format audio.Format
	out    []float64
}

// NewFLAC parses the FLAC stream info from r
func NewFLAC(r io.Reader) (*FLAC, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}
	log.Printf("Loaded FLAC: sample rate: %d Hz, channels: %d, bit depth: %d",
		format.SampleRate, format.Channels, format.BitDepth)

	return &FLAC{
		stream: stream,
		format: format,
	}, nil
}

func (s *FLAC) Format() audio.Format { return s.format }

// Read returns one FLAC frame worth of samples
func (s *FLAC) Read() ([]float64, error) {
	frame, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("flac read failed: %w", err)
	}

	s.out = s.out[:0]
	for i := 0; i < int(frame.BlockSize); i++ {
		for ch := 0; ch < s.format.Channels; ch++ {
			sample := frame.Subframes[ch].Samples[i]
			s.out = append(s.out, audio.Normalize(sample, s.format.BitDepth))
		}
	}
	return s.out, nil
}

// Close closes the stream, and r when it is an io.Closer
func (s *FLAC) Close() error {
	return s.stream.Close()
}
