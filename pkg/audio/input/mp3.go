// ABOUTME: MP3 source
// ABOUTME: Decodes MP3 captures with go-mp3; always stereo 16-bit
package input

import (
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/go-mp3"
	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/decode"
)

// MP3 decoder output is always 16-bit stereo
const (
	mp3Channels = 2
	mp3BitDepth = 16
)

// MP3 reads an MP3 stream. MP3 is lossy; blanking and constant channels
// survive only approximately.
type MP3 struct {
	src     io.Reader
	decoder *mp3.Decoder
	pcm     *decode.PCMDecoder
	format  audio.Format
	buf     []byte
	done    bool
}

// NewMP3 parses the first MP3 frame from r
func NewMP3(r io.Reader) (*MP3, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	format := audio.Format{
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
		BitDepth:   mp3BitDepth,
	}
	pcm, err := decode.NewPCM(format)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded MP3: sample rate: %d Hz", format.SampleRate)

	return &MP3{
		src:     r,
		decoder: decoder,
		pcm:     pcm,
		format:  format,
		buf:     make([]byte, blockFrames*mp3Channels*2),
	}, nil
}

func (s *MP3) Format() audio.Format { return s.format }

func (s *MP3) Read() ([]float64, error) {
	if s.done {
		return nil, io.EOF
	}

	n, err := readWhole(s.decoder, s.buf, mp3Channels*2)
	if err != nil {
		s.done = true
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("mp3 read failed: %w", err)
	}
	if n < len(s.buf) {
		s.done = true
	}

	return s.pcm.Decode(s.buf[:n])
}

func (s *MP3) Close() error {
	return closeIfCloser(s.src)
}
