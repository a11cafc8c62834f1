// ABOUTME: PCM audio encoder
// ABOUTME: Encodes normalized samples to 8, 16 or 32-bit signed little-endian PCM
package encode

import (
	"encoding/binary"

	"github.com/lasertools/ildawav/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
	buf      []byte
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if err := audio.CheckBitDepth(format.BitDepth); err != nil {
		return nil, err
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts samples to PCM bytes. The returned slice is reused by the
// next call.
func (e *PCMEncoder) Encode(samples []float64) ([]byte, error) {
	width := e.bitDepth / 8
	need := len(samples) * width
	if cap(e.buf) < need {
		e.buf = make([]byte, need)
	}
	out := e.buf[:need]

	for i, v := range samples {
		s := audio.Quantize(v, e.bitDepth)
		switch e.bitDepth {
		case 8:
			out[i] = byte(int8(s))
		case 16:
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
		case 32:
			binary.LittleEndian.PutUint32(out[i*4:], uint32(s))
		}
	}

	return out, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
