// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 8, 16 and 32-bit signed little-endian PCM to normalized samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/lasertools/ildawav/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if err := audio.CheckBitDepth(format.BitDepth); err != nil {
		return nil, err
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// SampleWidth returns the byte width of one sample
func (d *PCMDecoder) SampleWidth() int {
	return d.bitDepth / 8
}

// Decode converts PCM bytes to samples. data must hold whole samples.
func (d *PCMDecoder) Decode(data []byte) ([]float64, error) {
	width := d.bitDepth / 8
	if len(data)%width != 0 {
		return nil, fmt.Errorf("partial sample: %d bytes at %d-bit", len(data), d.bitDepth)
	}

	samples := make([]float64, len(data)/width)
	for i := range samples {
		var s int32
		switch d.bitDepth {
		case 8:
			s = int32(int8(data[i]))
		case 16:
			s = int32(int16(binary.LittleEndian.Uint16(data[i*2:])))
		case 32:
			s = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		samples[i] = audio.Normalize(s, d.bitDepth)
	}

	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
