// ABOUTME: Unit tests for PCM decoder
// ABOUTME: Tests decoding and the encode/decode round trip
package decode

import (
	"math"
	"testing"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/encode"
)

func TestPCMDecode16Bit(t *testing.T) {
	decoder, err := NewPCM(audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	samples, err := decoder.Decode([]byte{0xff, 0x7f, 0x00, 0x00, 0x00, 0x80})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := []float64{1, 0, -32768.0 / 32767.0}
	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], samples[i])
		}
	}
}

func TestPCMDecodePartialSample(t *testing.T) {
	decoder, _ := NewPCM(audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 32})

	if _, err := decoder.Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for partial sample")
	}
}

func TestPCMRoundTrip(t *testing.T) {
	input := []float64{-1, -0.75, -0.1, 0, 0.1, 0.333, 0.75, 1}

	for _, bits := range []int{8, 16, 32} {
		format := audio.Format{SampleRate: 44100, Channels: 1, BitDepth: bits}
		encoder, _ := encode.NewPCM(format)
		decoder, _ := NewPCM(format)

		data, err := encoder.Encode(input)
		if err != nil {
			t.Fatalf("%d-bit encode failed: %v", bits, err)
		}
		output, err := decoder.Decode(data)
		if err != nil {
			t.Fatalf("%d-bit decode failed: %v", bits, err)
		}

		_, max := audio.Range(bits)
		tolerance := 1.5 / float64(max)
		for i := range input {
			if math.Abs(output[i]-input[i]) > tolerance {
				t.Errorf("%d-bit sample %d: expected %v, got %v", bits, i, input[i], output[i])
			}
		}
	}
}
