// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests 8, 16 and 32-bit PCM encoding
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/lasertools/ildawav/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		wantErr  bool
	}{
		{"8-bit", 8, false},
		{"16-bit", 16, false},
		{"32-bit", 32, false},
		{"24-bit", 24, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPCM(audio.Format{SampleRate: 44100, Channels: 2, BitDepth: tt.bitDepth})
			if tt.wantErr {
				if !errors.Is(err, audio.ErrUnsupportedBitDepth) {
					t.Errorf("expected ErrUnsupportedBitDepth, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPCMEncode16Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer encoder.Close()

	samples := []float64{0, 1, -1, 0.5}
	data, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}

	expected := []int16{0, 32767, -32768, 16383}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestPCMEncode8BitIsSigned(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 8})

	data, err := encoder.Encode([]float64{1, -1, 0})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	expected := []byte{0x7f, 0x80, 0x00}
	if !bytes.Equal(data, expected) {
		t.Errorf("expected %x, got %x", expected, data)
	}
}

func TestPCMEncode32Bit(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 32})

	data, err := encoder.Encode([]float64{1, -1})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if got := int32(binary.LittleEndian.Uint32(data)); got != 2147483647 {
		t.Errorf("expected max int32, got %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[4:])); got != -2147483648 {
		t.Errorf("expected min int32, got %d", got)
	}
}
