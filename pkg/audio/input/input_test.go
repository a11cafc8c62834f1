// ABOUTME: Tests for audio sources
// ABOUTME: Covers container detection, raw PCM framing and WAV round trips
package input

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/output"
)

var (
	_ Source = (*Raw)(nil)
	_ Source = (*WAV)(nil)
	_ Source = (*FLAC)(nil)
	_ Source = (*MP3)(nil)
)

func readAll(t *testing.T, s Source) []float64 {
	t.Helper()
	var all []float64
	for {
		block, err := s.Read()
		if err == io.EOF {
			return all
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(block)%s.Format().Channels != 0 {
			t.Fatalf("block of %d samples is not whole vectors", len(block))
		}
		all = append(all, block...)
	}
}

func TestContainerFor(t *testing.T) {
	tests := []struct {
		path     string
		expected Container
	}{
		{"capture.wav", ContainerWAV},
		{"CAPTURE.WAV", ContainerWAV},
		{"show.flac", ContainerFLAC},
		{"lossy.mp3", ContainerMP3},
		{"signal.pcm", ContainerRaw},
		{"", ContainerRaw},
		{"-", ContainerRaw},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ContainerFor(tt.path); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRawSourceDropsPartialVector(t *testing.T) {
	// two stereo 16-bit vectors plus one dangling byte
	data := []byte{0xff, 0x7f, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x01}
	src, err := NewRaw(bytes.NewReader(data), audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	got := readAll(t, src)
	expected := []float64{1, 0, -32768.0 / 32767.0, 0}
	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], got[i])
		}
	}

	if _, err := src.Read(); err != io.EOF {
		t.Errorf("expected sticky io.EOF, got %v", err)
	}
}

func TestRawSourceSpansBlocks(t *testing.T) {
	frames := blockFrames + 10
	data := make([]byte, frames)
	for i := range data {
		data[i] = byte(int8(i % 100))
	}

	src, _ := NewRaw(bytes.NewReader(data), audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 8})
	got := readAll(t, src)
	if len(got) != frames {
		t.Fatalf("expected %d samples, got %d", frames, len(got))
	}
	if got[blockFrames+5] != audio.Normalize(int32((blockFrames+5)%100), 8) {
		t.Errorf("unexpected value after block boundary: %v", got[blockFrames+5])
	}
}

func TestWAVRoundTrip(t *testing.T) {
	for _, bits := range []int{8, 16, 32} {
		format := audio.Format{SampleRate: 22050, Channels: 3, BitDepth: bits}
		input := make([]float64, 3*5000)
		for i := range input {
			input[i] = math.Sin(float64(i) / 37)
		}

		var file bytes.Buffer
		sink, err := output.NewWAV(output.NewBufferedWriteSeeker(&file), format)
		if err != nil {
			t.Fatalf("%d-bit: failed to create sink: %v", bits, err)
		}
		if err := sink.Write(input); err != nil {
			t.Fatalf("%d-bit: write failed: %v", bits, err)
		}
		if err := sink.Finish(); err != nil {
			t.Fatalf("%d-bit: finish failed: %v", bits, err)
		}

		// a plain io.Reader exercises the read-into-memory path
		src, err := NewWAV(io.MultiReader(&file))
		if err != nil {
			t.Fatalf("%d-bit: failed to open wav: %v", bits, err)
		}
		if src.Format() != format {
			t.Errorf("%d-bit: expected format %v, got %v", bits, format, src.Format())
		}

		got := readAll(t, src)
		if len(got) != len(input) {
			t.Fatalf("%d-bit: expected %d samples, got %d", bits, len(input), len(got))
		}
		_, max := audio.Range(bits)
		tolerance := 1.5 / float64(max)
		for i := range input {
			if math.Abs(got[i]-input[i]) > tolerance {
				t.Fatalf("%d-bit sample %d: expected %v, got %v", bits, i, input[i], got[i])
			}
		}
	}
}

func TestWAVRejectsGarbage(t *testing.T) {
	if _, err := NewWAV(bytes.NewReader([]byte("definitely not a riff file"))); err == nil {
		t.Error("expected error for invalid wav")
	}
}

func TestFLACRejectsGarbage(t *testing.T) {
	if _, err := NewFLAC(bytes.NewReader([]byte("definitely not flac"))); err == nil {
		t.Error("expected error for invalid flac")
	}
}

func TestNewRawBadFormat(t *testing.T) {
	_, err := New(ContainerRaw, bytes.NewReader(nil), audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 24})
	if !errors.Is(err, audio.ErrUnsupportedBitDepth) {
		t.Errorf("expected ErrUnsupportedBitDepth, got %v", err)
	}
}
