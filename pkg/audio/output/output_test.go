// ABOUTME: Tests for the raw and WAV sinks and the seekable buffer
// ABOUTME: Verifies byte layout, header patching and finish semantics
package output

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/lasertools/ildawav/pkg/audio"
)

var (
	_ Sink = (*Raw)(nil)
	_ Sink = (*WAV)(nil)
	_ Sink = (*Oto)(nil)
)

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func TestRawSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewRaw(&buf, audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}

	if err := sink.Write([]float64{1, -1, 0, 0.5}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected output to be buffered until finish, got %d bytes", buf.Len())
	}
	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if err := sink.Finish(); err != nil {
		t.Errorf("second finish should be a no-op, got %v", err)
	}

	expected := []int16{32767, -32768, 0, 16383}
	if buf.Len() != len(expected)*2 {
		t.Fatalf("expected %d bytes, got %d", len(expected)*2, buf.Len())
	}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(buf.Bytes()[i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestRawSinkRejectsPartialFrame(t *testing.T) {
	sink, _ := NewRaw(io.Discard, audio.Format{SampleRate: 44100, Channels: 3, BitDepth: 8})
	if err := sink.Write([]float64{0, 0}); err == nil {
		t.Error("expected error for sample count not matching channels")
	}
}

func TestRawSinkBadFormat(t *testing.T) {
	if _, err := NewRaw(io.Discard, audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 12}); err == nil {
		t.Error("expected error for 12-bit format")
	}
}

func TestBufferedWriteSeeker(t *testing.T) {
	var dst countingWriter
	b := NewBufferedWriteSeeker(&dst)

	b.Write([]byte("hello world"))
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	b.Write([]byte("HELLO"))
	if _, err := b.Seek(0, io.SeekEnd); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	b.Write([]byte("!"))
	if _, err := b.Seek(2, io.SeekCurrent); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	b.Write([]byte("x"))

	if dst.Len() != 0 {
		t.Fatal("expected nothing written before flush")
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("second flush failed: %v", err)
	}

	expected := "HELLO world!\x00\x00x"
	if dst.String() != expected {
		t.Errorf("expected %q, got %q", expected, dst.String())
	}
	if dst.writes != 1 {
		t.Errorf("expected exactly 1 write to destination, got %d", dst.writes)
	}
	if _, err := b.Write([]byte("late")); err == nil {
		t.Error("expected error writing after flush")
	}
}

func TestBufferedWriteSeekerNegativeSeek(t *testing.T) {
	b := NewBufferedWriteSeeker(io.Discard)
	if _, err := b.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative position")
	}
}

func TestWAVSinkHeader(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		samples  []float64
		data     []byte
	}{
		{"16-bit", 16, []float64{1, -1}, []byte{0xff, 0x7f, 0x00, 0x80}},
		{"8-bit unsigned", 8, []float64{1, -1, 0, 0}, []byte{0xff, 0x00, 0x80, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ws := NewBufferedWriteSeeker(&out)
			format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: tt.bitDepth}

			sink, err := NewWAV(ws, format)
			if err != nil {
				t.Fatalf("failed to create sink: %v", err)
			}
			if err := sink.Write(tt.samples); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if err := sink.Finish(); err != nil {
				t.Fatalf("finish failed: %v", err)
			}

			b := out.Bytes()
			if len(b) != 44+len(tt.data) {
				t.Fatalf("expected %d bytes, got %d", 44+len(tt.data), len(b))
			}
			if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
				t.Fatalf("missing RIFF/WAVE magic: %q", b[:12])
			}
			if got := binary.LittleEndian.Uint32(b[4:]); got != uint32(len(b)-8) {
				t.Errorf("riff size: expected %d, got %d", len(b)-8, got)
			}
			if got := binary.LittleEndian.Uint16(b[22:]); got != 2 {
				t.Errorf("channels: expected 2, got %d", got)
			}
			if got := binary.LittleEndian.Uint32(b[24:]); got != 44100 {
				t.Errorf("sample rate: expected 44100, got %d", got)
			}
			if got := binary.LittleEndian.Uint16(b[34:]); got != uint16(tt.bitDepth) {
				t.Errorf("bit depth: expected %d, got %d", tt.bitDepth, got)
			}
			if got := binary.LittleEndian.Uint32(b[40:]); got != uint32(len(tt.data)) {
				t.Errorf("data size: expected %d, got %d", len(tt.data), got)
			}
			if !bytes.Equal(b[44:], tt.data) {
				t.Errorf("data: expected %x, got %x", tt.data, b[44:])
			}
		})
	}
}

func TestWAVSinkEmptyStream(t *testing.T) {
	var out bytes.Buffer
	sink, _ := NewWAV(NewBufferedWriteSeeker(&out), audio.Format{SampleRate: 48000, Channels: 1, BitDepth: 32})

	if err := sink.Finish(); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if out.Len() != 44 {
		t.Errorf("expected a bare 44-byte header, got %d bytes", out.Len())
	}
}
