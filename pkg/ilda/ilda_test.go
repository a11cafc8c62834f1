// ABOUTME: Tests for ILDA reader and writer
// ABOUTME: Tests section decoding, palettes, metadata truncation and termination
package ilda

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func testHeader(format uint8, records uint16, projector uint8) []byte {
	h := make([]byte, headerSize)
	copy(h, "ILDA")
	h[7] = format
	copy(h[8:16], "name")
	copy(h[16:24], "company")
	binary.BigEndian.PutUint16(h[24:26], records)
	h[30] = projector
	return h
}

func TestWriterReaderFrames(t *testing.T) {
	frames := []Frame{
		{
			Name:    "first",
			Company: "lasers",
			Points: []Point{
				{X: -32768, Y: 32767, R: 255, G: 0, B: 10, Blank: true},
				{X: 100, Y: -100, R: 1, G: 2, B: 3},
			},
		},
		{
			Name:   "second",
			Points: []Point{{X: 5, Y: 6, R: 7, G: 8, B: 9}},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	r := NewReader(&buf)
	for i, want := range frames {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if got.Name != want.Name || got.Company != want.Company {
			t.Errorf("frame %d: expected metadata %q/%q, got %q/%q", i, want.Name, want.Company, got.Name, got.Company)
		}
		if len(got.Points) != len(want.Points) {
			t.Fatalf("frame %d: expected %d points, got %d", i, len(want.Points), len(got.Points))
		}
		for j := range want.Points {
			if got.Points[j] != want.Points[j] {
				t.Errorf("frame %d point %d: expected %+v, got %+v", i, j, want.Points[j], got.Points[j])
			}
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after terminator, got %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF to be sticky, got %v", err)
	}
}

func TestWriterTruncatesMetadata(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteFrame(Frame{
		Name:    "averyverylongname",
		Company: "123456789",
		Points:  []Point{{}},
	})
	if err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}
	w.Close()

	frame, err := NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if frame.Name != "averyver" {
		t.Errorf("expected name truncated to 8 bytes, got %q", frame.Name)
	}
	if frame.Company != "12345678" {
		t.Errorf("expected company truncated to 8 bytes, got %q", frame.Company)
	}
}

func TestWriterSkipsEmptyFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteFrame(Frame{})
	w.WriteFrame(NewFrame([]Point{{X: 1}}))
	w.Close()

	if w.Frames() != 1 {
		t.Errorf("expected 1 frame written, got %d", w.Frames())
	}

	r := NewReader(&buf)
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderIndexedDefaultPalette(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(testHeader(Format2DIndexed, 3, 0))
	// x, y, status, color index
	buf.Write([]byte{0x00, 0x10, 0xFF, 0xF0, 0x00, 16})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00, statusBlanked, 0})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00, statusLastPoint, 200})

	frame, err := NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}

	want := []Point{
		{X: 16, Y: -16, R: 255, G: 255, B: 0},
		{R: 255, G: 0, B: 0, Blank: true},
		{}, // index outside palette is black
	}
	for i := range want {
		if frame.Points[i] != want[i] {
			t.Errorf("point %d: expected %+v, got %+v", i, want[i], frame.Points[i])
		}
	}
}

func TestReaderPaletteSection(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(testHeader(FormatPalette, 2, 3))
	buf.Write([]byte{1, 2, 3, 4, 5, 6})
	buf.Write(testHeader(Format3DIndexed, 1, 3))
	buf.Write([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 1})
	buf.Write(testHeader(Format3DIndexed, 1, 0))
	buf.Write([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 1})

	r := NewReader(&buf)

	frame, err := r.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	want := Point{X: 1, Y: 2, R: 4, G: 5, B: 6}
	if frame.Points[0] != want {
		t.Errorf("projector palette: expected %+v, got %+v", want, frame.Points[0])
	}

	frame, err = r.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	want = Point{X: 1, Y: 2, R: 255, G: 16, B: 0}
	if frame.Points[0] != want {
		t.Errorf("default palette: expected %+v, got %+v", want, frame.Points[0])
	}

	// No terminator section: clean end of input still finishes the stream
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderTrueColor3D(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(testHeader(Format3DTrue, 1, 0))
	buf.Write([]byte{0x01, 0x00, 0x02, 0x00, 0x7F, 0xFF, statusBlanked | statusLastPoint, 30, 20, 10})

	frame, err := NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	want := Point{X: 256, Y: 512, R: 10, G: 20, B: 30, Blank: true}
	if frame.Points[0] != want {
		t.Errorf("expected %+v, got %+v", want, frame.Points[0])
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		corrupt bool
	}{
		{
			name:    "bad magic",
			data:    append([]byte("ILDB"), make([]byte, headerSize-4)...),
			corrupt: true,
		},
		{
			name: "truncated header",
			data: []byte("ILDA\x00\x00"),
		},
		{
			name: "truncated points",
			data: append(testHeader(Format2DTrue, 2, 0), make([]byte, 10)...),
		},
		{
			name: "unknown format",
			data: append(testHeader(3, 1, 0), make([]byte, 8)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data)).Next()
			if err == nil || err == io.EOF {
				t.Fatalf("expected error, got %v", err)
			}
			if tt.corrupt && !errors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

type sliceReader struct {
	frames []Frame
	reads  int
}

func (s *sliceReader) Next() (Frame, error) {
	s.reads++
	if len(s.frames) == 0 {
		return Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func TestRepeaterCyclesInOrder(t *testing.T) {
	source := &sliceReader{frames: []Frame{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}}
	r := NewRepeater(source)

	want := []string{"a", "b", "c", "a", "b", "c", "a", "b"}
	for i, name := range want {
		f, err := r.Next()
		if err != nil {
			t.Fatalf("Next() %d failed: %v", i, err)
		}
		if f.Name != name {
			t.Errorf("Next() %d: expected %q, got %q", i, name, f.Name)
		}
	}

	if r.Buffered() != 3 {
		t.Errorf("expected 3 buffered frames, got %d", r.Buffered())
	}
	if source.reads != 4 {
		t.Errorf("expected source to be drained once (4 reads), got %d", source.reads)
	}
}

func TestRepeaterEmptySource(t *testing.T) {
	r := NewRepeater(&sliceReader{})
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF for empty source, got %v", err)
	}
}
