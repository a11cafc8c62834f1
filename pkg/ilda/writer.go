// ABOUTME: Streaming ILDA writer
// ABOUTME: Encodes frames as format 5 (2D true color) sections
package ilda

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer streams frames as ILDA format 5 sections
type Writer struct {
	w      *bufio.Writer
	frames int
	closed bool
}

// NewWriter creates a writer over w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame appends one frame
func (w *Writer) WriteFrame(frame Frame) error {
	if w.closed {
		return fmt.Errorf("ilda writer closed")
	}
	if len(frame.Points) > math.MaxUint16 {
		return fmt.Errorf("frame has %d points (max %d)", len(frame.Points), math.MaxUint16)
	}
	if len(frame.Points) == 0 {
		// A zero record section terminates the file, so empty frames are not representable
		return nil
	}

	if err := w.writeHeader(frame.Name, frame.Company, len(frame.Points), w.frames); err != nil {
		return err
	}

	var record [8]byte
	for i, p := range frame.Points {
		binary.BigEndian.PutUint16(record[0:2], uint16(p.X))
		binary.BigEndian.PutUint16(record[2:4], uint16(p.Y))

		var status byte
		if p.Blank {
			status |= statusBlanked
		}
		if i == len(frame.Points)-1 {
			status |= statusLastPoint
		}
		record[4] = status
		record[5] = p.B
		record[6] = p.G
		record[7] = p.R

		if _, err := w.w.Write(record[:]); err != nil {
			return fmt.Errorf("failed to write point: %w", err)
		}
	}

	w.frames++
	return nil
}

// Frames returns the number of frames written so far
func (w *Writer) Frames() int {
	return w.frames
}

// Close writes the terminating section and flushes buffered data
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writeHeader("", "", 0, w.frames); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) writeHeader(name, company string, records, number int) error {
	var buf [headerSize]byte
	copy(buf[0:4], magic[:])
	buf[7] = Format2DTrue
	copy(buf[8:16], truncate(name))
	copy(buf[16:24], truncate(company))
	binary.BigEndian.PutUint16(buf[24:26], uint16(records))
	binary.BigEndian.PutUint16(buf[26:28], uint16(number))

	if _, err := w.w.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write ILDA header: %w", err)
	}
	return nil
}

func truncate(s string) []byte {
	b := []byte(s)
	if len(b) > 8 {
		b = b[:8]
	}
	return b
}
