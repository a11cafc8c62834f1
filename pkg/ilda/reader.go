// ABOUTME: Streaming ILDA reader
// ABOUTME: Decodes ILDA sections into frames, tracking palettes per projector
package ilda

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Section formats
const (
	Format3DIndexed = 0
	Format2DIndexed = 1
	FormatPalette   = 2
	Format3DTrue    = 4
	Format2DTrue    = 5
)

const (
	headerSize = 32

	statusBlanked   = 0x40
	statusLastPoint = 0x80
)

var magic = [4]byte{'I', 'L', 'D', 'A'}

// ErrCorrupt is returned when a section header lacks the ILDA magic
var ErrCorrupt = errors.New("corrupt ILDA data")

type header struct {
	format      uint8
	name        string
	company     string
	records     uint16
	frameNumber uint16
	totalFrames uint16
	projectorID uint8
}

// Reader streams frames from ILDA data
type Reader struct {
	r        *bufio.Reader
	palettes map[uint8][]Color
	done     bool
}

// NewReader creates a reader over r
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:        bufio.NewReader(r),
		palettes: make(map[uint8][]Color),
	}
}

// Next returns the next frame, or io.EOF after the terminating section
func (r *Reader) Next() (Frame, error) {
	for {
		if r.done {
			return Frame{}, io.EOF
		}

		h, err := r.readHeader()
		if err != nil {
			if err == io.EOF {
				r.done = true
			}
			return Frame{}, err
		}

		if h.records == 0 {
			r.done = true
			return Frame{}, io.EOF
		}

		switch h.format {
		case Format3DIndexed, Format2DIndexed:
			return r.readIndexed(h)
		case Format3DTrue, Format2DTrue:
			return r.readTrueColor(h)
		case FormatPalette:
			if err := r.readPalette(h); err != nil {
				return Frame{}, err
			}
		default:
			return Frame{}, fmt.Errorf("unsupported ILDA format: %d", h.format)
		}
	}
}

func (r *Reader) readHeader() (header, error) {
	var buf [headerSize]byte
	n, err := io.ReadFull(r.r, buf[:])
	if err != nil {
		// A stream that simply stops between sections is treated as finished
		if n == 0 && err == io.EOF {
			return header{}, io.EOF
		}
		return header{}, fmt.Errorf("failed to read ILDA header: %w", err)
	}

	if [4]byte(buf[0:4]) != magic {
		return header{}, ErrCorrupt
	}

	return header{
		format:      buf[7],
		name:        trimField(buf[8:16]),
		company:     trimField(buf[16:24]),
		records:     binary.BigEndian.Uint16(buf[24:26]),
		frameNumber: binary.BigEndian.Uint16(buf[26:28]),
		totalFrames: binary.BigEndian.Uint16(buf[28:30]),
		projectorID: buf[30],
	}, nil
}

func (r *Reader) readIndexed(h header) (Frame, error) {
	size := 6
	if h.format == Format3DIndexed {
		size = 8
	}

	palette, ok := r.palettes[h.projectorID]
	if !ok {
		palette = DefaultPalette
	}

	frame := Frame{Name: h.name, Company: h.company, Points: make([]Point, 0, h.records)}
	record := make([]byte, size)

	for i := 0; i < int(h.records); i++ {
		if _, err := io.ReadFull(r.r, record); err != nil {
			return Frame{}, fmt.Errorf("failed to read point %d: %w", i, unexpected(err))
		}

		p := Point{
			X: int16(binary.BigEndian.Uint16(record[0:2])),
			Y: int16(binary.BigEndian.Uint16(record[2:4])),
		}
		status := record[size-2]
		index := int(record[size-1])

		p.Blank = status&statusBlanked != 0
		if index < len(palette) {
			c := palette[index]
			p.R, p.G, p.B = c.R, c.G, c.B
		}

		frame.Points = append(frame.Points, p)
	}

	return frame, nil
}

func (r *Reader) readTrueColor(h header) (Frame, error) {
	size := 8
	if h.format == Format3DTrue {
		size = 10
	}

	frame := Frame{Name: h.name, Company: h.company, Points: make([]Point, 0, h.records)}
	record := make([]byte, size)

	for i := 0; i < int(h.records); i++ {
		if _, err := io.ReadFull(r.r, record); err != nil {
			return Frame{}, fmt.Errorf("failed to read point %d: %w", i, unexpected(err))
		}

		// Layout ends with status, blue, green, red regardless of dimension
		status := record[size-4]
		frame.Points = append(frame.Points, Point{
			X:     int16(binary.BigEndian.Uint16(record[0:2])),
			Y:     int16(binary.BigEndian.Uint16(record[2:4])),
			B:     record[size-3],
			G:     record[size-2],
			R:     record[size-1],
			Blank: status&statusBlanked != 0,
		})
	}

	return frame, nil
}

func (r *Reader) readPalette(h header) error {
	palette := make([]Color, h.records)
	var rgb [3]byte

	for i := range palette {
		if _, err := io.ReadFull(r.r, rgb[:]); err != nil {
			return fmt.Errorf("failed to read palette entry %d: %w", i, unexpected(err))
		}
		palette[i] = Color{R: rgb[0], G: rgb[1], B: rgb[2]}
	}

	r.palettes[h.projectorID] = palette
	return nil
}

// unexpected promotes EOF inside a section to ErrUnexpectedEOF
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func trimField(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}
