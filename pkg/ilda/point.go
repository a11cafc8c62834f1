// ABOUTME: Laser point and frame type definitions
// ABOUTME: Defines the value types that flow through the codec
package ilda

// Point is one target position of the beam plus its color and blanking state
type Point struct {
	X     int16
	Y     int16
	R     uint8
	G     uint8
	B     uint8
	Blank bool // beam off while travelling to this point
}

// Frame is one still vector image
type Frame struct {
	Name    string // at most 8 bytes are persisted
	Company string // at most 8 bytes are persisted
	Points  []Point
}

// NewFrame creates a frame without metadata
func NewFrame(points []Point) Frame {
	return Frame{Points: points}
}

// FrameReader yields frames until io.EOF
type FrameReader interface {
	Next() (Frame, error)
}

// FrameWriter consumes frames
type FrameWriter interface {
	WriteFrame(frame Frame) error
}
