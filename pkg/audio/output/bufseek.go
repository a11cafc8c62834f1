// ABOUTME: In-memory seekable buffer in front of a plain writer
// ABOUTME: Lets header-patching writers target stdout and pipes
package output

import (
	"errors"
	"fmt"
	"io"
)

// BufferedWriteSeeker holds everything written to it in memory and copies
// the content to the destination once, on Flush. Peak memory is the full
// output size.
type BufferedWriteSeeker struct {
	dst     io.Writer
	data    []byte
	pos     int64
	flushed bool
}

// NewBufferedWriteSeeker wraps dst
func NewBufferedWriteSeeker(dst io.Writer) *BufferedWriteSeeker {
	return &BufferedWriteSeeker{dst: dst}
}

// Write writes at the current position, growing the buffer as needed
func (b *BufferedWriteSeeker) Write(p []byte) (int, error) {
	if b.flushed {
		return 0, errors.New("write after flush")
	}

	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(b.data))))
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

// Seek sets the position for the next Write. Seeking past the end and then
// writing zero-fills the gap.
func (b *BufferedWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = abs
	return abs, nil
}

// Len returns the buffered size
func (b *BufferedWriteSeeker) Len() int {
	return len(b.data)
}

// Flush copies the buffered content to the destination. Later calls do
// nothing.
func (b *BufferedWriteSeeker) Flush() error {
	if b.flushed {
		return nil
	}
	b.flushed = true

	if _, err := b.dst.Write(b.data); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}
	if f, ok := b.dst.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
