// ABOUTME: Source interface and container selection
// ABOUTME: Picks a reader from the file extension and shares block reading helpers
package input

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lasertools/ildawav/pkg/audio"
)

// blockFrames is the number of sample vectors returned per Read
const blockFrames = 4096

// Source produces interleaved normalized samples
type Source interface {
	// Format describes the stream
	Format() audio.Format

	// Read returns the next block of whole sample vectors. The slice is
	// reused by the following call. Returns io.EOF at the end.
	Read() ([]float64, error)

	// Close releases the source
	Close() error
}

// Container identifies how input bytes are framed
type Container int

const (
	ContainerRaw Container = iota
	ContainerWAV
	ContainerFLAC
	ContainerMP3
)

func (c Container) String() string {
	switch c {
	case ContainerWAV:
		return "wav"
	case ContainerFLAC:
		return "flac"
	case ContainerMP3:
		return "mp3"
	default:
		return "raw"
	}
}

// ContainerFor guesses the container from a file name. Unknown extensions
// and stdin ("" or "-") are raw PCM.
func ContainerFor(path string) Container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return ContainerWAV
	case ".flac":
		return ContainerFLAC
	case ".mp3":
		return ContainerMP3
	default:
		return ContainerRaw
	}
}

// New opens a source of the given container over r. rawFormat is only used
// for ContainerRaw; the other containers carry their own format.
func New(c Container, r io.Reader, rawFormat audio.Format) (Source, error) {
	switch c {
	case ContainerRaw:
		return NewRaw(r, rawFormat)
	case ContainerWAV:
		return NewWAV(r)
	case ContainerFLAC:
		return NewFLAC(r)
	case ContainerMP3:
		return NewMP3(r)
	}
	return nil, fmt.Errorf("unknown container: %d", c)
}

// readWhole fills buf as far as the reader allows and returns the number of
// bytes belonging to complete units of size unit. A trailing partial unit is
// dropped. err is io.EOF only when nothing was read.
func readWhole(r io.Reader, buf []byte, unit int) (int, error) {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		n -= n % unit
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	default:
		return 0, err
	}
}

func closeIfCloser(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
