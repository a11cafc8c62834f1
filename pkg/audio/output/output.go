// ABOUTME: Sink interface definition
// ABOUTME: Common interface for encoded signal destinations
package output

// Sink receives interleaved samples in [-1, 1]
type Sink interface {
	// Write quantizes and outputs samples. len(samples) must be a multiple
	// of the channel count. The slice is not retained.
	Write(samples []float64) error

	// Finish flushes buffered data and writes any container trailer
	Finish() error
}

// Flusher is implemented by destinations that buffer until told otherwise
type Flusher interface {
	Flush() error
}
