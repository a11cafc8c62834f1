// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for sample encoders
package encode

// Encoder encodes interleaved normalized samples
type Encoder interface {
	// Encode converts samples in [-1, 1] to encoded bytes
	Encode(samples []float64) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
