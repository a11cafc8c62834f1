// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for sample decoders
package decode

// Decoder decodes encoded audio into interleaved normalized samples
type Decoder interface {
	// Decode converts encoded bytes to samples
	Decode(data []byte) ([]float64, error)

	// Close releases decoder resources
	Close() error
}
