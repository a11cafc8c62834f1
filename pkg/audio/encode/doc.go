// ABOUTME: Audio encoder package for turning normalized samples into PCM bytes
// ABOUTME: Provides the Encoder interface and the signed little-endian PCM encoder
// Package encode converts normalized laser signal samples into PCM.
//
// Supports: signed little-endian PCM at 8, 16 and 32 bits.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	data, err := encoder.Encode(samples)
package encode
