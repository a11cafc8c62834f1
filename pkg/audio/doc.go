// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the normalized sample quantization used by every sink and source
// Package audio provides the PCM stream description shared by the laser codec
// and its sinks and sources.
//
// Laser signals are handled as normalized values in [-1, 1], one per channel.
// Quantize and Normalize convert them to and from signed PCM of 8, 16 or 32
// bits:
//
//	format := audio.Format{
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	raw := audio.Quantize(0.5, format.BitDepth)  // 16383
//	v := audio.Normalize(raw, format.BitDepth)    // ~0.49998
package audio
