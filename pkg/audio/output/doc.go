// ABOUTME: Audio output package for the encoded laser signal
// ABOUTME: Provides the Sink interface and raw PCM, WAV and sound card sinks
// Package output provides the destinations an encoded laser signal is
// written to.
//
// Every sink accepts interleaved normalized samples and quantizes them to
// its configured bit depth. Finish must be called exactly once the stream
// ends; it is safe to call more than once.
//
// Example:
//
//	sink, err := output.NewWAV(output.NewBufferedWriteSeeker(os.Stdout), format)
//	defer sink.Finish()
//	err = sink.Write(samples)
package output
