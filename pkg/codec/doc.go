// ABOUTME: Laser frame <-> multichannel signal codec
// ABOUTME: Package docs for the encoder and decoder
// Package codec converts ILDA frames into a multichannel analog-style signal
// for driving a laser projector from a sound card, and back.
//
// The Encoder spends each frame's time budget in two phases per point. The
// travel phase moves the beam from its settled position to the point, taking
// a share of the frame's free time proportional to the distance covered. The
// dwell phase then holds the beam on the point for a guaranteed minimum time
// derived from the projector's point rate. Axis channels are interpolated
// during travel; color and blanking channels switch at once.
//
// The Decoder demultiplexes sample vectors back into points and cuts them
// into frames of 1/fps seconds each.
//
//	enc, err := codec.NewEncoder(codec.EncoderConfig{
//	    Mapping:     channel.MustParse("xyl"),
//	    FPS:         20,
//	    PPS:         10000,
//	    SampleRate:  44100,
//	    Correctness: 1,
//	})
//	err = codec.Encode(ctx, enc, ilda.NewReader(f), sink)
package codec
