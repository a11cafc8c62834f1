// ABOUTME: Oto-based sound card sink
// ABOUTME: Plays the encoded signal live, for driving a projector from an audio interface
package output

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/audio/encode"
)

const otoDrainPoll = 10 * time.Millisecond

// Oto plays samples through the default audio device
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	encoder    *encode.PCMEncoder
	channels   int
	finished   bool
}

// NewOto opens the audio device. oto only plays 16-bit, so other bit depths
// are played at 16 bits. Only one oto context may exist per process.
func NewOto(format audio.Format) (*Oto, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.BitDepth != 16 {
		log.Printf("Warning: oto only supports 16-bit output, playing %d-bit stream at 16 bits", format.BitDepth)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	encoder, err := encode.NewPCM(audio.Format{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   16,
	})
	if err != nil {
		return nil, err
	}

	o := &Oto{
		otoCtx:   ctx,
		encoder:  encoder,
		channels: format.Channels,
	}

	// persistent player fed by a pipe
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels", format.SampleRate, format.Channels)
	return o, nil
}

// Write queues samples for playback, blocking while the device catches up
func (o *Oto) Write(samples []float64) error {
	if o.finished {
		return fmt.Errorf("audio output already finished")
	}
	if len(samples)%o.channels != 0 {
		return fmt.Errorf("got %d samples for %d channels", len(samples), o.channels)
	}

	data, err := o.encoder.Encode(samples)
	if err != nil {
		return err
	}
	if _, err := o.pipeWriter.Write(data); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Finish waits for queued audio to play out and releases the device
func (o *Oto) Finish() error {
	if o.finished {
		return nil
	}
	o.finished = true

	o.pipeWriter.Close()
	for o.player.IsPlaying() {
		time.Sleep(otoDrainPoll)
	}

	err := o.player.Close()
	o.pipeReader.Close()
	if serr := o.otoCtx.Suspend(); err == nil {
		err = serr
	}
	if err != nil {
		return fmt.Errorf("audio output close failed: %w", err)
	}
	return nil
}
