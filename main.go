// ABOUTME: Entry point for ilda2wav
// ABOUTME: Converts ILDA animations into laser control signals as audio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lasertools/ildawav/internal/config"
	"github.com/lasertools/ildawav/internal/ui"
	"github.com/lasertools/ildawav/internal/version"
	"github.com/lasertools/ildawav/pkg/audio/output"
	"github.com/lasertools/ildawav/pkg/channel"
	"github.com/lasertools/ildawav/pkg/codec"
	"github.com/lasertools/ildawav/pkg/ilda"
	"github.com/lasertools/ildawav/pkg/stream"
)

var defaults = config.LoadEncode()

var (
	pps         = flag.Float64("pps", defaults.PPS, "Points per second the projector can draw")
	correctness = flag.Float64("correctness", defaults.Correctness, "Minimum time per point in units of 1/pps (below 1 lets close points be skipped)")
	fps         = flag.Float64("fps", defaults.FPS, "Frames per second to draw")
	sampleRate  = flag.Int("sample-rate", defaults.SampleRate, "Sample rate of the output")
	bps         = flag.Int("bps", defaults.BitDepth, "Bits per sample of the output (8, 16 or 32)")
	repeat      = flag.Bool("repeat", false, "Repeat the animation forever (raw PCM on stdout, -play or -serve only)")
	raw         = flag.Bool("raw", false, "Write raw PCM samples without a WAV header")
	play        = flag.Bool("play", false, "Play the signal on the default sound card")
	serve       = flag.String("serve", "", "Stream the signal over websocket on this address (e.g. :8928)")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement of the stream")
	name        = flag.String("name", "", "Stream name (default: hostname-ildawav)")
	useTUI      = flag.Bool("tui", false, "Show a progress TUI")
	logFile     = flag.String("log-file", "", "Log file path")
	debug       = flag.Bool("debug", false, "Log the time budget of every frame")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: ilda2wav [flags] CHANNELS [INPUT.ild] [OUTPUT.wav]

CHANNELS defines one output channel per character:
%s
Examples: "xy" drives the axes of a stereo output,
"__l_xy" adds the blanking signal on a 5.1 output.

Files:
  none           read stdin, write stdout
  one .ild file  read the file, write stdout
  one .wav file  read stdin, write the file
  two files      read the first, write the second

A WAV written to stdout is buffered in memory until the end.

Flags:
`, channel.Help())
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	in, out, err := config.ResolveFiles(args[1:], []string{".ild"}, []string{".wav"})
	if err != nil {
		return err
	}

	cfg := config.Encode{
		Mapping:     args[0],
		FPS:         *fps,
		PPS:         *pps,
		SampleRate:  *sampleRate,
		BitDepth:    *bps,
		Correctness: *correctness,
		Repeat:      *repeat,
		Raw:         *raw,
		Input:       in,
		Output:      out,
		Play:        *play,
		Serve:       *serve,
		TUI:         *useTUI,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	mapping := channel.MustParse(cfg.Mapping)

	closeLog, err := setupLogging(*logFile, !cfg.TUI)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Printf("Starting %s", version.String())
	log.Printf("Input: %s, output: %s, channels: %s", config.Name(cfg.Input), outputName(cfg), mapping)
	log.Printf("Format: %s, fps: %.2f, pps: %.0f, correctness: %.2f", cfg.Format(), cfg.FPS, cfg.PPS, cfg.Correctness)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := openInput(cfg.Input)
	if err != nil {
		return err
	}
	defer input.Close()

	var frames ilda.FrameReader = ilda.NewReader(input)
	if cfg.Repeat {
		log.Printf("Repeating animation; every frame is kept in memory")
		frames = ilda.NewRepeater(frames)
	}

	sink, server, closeOutput, err := openSink(cfg)
	if err != nil {
		return err
	}

	var tui *ui.TUI
	tuiDone := make(chan struct{})
	if cfg.TUI {
		tui = ui.New("ilda2wav")
		go func() {
			defer close(tuiDone)
			if err := tui.Start(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go func() {
			select {
			case <-tui.QuitChan():
				log.Printf("Received quit signal from TUI")
				stop()
			case <-ctx.Done():
			}
		}()
		tui.Update(ui.StatusMsg{
			Input:   config.Name(cfg.Input),
			Output:  outputName(cfg),
			Format:  cfg.Format().String(),
			Mapping: mapping.String(),
		})
	}

	if server != nil {
		// unblock a Write waiting for the first client
		go func() {
			<-ctx.Done()
			server.Stop()
		}()
	}

	enc, err := codec.NewEncoder(codec.EncoderConfig{
		Mapping:     mapping,
		FPS:         cfg.FPS,
		PPS:         cfg.PPS,
		SampleRate:  cfg.SampleRate,
		Correctness: cfg.Correctness,
		Debug:       *debug,
		OnFrame: func(stats codec.Stats) {
			if tui == nil {
				return
			}
			status := ui.StatusMsg{Stats: &stats}
			if server != nil {
				status.Clients = server.Clients()
			}
			tui.Update(status)
		},
	})
	if err != nil {
		_ = sink.Finish()
		_ = closeOutput()
		return err
	}

	err = codec.Encode(ctx, enc, frames, sink)
	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, stream.ErrStopped)) {
		log.Printf("Interrupted after %s", enc.Stats())
		err = nil
	}

	if tui != nil {
		stats := enc.Stats()
		tui.Update(ui.StatusMsg{Stats: &stats, Done: err == nil, Err: err})
		if ctx.Err() == nil {
			// keep the summary on screen until the user quits
			<-ctx.Done()
		}
		tui.Stop()
		<-tuiDone
	}

	return err
}

// setupLogging sends logs to the log file and, if console is set, to stderr.
// Stdout is left to the payload.
func setupLogging(path string, console bool) (func(), error) {
	var writers []io.Writer
	closeFn := func() {}

	if path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
		closeFn = func() { _ = f.Close() }
	}
	if console {
		writers = append(writers, os.Stderr)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return closeFn, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

func outputName(cfg config.Encode) string {
	switch {
	case cfg.Play:
		return "sound card"
	case cfg.Serve != "":
		return "stream " + cfg.Serve
	}
	return config.Name(cfg.Output)
}

// openSink builds the output for cfg. The returned close function releases
// the underlying file after the sink has been finished.
func openSink(cfg config.Encode) (codec.Sink, *stream.Server, func() error, error) {
	format := cfg.Format()
	noop := func() error { return nil }

	switch {
	case cfg.Play:
		sink, err := output.NewOto(format)
		if err != nil {
			return nil, nil, nil, err
		}
		return sink, nil, noop, nil

	case cfg.Serve != "":
		server, err := stream.NewServer(stream.ServerConfig{
			Addr:          cfg.Serve,
			Name:          streamName(),
			Format:        format,
			Mapping:       cfg.Mapping,
			Realtime:      true,
			WaitForClient: true,
			EnableMDNS:    !*noMDNS,
			Debug:         *debug,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := server.Start(); err != nil {
			return nil, nil, nil, err
		}
		log.Printf("Waiting for the first client")
		return server, server, noop, nil
	}

	if cfg.Output == "" {
		if cfg.Raw {
			sink, err := output.NewRaw(os.Stdout, format)
			return sink, nil, noop, err
		}
		log.Printf("Buffering WAV output in memory until the end")
		sink, err := output.NewWAV(output.NewBufferedWriteSeeker(os.Stdout), format)
		return sink, nil, noop, err
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create output: %w", err)
	}

	var sink codec.Sink
	if cfg.Raw {
		sink, err = output.NewRaw(f, format)
	} else {
		sink, err = output.NewWAV(f, format)
	}
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	return sink, nil, f.Close, nil
}

func streamName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s", hostname, version.Product)
}
