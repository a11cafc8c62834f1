// ABOUTME: Entry point for ildawav2ilda
// ABOUTME: Rebuilds ILDA animations from recorded or streamed laser control signals
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lasertools/ildawav/internal/config"
	"github.com/lasertools/ildawav/internal/discovery"
	"github.com/lasertools/ildawav/internal/ui"
	"github.com/lasertools/ildawav/internal/version"
	"github.com/lasertools/ildawav/pkg/audio/input"
	"github.com/lasertools/ildawav/pkg/channel"
	"github.com/lasertools/ildawav/pkg/codec"
	"github.com/lasertools/ildawav/pkg/ilda"
	"github.com/lasertools/ildawav/pkg/stream"
)

var defaults = config.LoadDecode()

var (
	raw         = flag.Bool("raw", false, "Input is raw PCM without a container header")
	fps         = flag.Float64("fps", defaults.FPS, "Frames per second; sets how many samples go into one frame")
	sampleRate  = flag.Int("sample-rate", defaults.SampleRate, "Sample rate of raw PCM input (checked against containers when set)")
	bps         = flag.Int("bps", defaults.BitDepth, "Bits per sample of raw PCM input (checked against containers when set)")
	connect     = flag.String("connect", "", "Read from a stream server (ws://host:port/ildawav)")
	discover    = flag.Bool("discover", false, "Find a stream server with mDNS")
	timeout     = flag.Duration("discover-timeout", 10*time.Second, "How long to look for a stream server")
	name        = flag.String("name", "", "Client name sent to the stream server (default: hostname-ildawav2ilda)")
	useTUI      = flag.Bool("tui", false, "Show a progress TUI")
	logFile     = flag.String("log-file", "", "Log file path")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: ildawav2ilda [flags] CHANNELS [INPUT] [OUTPUT.ild]

CHANNELS describes one input channel per character and must match the
channel count of the input:
%s
Files:
  none                         read stdin, write stdout
  one .wav/.flac/.mp3/.pcm     read the file, write stdout
  one .ild file                read stdin, write the file
  two files                    read the first, write the second

Stdin and .pcm or .raw files are read as WAV unless -raw is given.

Flags:
`, channel.Help())
	flag.PrintDefaults()
}

var inputExts = []string{".wav", ".wave", ".flac", ".mp3", ".pcm", ".raw"}

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

	in, out, err := config.ResolveFiles(args[1:], inputExts, []string{".ild"})
	if err != nil {
		return err
	}

	cfg := config.Decode{
		Mapping:    args[0],
		FPS:        *fps,
		SampleRate: *sampleRate,
		BitDepth:   *bps,
		Raw:        *raw,
		Input:      in,
		Output:     out,
		Connect:    *connect,
		Discover:   *discover,
		TUI:        *useTUI,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	mapping := channel.MustParse(cfg.Mapping)

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	closeLog, err := setupLogging(*logFile, !cfg.TUI)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Printf("Starting %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, inputName, err := openSource(ctx, cfg, explicit)
	if err != nil {
		return err
	}
	defer src.Close()

	format := src.Format()
	log.Printf("Input: %s (%s), output: %s, channels: %s", inputName, format, config.Name(cfg.Output), mapping)

	output, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	defer output.Close()
	writer := ilda.NewWriter(output)

	var tui *ui.TUI
	tuiDone := make(chan struct{})
	if cfg.TUI {
		tui = ui.New("ildawav2ilda")
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
			Input:   inputName,
			Output:  config.Name(cfg.Output),
			Format:  format.String(),
			Mapping: mapping.String(),
		})
	}

	if client, ok := src.(*stream.Client); ok {
		// unblock a Read waiting for the next chunk
		go func() {
			<-ctx.Done()
			client.Close()
		}()
	}

	dec, err := codec.NewDecoder(codec.DecoderConfig{
		Mapping:    mapping,
		FPS:        cfg.FPS,
		SampleRate: format.SampleRate,
		OnFrame: func(stats codec.Stats) {
			if tui != nil {
				tui.Update(ui.StatusMsg{Stats: &stats})
			}
		},
	})
	if err != nil {
		return err
	}

	err = codec.Decode(ctx, dec, src, writer)
	if ctx.Err() != nil && err != nil {
		// a closed stream connection surfaces as a read error
		log.Printf("Interrupted after %s", dec.Stats())
		err = nil
	}
	if cerr := writer.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish ILDA output: %w", cerr)
	}
	if err == nil {
		log.Printf("Wrote %d frames", writer.Frames())
	}

	if tui != nil {
		stats := dec.Stats()
		tui.Update(ui.StatusMsg{Stats: &stats, Done: err == nil, Err: err})
		if ctx.Err() == nil {
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

// openSource opens the sample source for cfg and checks its format
func openSource(ctx context.Context, cfg config.Decode, explicit map[string]bool) (input.Source, string, error) {
	if cfg.Network() {
		url := cfg.Connect
		if cfg.Discover {
			findCtx, cancel := context.WithTimeout(ctx, *timeout)
			server, err := discovery.Find(findCtx)
			cancel()
			if err != nil {
				return nil, "", err
			}
			log.Printf("Discovered %s at %s:%d", server.Name, server.Host, server.Port)
			url = server.URL()
		}

		client, err := stream.Dial(ctx, url, clientName())
		if err != nil {
			return nil, "", err
		}
		if m := client.Mapping(); m != "" && m != cfg.Mapping {
			log.Printf("Warning: stream announces channels %q, decoding as %q", m, cfg.Mapping)
		}
		if err := cfg.CheckSource(client.Format(), explicit); err != nil {
			client.Close()
			return nil, "", err
		}
		return client, url, nil
	}

	container := input.ContainerRaw
	if !cfg.Raw {
		container = input.ContainerFor(cfg.Input)
		if container == input.ContainerRaw {
			container = input.ContainerWAV
		}
	}

	var r io.Reader = os.Stdin
	if cfg.Input != "" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open input: %w", err)
		}
		r = f
	}

	src, err := input.New(container, r, cfg.RawFormat())
	if err != nil {
		if c, ok := r.(io.Closer); ok && r != os.Stdin {
			c.Close()
		}
		return nil, "", fmt.Errorf("failed to open %s input: %w", container, err)
	}
	if container != input.ContainerRaw {
		if err := cfg.CheckSource(src.Format(), explicit); err != nil {
			src.Close()
			return nil, "", err
		}
	}
	if container == input.ContainerMP3 {
		log.Printf("Warning: MP3 is lossy; blanking and color levels may be distorted")
	}
	return src, config.Name(cfg.Input), nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func clientName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-ildawav2ilda", hostname)
}
