// ABOUTME: Startup configuration for the ilda2wav and ildawav2ilda CLIs
// ABOUTME: Environment defaults, file argument inference and one-time validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lasertools/ildawav/pkg/audio"
	"github.com/lasertools/ildawav/pkg/channel"
)

// ErrInvalid marks a configuration error reported before any processing
var ErrInvalid = errors.New("invalid configuration")

// Defaults used when neither a flag nor an environment variable is set
const (
	DefaultFPS         = 20.0
	DefaultPPS         = 10000.0
	DefaultSampleRate  = 44100
	DefaultBitDepth    = 16
	DefaultCorrectness = 1.0
)

// Stdio names stdin or stdout in logs
const Stdio = "-"

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Encode configures an ILDA to audio conversion
type Encode struct {
	Mapping     string
	FPS         float64
	PPS         float64
	SampleRate  int
	BitDepth    int
	Correctness float64
	Repeat      bool
	Raw         bool

	Input  string // empty reads stdin
	Output string // empty writes stdout

	Play  bool   // play on the sound card instead of writing
	Serve string // listen address for websocket streaming

	TUI bool
}

// LoadEncode returns encoder defaults, overridden from the environment.
func LoadEncode() Encode {
	return Encode{
		FPS:         envFloat("ILDAWAV_FPS", DefaultFPS),
		PPS:         envFloat("ILDAWAV_PPS", DefaultPPS),
		SampleRate:  envInt("ILDAWAV_SAMPLE_RATE", DefaultSampleRate),
		BitDepth:    envInt("ILDAWAV_BPS", DefaultBitDepth),
		Correctness: envFloat("ILDAWAV_CORRECTNESS", DefaultCorrectness),
	}
}

// Live reports whether samples go to a live sink rather than a byte stream
func (c Encode) Live() bool {
	return c.Play || c.Serve != ""
}

// Format is the PCM format of the produced signal
func (c Encode) Format() audio.Format {
	return audio.Format{
		SampleRate: c.SampleRate,
		Channels:   len(c.Mapping),
		BitDepth:   c.BitDepth,
	}
}

// Validate checks every setting once at startup
func (c Encode) Validate() error {
	if _, err := channel.Parse(c.Mapping); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := checkRates(c.FPS, c.SampleRate, c.BitDepth); err != nil {
		return err
	}
	if !(c.PPS > 0) {
		return fmt.Errorf("%w: pps must be > 0, got %v", ErrInvalid, c.PPS)
	}
	if !(c.Correctness >= 0) {
		return fmt.Errorf("%w: correctness must be >= 0, got %v", ErrInvalid, c.Correctness)
	}
	if c.Play && c.Serve != "" {
		return fmt.Errorf("%w: -play and -serve are exclusive", ErrInvalid)
	}
	if c.Live() && c.Output != "" {
		return fmt.Errorf("%w: output file %q given together with a live output", ErrInvalid, c.Output)
	}
	if c.Repeat && !c.Live() && !(c.Raw && c.Output == "") {
		return fmt.Errorf("%w: repeat requires raw PCM on stdout or a live output", ErrInvalid)
	}
	if c.TUI && !c.Live() && c.Output == "" {
		return fmt.Errorf("%w: the TUI cannot share stdout with the output", ErrInvalid)
	}
	return nil
}

// Decode configures an audio to ILDA conversion
type Decode struct {
	Mapping    string
	FPS        float64
	SampleRate int // raw PCM only
	BitDepth   int // raw PCM only
	Raw        bool

	Input  string // empty reads stdin
	Output string // empty writes stdout

	Connect  string // websocket URL of a stream server
	Discover bool   // find a stream server with mDNS

	TUI bool
}

// LoadDecode returns decoder defaults, overridden from the environment.
func LoadDecode() Decode {
	return Decode{
		FPS:        envFloat("ILDAWAV_FPS", DefaultFPS),
		SampleRate: envInt("ILDAWAV_SAMPLE_RATE", DefaultSampleRate),
		BitDepth:   envInt("ILDAWAV_BPS", DefaultBitDepth),
	}
}

// Network reports whether samples come from a stream server
func (c Decode) Network() bool {
	return c.Connect != "" || c.Discover
}

// RawFormat is the PCM format assumed for headerless input
func (c Decode) RawFormat() audio.Format {
	return audio.Format{
		SampleRate: c.SampleRate,
		Channels:   len(c.Mapping),
		BitDepth:   c.BitDepth,
	}
}

// Validate checks every setting once at startup
func (c Decode) Validate() error {
	if _, err := channel.Parse(c.Mapping); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := checkRates(c.FPS, c.SampleRate, c.BitDepth); err != nil {
		return err
	}
	if c.Connect != "" && c.Discover {
		return fmt.Errorf("%w: -connect and -discover are exclusive", ErrInvalid)
	}
	if c.Network() && (c.Input != "" || c.Raw) {
		return fmt.Errorf("%w: input file or -raw given together with a stream server", ErrInvalid)
	}
	if c.TUI && c.Output == "" {
		return fmt.Errorf("%w: the TUI cannot share stdout with the output", ErrInvalid)
	}
	return nil
}

// CheckSource validates the format announced by a self-describing input
// against the mapping and against the flags the user set explicitly.
func (c Decode) CheckSource(f audio.Format, explicit map[string]bool) error {
	if f.Channels != len(c.Mapping) {
		return fmt.Errorf("%w: input has %d channels, mapping %q has %d",
			ErrInvalid, f.Channels, c.Mapping, len(c.Mapping))
	}
	if explicit["sample-rate"] && f.SampleRate != c.SampleRate {
		return fmt.Errorf("%w: input sample rate is %d, -sample-rate says %d",
			ErrInvalid, f.SampleRate, c.SampleRate)
	}
	if explicit["bps"] && f.BitDepth != c.BitDepth {
		return fmt.Errorf("%w: input bit depth is %d, -bps says %d",
			ErrInvalid, f.BitDepth, c.BitDepth)
	}
	return nil
}

func checkRates(fps float64, sampleRate, bitDepth int) error {
	if !(fps > 0) {
		return fmt.Errorf("%w: fps must be > 0, got %v", ErrInvalid, fps)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0, got %d", ErrInvalid, sampleRate)
	}
	if err := audio.CheckBitDepth(bitDepth); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ResolveFiles assigns zero to two file arguments to input and output.
// A single file is taken as input when its extension is one of inputExts
// and as output when it is one of outputExts. Empty results mean stdio.
func ResolveFiles(args []string, inputExts, outputExts []string) (in, out string, err error) {
	switch len(args) {
	case 0:
		return "", "", nil
	case 1:
		ext := strings.ToLower(filepath.Ext(args[0]))
		if contains(inputExts, ext) {
			return args[0], "", nil
		}
		if contains(outputExts, ext) {
			return "", args[0], nil
		}
		return "", "", fmt.Errorf("%w: cannot tell whether %q is input or output", ErrInvalid, args[0])
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("%w: expected at most 2 files, got %d", ErrInvalid, len(args))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Name returns a log friendly name for a possibly empty path
func Name(path string) string {
	if path == "" {
		return Stdio
	}
	return path
}
