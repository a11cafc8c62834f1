// ABOUTME: Tests for channel mapping
// ABOUTME: Tests parsing, per-channel transforms and decode defaults
package channel

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lasertools/ildawav/pkg/ilda"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		specs   []Spec
		wantErr bool
		char    rune
		pos     int
	}{
		{"stereo axes", "xy", []Spec{AxisX, AxisY}, false, 0, 0},
		{"all channels", "xXyYrgbl10_", []Spec{
			AxisX, AxisXInverted, AxisY, AxisYInverted,
			Red, Green, Blue, Blank, ConstantHigh, ConstantLow, Silence,
		}, false, 0, 0},
		{"surround layout", "__l_xy", []Spec{Silence, Silence, Blank, Silence, AxisX, AxisY}, false, 0, 0},
		{"invalid char", "xyq", nil, true, 'q', 2},
		{"invalid first", "Zy", nil, true, 'Z', 0},
		{"empty", "", nil, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var cfgErr *ConfigError
				if tt.char != 0 {
					if !errors.As(err, &cfgErr) {
						t.Fatalf("expected ConfigError, got %T", err)
					}
					if cfgErr.Char != tt.char || cfgErr.Position != tt.pos {
						t.Errorf("expected %q at %d, got %q at %d", tt.char, tt.pos, cfgErr.Char, cfgErr.Position)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Len() != len(tt.specs) {
				t.Fatalf("expected %d channels, got %d", len(tt.specs), m.Len())
			}
			for i, s := range m.Specs() {
				if s != tt.specs[i] {
					t.Errorf("channel %d: expected %v, got %v", i, tt.specs[i], s)
				}
			}
			if m.String() != tt.input {
				t.Errorf("expected String() %q, got %q", tt.input, m.String())
			}
		})
	}
}

func TestIsAxis(t *testing.T) {
	axes := map[Spec]bool{
		AxisX: true, AxisXInverted: true, AxisY: true, AxisYInverted: true,
		Red: false, Green: false, Blue: false, Blank: false,
		ConstantHigh: false, ConstantLow: false, Silence: false,
	}
	for s, want := range axes {
		if s.IsAxis() != want {
			t.Errorf("%v: expected IsAxis() %v", s, want)
		}
	}
}

func TestSpecEncode(t *testing.T) {
	p := ilda.Point{X: 16383, Y: -32767, R: 255, G: 0, B: 51, Blank: true}

	tests := []struct {
		spec     Spec
		expected float64
	}{
		{AxisX, 16383.0 / 32767.0},
		{AxisXInverted, -16383.0 / 32767.0},
		{AxisY, -1.0},
		{AxisYInverted, 1.0},
		{Red, 1.0},
		{Green, -1.0},
		{Blue, 51.0*2/255 - 1},
		{Blank, -1.0},
		{ConstantHigh, 1.0},
		{ConstantLow, -1.0},
		{Silence, 0.0},
	}

	for _, tt := range tests {
		got := tt.spec.Encode(p)
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("%v: expected %v, got %v", tt.spec, tt.expected, got)
		}
	}

	if Blank.Encode(ilda.Point{}) != 1.0 {
		t.Error("expected lit point to encode blank channel high")
	}
}

func TestDistanceUsesAxesOnly(t *testing.T) {
	m := MustParse("xyrl")
	from := []float64{0, 0, -1, 1}
	to := []float64{0.3, 0.4, 1, -1}

	if d := m.Distance(from, to); math.Abs(d-0.5) > 1e-12 {
		t.Errorf("expected distance 0.5, got %v", d)
	}
}

func TestDecodeDefaults(t *testing.T) {
	tests := []struct {
		name     string
		mapping  string
		values   []float64
		expected ilda.Point
	}{
		{
			name:     "axes only is white",
			mapping:  "xy",
			values:   []float64{0.5, -0.5},
			expected: ilda.Point{X: 16384, Y: -16384, R: 255, G: 255, B: 255},
		},
		{
			name:     "one color zeroes the rest",
			mapping:  "xyg",
			values:   []float64{0, 0, 1},
			expected: ilda.Point{G: 255},
		},
		{
			name:     "blank below zero",
			mapping:  "l_",
			values:   []float64{-0.01, 0.9},
			expected: ilda.Point{R: 255, G: 255, B: 255, Blank: true},
		},
		{
			name:     "blank at zero is lit",
			mapping:  "l",
			values:   []float64{0},
			expected: ilda.Point{R: 255, G: 255, B: 255},
		},
		{
			name:     "inverted axes and constants",
			mapping:  "XY10",
			values:   []float64{1, -1, 1, -1},
			expected: ilda.Point{X: -32767, Y: 32767, R: 255, G: 255, B: 255},
		},
		{
			name:     "out of range clamps",
			mapping:  "xr",
			values:   []float64{-1.5, 2},
			expected: ilda.Point{X: -32768, R: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.mapping).Decode(tt.values)
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestEncodeDecodeConsistency(t *testing.T) {
	m := MustParse("xyrgbl")
	points := []ilda.Point{
		{X: 0, Y: 0, R: 0, G: 0, B: 0},
		{X: 32767, Y: -32767, R: 255, G: 128, B: 1, Blank: true},
		{X: -1234, Y: 4321, R: 17, G: 200, B: 99},
	}

	for _, p := range points {
		got := m.Decode(m.Encode(p, nil))
		if got != p {
			t.Errorf("expected %+v, got %+v", p, got)
		}
	}
}

func TestEncodeReusesBuffer(t *testing.T) {
	m := MustParse("xy")
	buf := make([]float64, 0, 8)
	out := m.Encode(ilda.Point{X: 32767}, buf)
	if len(out) != 2 || &out[0] != &buf[:1][0] {
		t.Error("expected Encode to reuse the provided buffer")
	}
}

func TestHelpListsEveryChannel(t *testing.T) {
	help := Help()
	for _, c := range "xXyYrgbl10_" {
		spec := MustParse(string(c)).Specs()[0]
		line := string(c) + "  " + spec.Description()
		if !strings.Contains(help, line) {
			t.Errorf("expected help to contain %q", line)
		}
	}
}
