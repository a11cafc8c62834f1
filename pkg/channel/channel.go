// ABOUTME: Channel specs and mapping parser
// ABOUTME: Encodes points to normalized channel vectors and decodes them back
package channel

import (
	"fmt"
	"math"
	"strings"

	"github.com/lasertools/ildawav/pkg/ilda"
)

// Spec is the meaning of one PCM channel
type Spec int

const (
	AxisX Spec = iota
	AxisXInverted
	AxisY
	AxisYInverted
	Red
	Green
	Blue
	Blank
	ConstantHigh
	ConstantLow
	Silence

	// Ignore is how a Silence channel behaves when decoding
	Ignore = Silence
)

var specChars = map[rune]Spec{
	'x': AxisX,
	'X': AxisXInverted,
	'y': AxisY,
	'Y': AxisYInverted,
	'r': Red,
	'g': Green,
	'b': Blue,
	'l': Blank,
	'1': ConstantHigh,
	'0': ConstantLow,
	'_': Silence,
}

var specNames = [...]string{
	AxisX:         "X-axis",
	AxisXInverted: "X-axis mirrored",
	AxisY:         "Y-axis",
	AxisYInverted: "Y-axis mirrored",
	Red:           "red intensity",
	Green:         "green intensity",
	Blue:          "blue intensity",
	Blank:         "blanking signal",
	ConstantHigh:  "always high",
	ConstantLow:   "always low",
	Silence:       "silence (ignored when decoding)",
}

// ConfigError reports an invalid mapping character
type ConfigError struct {
	Char     rune
	Position int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid channel %q at position %d (valid: xXyYrgbl10_)", e.Char, e.Position)
}

// IsAxis reports whether the channel takes part in travel distance computation
func (s Spec) IsAxis() bool {
	switch s {
	case AxisX, AxisXInverted, AxisY, AxisYInverted:
		return true
	}
	return false
}

// IsColor reports whether the channel carries a color component
func (s Spec) IsColor() bool {
	return s == Red || s == Green || s == Blue
}

// Char returns the mapping character of the spec
func (s Spec) Char() rune {
	for c, spec := range specChars {
		if spec == s {
			return c
		}
	}
	return '?'
}

func (s Spec) String() string {
	return string(s.Char())
}

// Description is a human readable name of the spec
func (s Spec) Description() string {
	if s < 0 || int(s) >= len(specNames) {
		return "unknown"
	}
	return specNames[s]
}

// Help lists every mapping character with its meaning, one per line
func Help() string {
	var b strings.Builder
	for s := AxisX; s <= Silence; s++ {
		fmt.Fprintf(&b, "  %c  %s\n", s.Char(), s.Description())
	}
	return b.String()
}

// Encode maps a point to the normalized [-1, 1] value of this channel
func (s Spec) Encode(p ilda.Point) float64 {
	switch s {
	case AxisX:
		return axis(p.X)
	case AxisXInverted:
		return -axis(p.X)
	case AxisY:
		return axis(p.Y)
	case AxisYInverted:
		return -axis(p.Y)
	case Red:
		return intensity(p.R)
	case Green:
		return intensity(p.G)
	case Blue:
		return intensity(p.B)
	case Blank:
		if p.Blank {
			return -1.0
		}
		return 1.0
	case ConstantHigh:
		return 1.0
	case ConstantLow:
		return -1.0
	}
	return 0.0
}

// Apply stores the decoded value of this channel into p
func (s Spec) Apply(v float64, p *ilda.Point) {
	switch s {
	case AxisX:
		p.X = position(v)
	case AxisXInverted:
		p.X = position(-v)
	case AxisY:
		p.Y = position(v)
	case AxisYInverted:
		p.Y = position(-v)
	case Red:
		p.R = level(v)
	case Green:
		p.G = level(v)
	case Blue:
		p.B = level(v)
	case Blank:
		p.Blank = v < 0
	}
	// Constant and silent channels carry nothing to recover
}

// Mapping is the ordered channel layout of a stream
type Mapping struct {
	specs    []Spec
	hasColor bool
}

// Parse parses a mapping string, one character per channel
func Parse(s string) (Mapping, error) {
	if s == "" {
		return Mapping{}, fmt.Errorf("channel mapping is empty")
	}

	m := Mapping{specs: make([]Spec, 0, len(s))}
	for i, c := range []rune(s) {
		spec, ok := specChars[c]
		if !ok {
			return Mapping{}, &ConfigError{Char: c, Position: i}
		}
		if spec.IsColor() {
			m.hasColor = true
		}
		m.specs = append(m.specs, spec)
	}

	return m, nil
}

// MustParse is like Parse but panics on error
func MustParse(s string) Mapping {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the channel count
func (m Mapping) Len() int {
	return len(m.specs)
}

// Specs returns a copy of the channel specs
func (m Mapping) Specs() []Spec {
	return append([]Spec(nil), m.specs...)
}

// HasColor reports whether any channel carries a color component
func (m Mapping) HasColor() bool {
	return m.hasColor
}

func (m Mapping) String() string {
	var b strings.Builder
	for _, s := range m.specs {
		b.WriteRune(s.Char())
	}
	return b.String()
}

// Encode writes the normalized channel vector of p into dst, growing it if needed
func (m Mapping) Encode(p ilda.Point, dst []float64) []float64 {
	if cap(dst) < len(m.specs) {
		dst = make([]float64, len(m.specs))
	}
	dst = dst[:len(m.specs)]
	for i, s := range m.specs {
		dst[i] = s.Encode(p)
	}
	return dst
}

// Distance is the Euclidean distance between two channel vectors over the axis channels only
func (m Mapping) Distance(from, to []float64) float64 {
	var sum float64
	for i, s := range m.specs {
		if !s.IsAxis() {
			continue
		}
		d := to[i] - from[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Decode reconstructs a point from one normalized value per channel.
//
// Unmapped axes are 0. Unmapped colors are full white unless any color
// channel is mapped, in which case they are 0.
func (m Mapping) Decode(values []float64) ilda.Point {
	var p ilda.Point
	if !m.hasColor {
		p.R, p.G, p.B = math.MaxUint8, math.MaxUint8, math.MaxUint8
	}

	for i, s := range m.specs {
		if i >= len(values) {
			break
		}
		s.Apply(values[i], &p)
	}

	return p
}

func axis(v int16) float64 {
	return float64(v) / math.MaxInt16
}

func intensity(v uint8) float64 {
	return float64(v)*2.0/math.MaxUint8 - 1.0
}

func position(v float64) int16 {
	x := math.Round(v * math.MaxInt16)
	if x > math.MaxInt16 {
		return math.MaxInt16
	}
	if x < math.MinInt16 {
		return math.MinInt16
	}
	return int16(x)
}

func level(v float64) uint8 {
	c := math.Round((v + 1.0) / 2.0 * math.MaxUint8)
	if c > math.MaxUint8 {
		return math.MaxUint8
	}
	if c < 0 {
		return 0
	}
	return uint8(c)
}
