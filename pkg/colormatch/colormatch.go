package colormatch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultConfidenceThreshold is the minimum confidence for a match to be reported as a colour
// rather than Unknown.
const DefaultConfidenceThreshold = 0.80

type Label uint8

const (
	Unknown Label = iota
	Blue
	Green
	Red
	Yellow
)

func (l Label) String() string {
	switch l {
	case Blue:
		return "Blue"
	case Green:
		return "Green"
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	default:
		return "Unknown"
	}
}

// Color is a normalised RGB reading; the components of a sensor reading sum to 1.
type Color struct {
	R, G, B float64
}

func (c Color) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.R, c.G, c.B)
}

func (c Color) vec() r3.Vec {
	return r3.Vec{X: c.R, Y: c.G, Z: c.B}
}

// Normalize scales the colour so that its components sum to 1.  Black stays black.
func (c Color) Normalize() Color {
	mag := c.R + c.G + c.B
	if mag <= 0 {
		return Color{}
	}
	return Color{R: c.R / mag, G: c.G / mag, B: c.B / mag}
}

// Default calibration of the control panel colours under the robot's sensor.
var (
	BlueTarget   = Color{0.136, 0.412, 0.450}
	GreenTarget  = Color{0.196, 0.557, 0.246}
	RedTarget    = Color{0.475, 0.371, 0.153}
	YellowTarget = Color{0.293, 0.561, 0.144}
)

type Target struct {
	Label Label
	Color Color
}

func DefaultTargets() []Target {
	return []Target{
		{Blue, BlueTarget},
		{Green, GreenTarget},
		{Red, RedTarget},
		{Yellow, YellowTarget},
	}
}

type Result struct {
	// Label is Unknown if the closest target was below the confidence threshold.
	Label      Label
	Closest    Target
	Confidence float64
}

func (r Result) String() string {
	return fmt.Sprintf("%v (closest %v, confidence %.3f)", r.Label, r.Closest.Label, r.Confidence)
}

type Matcher struct {
	targets   []Target
	threshold float64
}

func New(targets []Target, threshold float64) *Matcher {
	// Take a copy so that the caller can't change the targets underneath us.
	t := make([]Target, len(targets))
	copy(t, targets)
	return &Matcher{
		targets:   t,
		threshold: threshold,
	}
}

func NewDefault() *Matcher {
	return New(DefaultTargets(), DefaultConfidenceThreshold)
}

func (m *Matcher) Targets() []Target {
	t := make([]Target, len(m.targets))
	copy(t, m.targets)
	return t
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match finds the nearest target to the sample in RGB space.  Samples are expected to be normalised
// already (see Color.Normalize); a black sample never matches.
func (m *Matcher) Match(sample Color) Result {
	if sample == (Color{}) || len(m.targets) == 0 {
		return Result{}
	}

	best := 0
	minDistance := math.Inf(1)
	for i, t := range m.targets {
		d := Distance(t.Color, sample)
		if d < minDistance {
			minDistance = d
			best = i
		}
	}

	res := Result{
		Closest:    m.targets[best],
		Confidence: confidence(minDistance),
	}
	if res.Confidence >= m.threshold {
		res.Label = res.Closest.Label
	}
	return res
}

// Distance is the Euclidean distance between two colours, scaled so that the distance between two
// normalised colours lies in [0, 1].
func Distance(a, b Color) float64 {
	return r3.Norm(r3.Sub(a.vec(), b.vec())) / math.Sqrt2
}

func confidence(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		return 0
	}
	return c
}
