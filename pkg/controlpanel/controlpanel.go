package controlpanel

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/loglimiter"
)

type Motor interface {
	SetPercent(percent float64)
	Position() int64
}

// PositionResetter is implemented by motors whose encoder count can be zeroed.
type PositionResetter interface {
	ResetPosition()
}

type ColorSensor interface {
	Color() colormatch.Color
}

type Solenoid interface {
	Set(on bool)
}

var ErrBusy = errors.New("control panel is already rotating")

// Controller spins the control panel.  It is not safe for concurrent use: Update and the commands
// must all be called from the same goroutine.
type Controller struct {
	motor    Motor
	sensor   ColorSensor
	solenoid Solenoid
	matcher  *colormatch.Matcher
	params   Params

	state          WheelState
	targetRotation int64
	lastMatch      colormatch.Result
	lastPosition   int64
	lastOutput     float64
	jog            float64

	log *loglimiter.LogLimiter
}

func New(motor Motor, sensor ColorSensor, solenoid Solenoid, matcher *colormatch.Matcher, params Params) *Controller {
	return &Controller{
		motor:    motor,
		sensor:   sensor,
		solenoid: solenoid,
		matcher:  matcher,
		params:   params,
		log:      loglimiter.New(2 * time.Second),
	}
}

// Update runs one control cycle.
func (c *Controller) Update() {
	in := Inputs{
		Position: c.motor.Position(),
		Color:    c.ClassifyColor(),
		Jog:      c.jog,
	}
	c.lastPosition = in.Position

	next, out := Step(c.state, c.targetRotation, in, c.params)
	if next != c.state {
		fmt.Printf("PANEL: %v -> %v at position %d (colour %v)\n", c.state, next, in.Position, c.lastMatch)
		if next == ColorRotateFinal {
			fmt.Printf("PANEL: target rotation %d\n", out.TargetRotation)
		}
	} else if c.state == ColorRotate {
		c.log.Printf("PANEL: looking for %v, seeing %v", c.params.StopColor, in.Color)
	}
	c.state = next
	c.targetRotation = out.TargetRotation
	c.setMotor(out.Percent)
}

// ClassifyColor reads the sensor and returns the matching panel colour, or Unknown.
func (c *Controller) ClassifyColor() colormatch.Label {
	c.lastMatch = c.matcher.Match(c.sensor.Color())
	return c.lastMatch.Label
}

func (c *Controller) StartEncoderRotate() error {
	if c.state != Disabled {
		return errors.Wrapf(ErrBusy, "in state %v", c.state)
	}
	if r, ok := c.motor.(PositionResetter); ok {
		r.ResetPosition()
	}
	fmt.Println("PANEL: starting encoder rotation")
	c.state = EncoderRotate
	return nil
}

func (c *Controller) StartColorRotate() error {
	if c.state != Disabled {
		return errors.Wrapf(ErrBusy, "in state %v", c.state)
	}
	fmt.Println("PANEL: starting colour rotation")
	c.state = ColorRotate
	return nil
}

// StartColorFind works out which wheel slot needs to end up under the sensor for the colour the
// field is asking for.  The field's sensor is a quarter turn away from ours, so that's one slot on
// from the requested colour.  Nothing moves yet.
func (c *Controller) StartColorFind(gameData string) (int, bool) {
	var index int
	if len(gameData) == 0 {
		fmt.Println("PANEL: No color was provided to spin to.")
		return 0, false
	}
	switch gameData[0] {
	case 'G':
		index = 0
	case 'R':
		index = 1
	case 'Y':
		index = 2
	case 'B':
		index = 3
	default:
		fmt.Printf("PANEL: No color was provided to spin to (got %q).\n", gameData)
		return 0, false
	}

	index = (index + 1) % 4
	fmt.Printf("PANEL: colour find for %q: wheel slot %d\n", gameData, index)
	return index, true
}

func (c *Controller) Disable() {
	if c.state != Disabled {
		fmt.Printf("PANEL: %v -> %v (disabled)\n", c.state, Disabled)
	}
	c.state = Disabled
	c.targetRotation = 0
	c.jog = 0
	c.setMotor(0)
}

func (c *Controller) Deploy() {
	fmt.Println("PANEL: deploying spinner")
	c.solenoid.Set(true)
}

func (c *Controller) Retract() {
	fmt.Println("PANEL: retracting spinner")
	c.solenoid.Set(false)
}

// SetJog sets the output that Update applies while Disabled.  Disable clears it.
func (c *Controller) SetJog(percent float64) {
	c.jog = clampOutput(percent)
}

// SetOutput drives the wheel directly.  It doesn't change state so the next Update overrides it
// unless the controller is idle and the caller repeats it.
func (c *Controller) SetOutput(percent float64) {
	c.setMotor(clampOutput(percent))
}

func clampOutput(percent float64) float64 {
	if percent > 1 {
		return 1
	} else if percent < -1 {
		return -1
	}
	return percent
}

func (c *Controller) setMotor(percent float64) {
	c.lastOutput = percent
	c.motor.SetPercent(percent)
}

func (c *Controller) Params() Params {
	return c.params
}

// SetParams takes effect from the next Update.
func (c *Controller) SetParams(p Params) {
	c.params = p
}

func (c *Controller) State() WheelState {
	return c.state
}

// TargetRotation is only meaningful in ColorRotateFinal.
func (c *Controller) TargetRotation() int64 {
	return c.targetRotation
}

func (c *Controller) LastMatch() colormatch.Result {
	return c.lastMatch
}

func (c *Controller) LastPosition() int64 {
	return c.lastPosition
}

func (c *Controller) Output() float64 {
	return c.lastOutput
}
