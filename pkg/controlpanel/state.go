package controlpanel

import (
	"fmt"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
)

type WheelState uint8

const (
	Disabled WheelState = iota
	EncoderRotate
	ColorRotate
	ColorRotateFinal
)

func (s WheelState) String() string {
	switch s {
	case Disabled:
		return "DISABLED"
	case EncoderRotate:
		return "ENC ROTATE"
	case ColorRotate:
		return "COLOR ROTATE"
	case ColorRotateFinal:
		return "COLOR FINAL"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Params are the fixed numbers that drive the state machine.
type Params struct {
	FastSpeed         float64
	SlowSpeed         float64
	FastRotationTicks int64
	OvershootTicks    int64
	// StopColor is the colour that ends ColorRotate.
	StopColor colormatch.Label
}

// Inputs is everything the state machine looks at in one cycle.
type Inputs struct {
	Position int64
	Color    colormatch.Label
	// Jog is the operator's manual output, only used while Disabled.
	Jog float64
}

type Output struct {
	Percent        float64
	TargetRotation int64
}

// Step is the transition function for one control cycle.  target is the current TargetRotation,
// only looked at in ColorRotateFinal.
func Step(state WheelState, target int64, in Inputs, p Params) (WheelState, Output) {
	switch state {
	case EncoderRotate:
		if in.Position < p.FastRotationTicks {
			return EncoderRotate, Output{Percent: p.FastSpeed}
		}
		return Disabled, Output{}
	case ColorRotate:
		if in.Color != p.StopColor {
			return ColorRotate, Output{Percent: p.SlowSpeed}
		}
		// Found it; keep going a little further so the colour ends up centred under the sensor.
		return ColorRotateFinal, Output{
			Percent:        p.SlowSpeed,
			TargetRotation: in.Position + p.OvershootTicks,
		}
	case ColorRotateFinal:
		if in.Position < target {
			return ColorRotateFinal, Output{Percent: p.SlowSpeed, TargetRotation: target}
		}
		return Disabled, Output{}
	case Disabled:
		return Disabled, Output{Percent: in.Jog}
	default:
		return Disabled, Output{}
	}
}

// ParamsFromConfig takes the state machine numbers from the config.  The panel always stops on
// red: the field's sensor is then looking at the colour it wants.
func ParamsFromConfig(pc config.PanelConfig) Params {
	return Params{
		FastSpeed:         pc.FastSpeed,
		SlowSpeed:         pc.SlowSpeed,
		FastRotationTicks: pc.FastRotationTicks,
		OvershootTicks:    pc.OvershootTicks,
		StopColor:         colormatch.Red,
	}
}
