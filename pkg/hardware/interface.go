package hardware

import (
	"context"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/solenoid"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

// Interface owns the robot's devices for the lifetime of the process.  The modes borrow them.
type Interface interface {
	Start(ctx context.Context)

	PanelMotor() motorctl.Interface
	ColorSensor() colorsensor.Interface
	Solenoid() solenoid.Interface
	// ShooterMotors returns false if the shooter isn't enabled.
	ShooterMotors() (ShooterMotors, bool)

	PlaySound(e sound.Event)

	// StopMotors zeroes every motor, for mode switches.
	StopMotors()
	Shutdown()
}

type ShooterMotors struct {
	Leader, Follower, Feeder motorctl.Interface
}

func (s ShooterMotors) all() []motorctl.Interface {
	return []motorctl.Interface{s.Leader, s.Follower, s.Feeder}
}
