package hardware

import (
	"context"
	"fmt"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/solenoid"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

const (
	// Encoder counts per 100ms at full output.
	dummyPanelFreeSpeed   = 2048
	dummyShooterFreeSpeed = 20480

	// The sim wheel moves on one colour segment every this many counts.
	dummyTicksPerSegment = 1024
)

// wheelOrder is the order the colours pass under the sensor.
var wheelOrder = []colormatch.Color{
	colormatch.BlueTarget,
	colormatch.GreenTarget,
	colormatch.RedTarget,
	colormatch.YellowTarget,
}

// Dummy simulates the robot so that the modes can be run on a laptop.
type Dummy struct {
	cfg *config.Config

	panelMotor *motorctl.Sim
	sensor     *simWheelSensor
	solenoid   solenoid.Interface
	shooter    ShooterMotors
	shooterOK  bool
}

var _ Interface = (*Dummy)(nil)

func NewDummy(cfg *config.Config) *Dummy {
	d := &Dummy{
		cfg:        cfg,
		panelMotor: motorctl.NewSim("panel", dummyPanelFreeSpeed),
		solenoid:   solenoid.Dummy(),
	}
	d.sensor = &simWheelSensor{motor: d.panelMotor, ticksPerSegment: dummyTicksPerSegment}
	if cfg.Shooter.Enabled {
		d.shooter = ShooterMotors{
			Leader:   motorctl.NewSim("shooter-leader", dummyShooterFreeSpeed),
			Follower: motorctl.NewSim("shooter-follower", dummyShooterFreeSpeed),
			Feeder:   motorctl.NewSim("feeder", dummyPanelFreeSpeed),
		}
		d.shooterOK = true
	}
	return d
}

func (d *Dummy) Start(ctx context.Context) {
	fmt.Println("DHW: Start")
	screen.SetNotice("SIMULATED", screen.LevelInfo)
}

func (d *Dummy) PanelMotor() motorctl.Interface {
	return d.panelMotor
}

func (d *Dummy) ColorSensor() colorsensor.Interface {
	return d.sensor
}

func (d *Dummy) Solenoid() solenoid.Interface {
	return d.solenoid
}

func (d *Dummy) ShooterMotors() (ShooterMotors, bool) {
	return d.shooter, d.shooterOK
}

func (d *Dummy) PlaySound(e sound.Event) {
	fmt.Printf("DHW: PlaySound %v\n", e)
}

func (d *Dummy) StopMotors() {
	d.panelMotor.SetPercent(0)
	if d.shooterOK {
		for _, m := range d.shooter.all() {
			m.SetPercent(0)
		}
	}
}

func (d *Dummy) Shutdown() {
	fmt.Println("DHW: Shutdown")
	d.StopMotors()
}

// simWheelSensor reports the colour of the segment that the simulated motor has turned to.
type simWheelSensor struct {
	motor           motorctl.Interface
	ticksPerSegment float64
}

func (s *simWheelSensor) Color() colormatch.Color {
	segment := int64(float64(s.motor.Position()) / s.ticksPerSegment)
	n := int64(len(wheelOrder))
	return wheelOrder[((segment%n)+n)%n]
}
