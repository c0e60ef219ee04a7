package panelmode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/controlpanel"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/gamedata"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/solenoid"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

type fakeMotor struct {
	position int64
	percent  float64
	writes   []float64
}

func (f *fakeMotor) SetPercent(p float64) {
	f.percent = p
	f.writes = append(f.writes, p)
}

func (f *fakeMotor) Position() int64   { return f.position }
func (f *fakeMotor) Velocity() float64 { return 0 }
func (f *fakeMotor) ResetPosition()    { f.position = 0 }

type fakeHW struct {
	motor    *fakeMotor
	sensor   *colorsensor.Fixed
	solenoid solenoid.Interface
	sounds   []sound.Event
}

func newFakeHW() *fakeHW {
	return &fakeHW{
		motor:    &fakeMotor{},
		sensor:   &colorsensor.Fixed{Current: colormatch.BlueTarget},
		solenoid: solenoid.Dummy(),
	}
}

func (h *fakeHW) Start(ctx context.Context)          {}
func (h *fakeHW) PanelMotor() motorctl.Interface     { return h.motor }
func (h *fakeHW) ColorSensor() colorsensor.Interface { return h.sensor }
func (h *fakeHW) Solenoid() solenoid.Interface       { return h.solenoid }
func (h *fakeHW) ShooterMotors() (hardware.ShooterMotors, bool) {
	return hardware.ShooterMotors{}, false
}
func (h *fakeHW) PlaySound(e sound.Event) { h.sounds = append(h.sounds, e) }
func (h *fakeHW) StopMotors()             { h.motor.percent = 0 }
func (h *fakeHW) Shutdown()               {}

var _ hardware.Interface = (*fakeHW)(nil)

func press(button uint8) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeButton, Number: button, Value: 1}
}

func axis(a uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeAxis, Number: a, Value: v}
}

func newTestMode(gameData string) (*PanelMode, *fakeHW) {
	hw := newFakeHW()
	cfg := config.Default()
	cfg.ControlPanel.FastRotationTicks = 1000
	cfg.ControlPanel.OvershootTicks = 50
	return New(hw, cfg, gamedata.Static(gameData)), hw
}

func TestEncoderRotation(t *testing.T) {
	m, hw := newTestMode("")
	hw.motor.position = 4000

	m.onJoystickEvent(press(joystick.ButtonTriangle))
	assert.Equal(t, int64(0), hw.motor.position)
	m.onTick()
	assert.Equal(t, controlpanel.EncoderRotate, m.Controller().State())
	assert.Equal(t, 0.5, hw.motor.percent)

	hw.motor.position = 1000
	m.onTick()
	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
	assert.Equal(t, 0.0, hw.motor.percent)
	assert.Equal(t, []sound.Event{sound.RotationDone}, hw.sounds)
}

func TestColorRotation(t *testing.T) {
	m, hw := newTestMode("")
	m.onJoystickEvent(press(joystick.ButtonCircle))
	m.onTick()
	assert.Equal(t, 0.2, hw.motor.percent)

	hw.motor.position = 300
	hw.sensor.Current = colormatch.RedTarget
	m.onTick()
	assert.Equal(t, controlpanel.ColorRotateFinal, m.Controller().State())
	assert.Equal(t, int64(350), m.Controller().TargetRotation())

	hw.motor.position = 350
	m.onTick()
	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
	assert.Equal(t, []sound.Event{sound.ColorFound, sound.RotationDone}, hw.sounds)
}

func TestBusyAndStop(t *testing.T) {
	m, hw := newTestMode("")
	m.onJoystickEvent(press(joystick.ButtonCircle))
	m.onJoystickEvent(press(joystick.ButtonTriangle))
	assert.Equal(t, []sound.Event{sound.Busy}, hw.sounds)
	assert.Equal(t, controlpanel.ColorRotate, m.Controller().State())

	m.onJoystickEvent(press(joystick.ButtonCross))
	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
	assert.Equal(t, 0.0, hw.motor.percent)
}

func TestButtonReleaseIgnored(t *testing.T) {
	m, _ := newTestMode("")
	e := press(joystick.ButtonTriangle)
	e.Value = 0
	m.onJoystickEvent(e)
	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
}

func TestColorFindDoesNotMove(t *testing.T) {
	m, hw := newTestMode("Y")
	m.onJoystickEvent(press(joystick.ButtonSquare))
	m.onTick()
	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
	assert.Equal(t, 0.0, hw.motor.percent)
	assert.Equal(t, "Y", m.lastGameData)
}

func TestSolenoidButtons(t *testing.T) {
	m, hw := newTestMode("")
	m.onJoystickEvent(press(joystick.ButtonR1))
	assert.True(t, hw.solenoid.Get())
	m.onJoystickEvent(press(joystick.ButtonL1))
	assert.False(t, hw.solenoid.Get())
}

func TestJogOnlyWhileStopped(t *testing.T) {
	m, hw := newTestMode("")
	m.onJoystickEvent(axis(joystick.AxisLStickY, -32767))
	m.onTick()
	assert.Equal(t, 0.5, hw.motor.percent)

	m.onJoystickEvent(press(joystick.ButtonCircle))
	m.onTick()
	assert.Equal(t, 0.2, hw.motor.percent)

	m.onJoystickEvent(press(joystick.ButtonCross))
	m.onJoystickEvent(axis(joystick.AxisLStickY, 0))
	assert.Equal(t, 0.0, hw.motor.percent)
	m.onTick()
	assert.Equal(t, 0.0, hw.motor.percent)
}

func TestJogWritesMotorOncePerTick(t *testing.T) {
	m, hw := newTestMode("")
	m.onJoystickEvent(axis(joystick.AxisLStickY, -32767))
	hw.motor.writes = nil
	for i := 0; i < 5; i++ {
		m.onTick()
	}
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5, 0.5}, hw.motor.writes)
}

func TestTunablesChangeSpeeds(t *testing.T) {
	m, hw := newTestMode("")
	// fast-speed is selected first; one step up.
	m.onJoystickEvent(axis(joystick.AxisDPadY, -32767))
	m.onJoystickEvent(axis(joystick.AxisDPadY, 0))
	m.onJoystickEvent(press(joystick.ButtonTriangle))
	m.onTick()
	assert.InDelta(t, 0.55, hw.motor.percent, 1e-9)

	// Then slow-speed, one step down.
	m.onJoystickEvent(axis(joystick.AxisDPadX, 32767))
	m.onJoystickEvent(axis(joystick.AxisDPadY, 32767))
	assert.InDelta(t, 0.18, m.slowSpeed.Get(), 1e-9)
}

func TestStopDisablesController(t *testing.T) {
	m, hw := newTestMode("")
	m.loopPeriod = time.Millisecond
	m.Start(context.Background())
	m.OnJoystickEvent(press(joystick.ButtonTriangle))
	time.Sleep(10 * time.Millisecond)
	m.Stop()

	assert.Equal(t, controlpanel.Disabled, m.Controller().State())
	assert.Equal(t, 0.0, hw.motor.percent)
}
