package shootermode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/shooter"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/tunable"
)

var ErrShooterDisabled = errors.New("shooter is not enabled in the config")

// ShooterMode runs last season's flywheel shooter.
//
//	Triangle   flywheel on/off
//	R2 (held)  feed balls, once the flywheel is up to speed
//	D-pad      left/right picks rpm or a gain, up/down changes it
type ShooterMode struct {
	hw      hardware.Interface
	shooter *shooter.Shooter

	tunables       tunable.Tunables
	rpm            *tunable.Tunable
	kP, kI, kD, kF *tunable.Tunable

	spinning   bool
	feedHeld   bool
	atSetpoint bool
	lastGains  [4]float64

	cancel         context.CancelFunc
	stopWG         sync.WaitGroup
	joystickEvents chan *joystick.Event
}

func New(hw hardware.Interface, cfg *config.Config) (*ShooterMode, error) {
	motors, ok := hw.ShooterMotors()
	if !ok {
		return nil, ErrShooterDisabled
	}
	sc := cfg.Shooter
	m := &ShooterMode{
		hw: hw,
		shooter: shooter.New(motors.Leader, motors.Follower, motors.Feeder, shooter.Params{
			EncoderCPR:     sc.EncoderCPR,
			ToleranceRPM:   sc.ToleranceRPM,
			FeederSpeed:    sc.FeederSpeed,
			FollowerInvert: sc.FollowerInvert,
			Period:         cfg.LoopPeriod(),
		}),
		joystickEvents: make(chan *joystick.Event),
	}
	m.rpm = m.tunables.Create("rpm", sc.DefaultRPM, 100, 0, 6000)
	m.kP = m.tunables.Create("kp", sc.PID.KP, 0.0001, 0, 1)
	m.kI = m.tunables.Create("ki", sc.PID.KI, 0.00001, 0, 1)
	m.kD = m.tunables.Create("kd", sc.PID.KD, 0.00001, 0, 1)
	m.kF = m.tunables.Create("kf", sc.PID.KF, 0.00001, 0, 1)
	m.applyGains()
	return m, nil
}

func (m *ShooterMode) Name() string {
	return "SHOOTER MODE"
}

func (m *ShooterMode) StartupSound() sound.Event {
	return sound.ShooterMode
}

func (m *ShooterMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *ShooterMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

func (m *ShooterMode) OnJoystickEvent(event *joystick.Event) {
	m.joystickEvents <- event
}

func (m *ShooterMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer func() {
		m.spinning = false
		m.feedHeld = false
		m.shooter.Stop()
		screen.SetShooterStatus(nil)
		screen.SetTunable("")
	}()
	screen.SetTunable(m.tunables.Current().String())

	ticker := time.NewTicker(m.shooter.Params().Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.onTick()
		case event := <-m.joystickEvents:
			m.onJoystickEvent(event)
		}
	}
}

func (m *ShooterMode) applyGains() {
	gains := [4]float64{m.kP.Get(), m.kI.Get(), m.kD.Get(), m.kF.Get()}
	if gains == m.lastGains {
		return
	}
	m.lastGains = gains
	m.shooter.SetPID(gains[0], gains[1], gains[2], gains[3])
}

func (m *ShooterMode) onTick() {
	m.applyGains()
	if m.spinning {
		m.shooter.SetRPM(m.rpm.Get())
	} else {
		m.shooter.SetRPM(0)
	}
	m.shooter.Update()

	atSetpoint := m.spinning && m.shooter.AtSetpoint()
	if atSetpoint && !m.atSetpoint {
		m.hw.PlaySound(sound.UpToSpeed)
	}
	m.atSetpoint = atSetpoint

	if m.feedHeld && atSetpoint {
		m.shooter.RunFeeder()
	} else {
		m.shooter.StopFeeder()
	}

	screen.SetShooterStatus(&screen.ShooterStatus{
		RPM:        m.shooter.ShooterRPM(),
		Setpoint:   m.shooter.Setpoint(),
		AtSetpoint: atSetpoint,
	})
}

func (m *ShooterMode) onJoystickEvent(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeButton:
		switch event.Number {
		case joystick.ButtonTriangle:
			if event.Value == 1 {
				m.spinning = !m.spinning
				fmt.Println("SHOOTER: flywheel on:", m.spinning)
			}
		case joystick.ButtonR2:
			m.feedHeld = event.Value == 1
		}
	case joystick.EventTypeAxis:
		switch event.Number {
		case joystick.AxisDPadX:
			if event.Value > 0 {
				m.tunables.SelectNext()
			} else if event.Value < 0 {
				m.tunables.SelectPrev()
			}
			screen.SetTunable(m.tunables.Current().String())
		case joystick.AxisDPadY:
			if event.Value < 0 {
				m.tunables.Current().Add(1)
			} else if event.Value > 0 {
				m.tunables.Current().Add(-1)
			}
			screen.SetTunable(m.tunables.Current().String())
		}
	}
}
