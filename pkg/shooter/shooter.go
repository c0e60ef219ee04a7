package shooter

import (
	"fmt"
	"math"
	"time"

	"github.com/felixge/pidctrl"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/loglimiter"
)

// Motor is a motor with a velocity encoder.  Velocity is in encoder counts per 100ms.
type Motor interface {
	SetPercent(percent float64)
	Velocity() float64
}

type Params struct {
	// EncoderCPR is encoder counts per revolution of the flywheel.
	EncoderCPR     float64
	ToleranceRPM   float64
	FeederSpeed    float64
	FollowerInvert bool
	// Period is the time between calls to Update.
	Period time.Duration
}

// Shooter runs the flywheel at a requested speed.  The leader is closed loop; the follower gets
// the same output, inverted if it's mounted the other way round.  Like the control panel, it is
// driven from a single goroutine.
type Shooter struct {
	leader, follower, feeder Motor
	params                   Params

	pid        *pidctrl.PIDController
	pidFresh   bool
	kF         float64
	setpoint   float64
	lastOutput float64
	feederOn   bool

	log *loglimiter.LogLimiter
}

func New(leader, follower, feeder Motor, params Params) *Shooter {
	s := &Shooter{
		leader:   leader,
		follower: follower,
		feeder:   feeder,
		params:   params,
		pid:      newPID(0, 0, 0),
		pidFresh: true,
		log:      loglimiter.New(time.Second),
	}
	return s
}

func newPID(kP, kI, kD float64) *pidctrl.PIDController {
	return pidctrl.NewPIDController(kP, kI, kD).SetOutputLimits(-1, 1)
}

func (s *Shooter) Params() Params {
	return s.params
}

// RPMToNative converts flywheel RPM to encoder counts per 100ms.
func (s *Shooter) RPMToNative(rpm float64) float64 {
	return rpm * s.params.EncoderCPR / 600
}

func (s *Shooter) NativeToRPM(native float64) float64 {
	return native * 600 / s.params.EncoderCPR
}

// SetPID sets the closed loop gains.  kP, kI and kD act on the error in RPM; kF is multiplied by
// the requested RPM to give the open loop part of the output.
func (s *Shooter) SetPID(kP, kI, kD, kF float64) {
	fmt.Printf("SHOOTER: gains P=%v I=%v D=%v F=%v\n", kP, kI, kD, kF)
	s.pid.SetPID(kP, kI, kD)
	s.kF = kF
}

func (s *Shooter) PID() (kP, kI, kD, kF float64) {
	kP, kI, kD = s.pid.PID()
	return kP, kI, kD, s.kF
}

func (s *Shooter) SetRPM(rpm float64) {
	if rpm != s.setpoint {
		fmt.Printf("SHOOTER: setpoint %.0f RPM\n", rpm)
	}
	if s.setpoint == 0 && rpm != 0 {
		// Spinning up again; drop the integral and last reading from the previous run.
		kP, kI, kD := s.pid.PID()
		s.pid = newPID(kP, kI, kD)
		s.pidFresh = true
	}
	s.setpoint = rpm
	s.pid.Set(rpm)
}

func (s *Shooter) Setpoint() float64 {
	return s.setpoint
}

// Update runs one cycle of the velocity loop.
func (s *Shooter) Update() {
	if s.setpoint == 0 {
		// Let the flywheel coast down rather than braking it.
		s.setOutput(0)
		return
	}
	rpm := s.ShooterRPM()
	if s.pidFresh {
		// Zero-length update records the current speed so the first real one has no derivative kick.
		s.pid.UpdateDuration(rpm, 0)
		s.pidFresh = false
	}
	out := s.pid.UpdateDuration(rpm, s.params.Period) + s.setpoint*s.kF
	s.setOutput(out)
	s.log.Printf("SHOOTER: %.0f/%.0f RPM, output %.2f", rpm, s.setpoint, s.lastOutput)
}

func (s *Shooter) setOutput(out float64) {
	out = math.Max(-1, math.Min(1, out))
	s.lastOutput = out
	s.leader.SetPercent(out)
	if s.params.FollowerInvert {
		s.follower.SetPercent(-out)
	} else {
		s.follower.SetPercent(out)
	}
}

func (s *Shooter) Output() float64 {
	return s.lastOutput
}

func (s *Shooter) ShooterRPM() float64 {
	return s.NativeToRPM(s.leader.Velocity())
}

// AtSetpoint is true when the flywheel is within tolerance of the requested speed.
func (s *Shooter) AtSetpoint() bool {
	return math.Abs(s.setpoint-s.ShooterRPM()) < s.params.ToleranceRPM
}

func (s *Shooter) RunFeeder() {
	if !s.feederOn {
		fmt.Println("SHOOTER: feeder on")
	}
	s.feederOn = true
	s.feeder.SetPercent(s.params.FeederSpeed)
}

func (s *Shooter) StopFeeder() {
	if s.feederOn {
		fmt.Println("SHOOTER: feeder off")
	}
	s.feederOn = false
	s.feeder.SetPercent(0)
}

func (s *Shooter) FeederOn() bool {
	return s.feederOn
}

// Stop spins everything down.
func (s *Shooter) Stop() {
	s.StopFeeder()
	s.SetRPM(0)
	s.setOutput(0)
}
