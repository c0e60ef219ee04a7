package shooter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeMotor struct {
	percent  float64
	velocity float64
}

func (m *fakeMotor) SetPercent(p float64) {
	m.percent = p
}

func (m *fakeMotor) Velocity() float64 {
	return m.velocity
}

var testParams = Params{
	EncoderCPR:     2048,
	ToleranceRPM:   50,
	FeederSpeed:    0.6,
	FollowerInvert: true,
	Period:         20 * time.Millisecond,
}

func newTestShooter() (*Shooter, *fakeMotor, *fakeMotor, *fakeMotor) {
	leader, follower, feeder := &fakeMotor{}, &fakeMotor{}, &fakeMotor{}
	return New(leader, follower, feeder, testParams), leader, follower, feeder
}

func TestConversions(t *testing.T) {
	s, _, _, _ := newTestShooter()
	assert.Equal(t, 2048.0, s.RPMToNative(600))
	assert.Equal(t, 600.0, s.NativeToRPM(2048))
	assert.InDelta(t, 3000.0, s.NativeToRPM(s.RPMToNative(3000)), 1e-9)
	assert.Equal(t, 0.0, s.RPMToNative(0))
}

func TestFeedforwardOnlyAtSetpoint(t *testing.T) {
	s, leader, follower, _ := newTestShooter()
	s.SetPID(0.0005, 0, 0, 0.0002)
	s.SetRPM(3000)
	leader.velocity = s.RPMToNative(3000)

	s.Update()
	assert.InDelta(t, 0.6, leader.percent, 1e-9)
	assert.InDelta(t, -0.6, follower.percent, 1e-9)
	assert.True(t, s.AtSetpoint())
}

func TestProportionalTermPushesTowardsSetpoint(t *testing.T) {
	s, leader, _, _ := newTestShooter()
	s.SetPID(0.0005, 0, 0, 0.0002)
	s.SetRPM(3000)
	leader.velocity = s.RPMToNative(2000)

	s.Update()
	// 1000 RPM short: 0.5 from P on top of 0.6 feedforward, clamped.
	assert.Equal(t, 1.0, leader.percent)
	assert.False(t, s.AtSetpoint())

	leader.velocity = s.RPMToNative(3800)
	s.Update()
	assert.InDelta(t, 0.2, leader.percent, 1e-9)
}

func TestFollowerNotInverted(t *testing.T) {
	leader, follower, feeder := &fakeMotor{}, &fakeMotor{}, &fakeMotor{}
	p := testParams
	p.FollowerInvert = false
	s := New(leader, follower, feeder, p)
	s.SetPID(0, 0, 0, 0.0001)
	s.SetRPM(2000)
	s.Update()
	assert.InDelta(t, 0.2, follower.percent, 1e-9)
}

func TestAtSetpointTolerance(t *testing.T) {
	s, leader, _, _ := newTestShooter()
	s.SetRPM(3000)
	for rpm, expected := range map[float64]bool{
		3000: true,
		3049: true,
		2951: true,
		3060: false,
		2900: false,
		0:    false,
	} {
		leader.velocity = s.RPMToNative(rpm)
		assert.Equal(t, expected, s.AtSetpoint(), "rpm %v", rpm)
	}
}

func TestZeroSetpointCoasts(t *testing.T) {
	s, leader, follower, _ := newTestShooter()
	s.SetPID(0.0005, 0, 0, 0.0002)
	leader.velocity = s.RPMToNative(1500)
	s.Update()
	assert.Equal(t, 0.0, leader.percent)
	assert.Equal(t, 0.0, follower.percent)
}

func TestFeeder(t *testing.T) {
	s, _, _, feeder := newTestShooter()
	s.RunFeeder()
	assert.Equal(t, 0.6, feeder.percent)
	assert.True(t, s.FeederOn())
	s.StopFeeder()
	assert.Equal(t, 0.0, feeder.percent)
	assert.False(t, s.FeederOn())
}

func TestStop(t *testing.T) {
	s, leader, _, feeder := newTestShooter()
	s.SetPID(0, 0, 0, 0.0002)
	s.SetRPM(3000)
	s.RunFeeder()
	s.Update()
	assert.NotZero(t, leader.percent)

	s.Stop()
	assert.Equal(t, 0.0, leader.percent)
	assert.Equal(t, 0.0, feeder.percent)
	assert.Equal(t, 0.0, s.Setpoint())
}

func TestSpinUpAfterStopStartsWithoutOldIntegral(t *testing.T) {
	s, leader, _, _ := newTestShooter()
	s.SetPID(0, 0.01, 0, 0.0002)
	s.SetRPM(3000)

	// Stalled flywheel winds the integral up to its limit.
	leader.velocity = 0
	for i := 0; i < 200; i++ {
		s.Update()
	}
	assert.Equal(t, 1.0, leader.percent)

	s.SetRPM(0)
	s.Update()
	assert.Equal(t, 0.0, leader.percent)

	// Back on, already at speed: only the feedforward should be left.
	s.SetRPM(3000)
	leader.velocity = s.RPMToNative(3000)
	s.Update()
	assert.InDelta(t, 0.6, leader.percent, 1e-9)

	_, i, _, f := s.PID()
	assert.Equal(t, 0.01, i)
	assert.Equal(t, 0.0002, f)
}

func TestGains(t *testing.T) {
	s, _, _, _ := newTestShooter()
	s.SetPID(1, 2, 3, 4)
	p, i, d, f := s.PID()
	assert.Equal(t, []float64{1, 2, 3, 4}, []float64{p, i, d, f})
}
