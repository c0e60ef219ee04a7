package controlpanel

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
)

var testParams = Params{
	FastSpeed:         0.5,
	SlowSpeed:         0.2,
	FastRotationTicks: 1000,
	OvershootTicks:    64,
	StopColor:         colormatch.Red,
}

type fakeMotor struct {
	position int64
	percent  float64
	sets     int
	resets   int
}

func (m *fakeMotor) SetPercent(p float64) {
	m.percent = p
	m.sets++
}

func (m *fakeMotor) Position() int64 {
	return m.position
}

func (m *fakeMotor) ResetPosition() {
	m.position = 0
	m.resets++
}

type fakeSensor struct {
	color colormatch.Color
}

func (s *fakeSensor) Color() colormatch.Color {
	return s.color
}

type fakeSolenoid struct {
	on bool
}

func (s *fakeSolenoid) Set(on bool) {
	s.on = on
}

func newTestController() (*Controller, *fakeMotor, *fakeSensor, *fakeSolenoid) {
	m := &fakeMotor{}
	s := &fakeSensor{color: colormatch.BlueTarget}
	sol := &fakeSolenoid{}
	return New(m, s, sol, colormatch.NewDefault(), testParams), m, s, sol
}

func TestDisabledHoldsZero(t *testing.T) {
	c, m, _, _ := newTestController()
	m.percent = 0.7
	c.Update()
	assert.Equal(t, Disabled, c.State())
	assert.Equal(t, 0.0, m.percent)
}

func TestEncoderRotateBelowThreshold(t *testing.T) {
	for _, pos := range []int64{-500, 0, 1, 500, 999} {
		next, out := Step(EncoderRotate, 0, Inputs{Position: pos}, testParams)
		assert.Equal(t, EncoderRotate, next, "position %d", pos)
		assert.Equal(t, testParams.FastSpeed, out.Percent, "position %d", pos)
	}
}

func TestEncoderRotateAtThreshold(t *testing.T) {
	for _, pos := range []int64{1000, 1001, 50000} {
		next, out := Step(EncoderRotate, 0, Inputs{Position: pos}, testParams)
		assert.Equal(t, Disabled, next, "position %d", pos)
		assert.Equal(t, 0.0, out.Percent, "position %d", pos)
	}
}

func TestEncoderRotateSequence(t *testing.T) {
	c, m, _, _ := newTestController()
	m.position = 12345
	require.NoError(t, c.StartEncoderRotate())
	assert.Equal(t, 1, m.resets)
	assert.Equal(t, int64(0), m.position)

	for pos := int64(0); pos < testParams.FastRotationTicks; pos += 100 {
		m.position = pos
		c.Update()
		assert.Equal(t, EncoderRotate, c.State())
		assert.Equal(t, testParams.FastSpeed, m.percent)
	}

	m.position = testParams.FastRotationTicks
	c.Update()
	assert.Equal(t, Disabled, c.State())
	assert.Equal(t, 0.0, m.percent)
}

func TestColorRotateWaitsForRed(t *testing.T) {
	c, m, s, _ := newTestController()
	require.NoError(t, c.StartColorRotate())

	for _, col := range []colormatch.Color{
		colormatch.BlueTarget,
		colormatch.GreenTarget,
		colormatch.YellowTarget,
		{R: 1, G: 0, B: 0}, // Reddish but not close enough to be called red.
	} {
		s.color = col
		m.position += 10
		c.Update()
		assert.Equal(t, ColorRotate, c.State())
		assert.Equal(t, testParams.SlowSpeed, m.percent)
	}
}

func TestColorRotateCapturesTarget(t *testing.T) {
	c, m, s, _ := newTestController()
	require.NoError(t, c.StartColorRotate())

	m.position = 777
	s.color = colormatch.RedTarget
	c.Update()
	assert.Equal(t, ColorRotateFinal, c.State())
	assert.Equal(t, int64(777+testParams.OvershootTicks), c.TargetRotation())
	assert.Equal(t, testParams.SlowSpeed, m.percent)
	assert.Equal(t, colormatch.Red, c.LastMatch().Label)
}

func TestColorRotateFinalStopsExactlyAtTarget(t *testing.T) {
	c, m, s, _ := newTestController()
	require.NoError(t, c.StartColorRotate())
	m.position = 100
	s.color = colormatch.RedTarget
	c.Update()
	target := c.TargetRotation()
	require.Equal(t, int64(164), target)

	// The sensor moving off red doesn't matter any more.
	s.color = colormatch.YellowTarget
	for pos := int64(100); pos < target; pos++ {
		m.position = pos
		c.Update()
		require.Equal(t, ColorRotateFinal, c.State(), "stopped early at %d", pos)
		require.Equal(t, testParams.SlowSpeed, m.percent)
		require.Equal(t, target, c.TargetRotation())
	}

	m.position = target
	c.Update()
	assert.Equal(t, Disabled, c.State())
	assert.Equal(t, 0.0, m.percent)
}

func TestColorRotateFinalOvershootPastTarget(t *testing.T) {
	next, out := Step(ColorRotateFinal, 500, Inputs{Position: 900}, testParams)
	assert.Equal(t, Disabled, next)
	assert.Equal(t, 0.0, out.Percent)
}

func TestColorRotateStallsWithoutRed(t *testing.T) {
	c, m, s, _ := newTestController()
	require.NoError(t, c.StartColorRotate())
	s.color = colormatch.GreenTarget
	for i := 0; i < 1000; i++ {
		m.position += 50
		c.Update()
	}
	assert.Equal(t, ColorRotate, c.State())
	assert.Equal(t, testParams.SlowSpeed, m.percent)
}

func TestStartWhileBusy(t *testing.T) {
	c, _, _, _ := newTestController()
	require.NoError(t, c.StartColorRotate())

	err := c.StartEncoderRotate()
	assert.True(t, errors.Is(err, ErrBusy))
	err = c.StartColorRotate()
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, ColorRotate, c.State())
}

func TestDisableFromEveryState(t *testing.T) {
	for _, start := range []func(c *Controller, m *fakeMotor, s *fakeSensor){
		func(c *Controller, m *fakeMotor, s *fakeSensor) {},
		func(c *Controller, m *fakeMotor, s *fakeSensor) { _ = c.StartEncoderRotate() },
		func(c *Controller, m *fakeMotor, s *fakeSensor) { _ = c.StartColorRotate() },
		func(c *Controller, m *fakeMotor, s *fakeSensor) {
			_ = c.StartColorRotate()
			s.color = colormatch.RedTarget
			c.Update()
		},
	} {
		c, m, s, _ := newTestController()
		start(c, m, s)
		c.Update()
		c.Disable()
		assert.Equal(t, Disabled, c.State())
		assert.Equal(t, 0.0, m.percent)
		c.Update()
		assert.Equal(t, Disabled, c.State())
	}
}

func TestStepNeverLeavesDefinedStates(t *testing.T) {
	states := []WheelState{Disabled, EncoderRotate, ColorRotate, ColorRotateFinal}
	labels := []colormatch.Label{colormatch.Unknown, colormatch.Blue, colormatch.Green, colormatch.Red, colormatch.Yellow}
	for _, st := range states {
		for _, l := range labels {
			for _, pos := range []int64{-1, 0, 63, 64, 999, 1000, 5000} {
				next, _ := Step(st, 64, Inputs{Position: pos, Color: l}, testParams)
				assert.Contains(t, states, next)

				// Allowed transitions only.
				switch st {
				case Disabled:
					assert.Equal(t, Disabled, next)
				case EncoderRotate:
					assert.Contains(t, []WheelState{EncoderRotate, Disabled}, next)
				case ColorRotate:
					assert.Contains(t, []WheelState{ColorRotate, ColorRotateFinal}, next)
				case ColorRotateFinal:
					assert.Contains(t, []WheelState{ColorRotateFinal, Disabled}, next)
				}
			}
		}
	}

	next, _ := Step(WheelState(99), 0, Inputs{}, testParams)
	assert.Equal(t, Disabled, next)
}

func TestClassifyColor(t *testing.T) {
	c, _, s, _ := newTestController()
	s.color = colormatch.YellowTarget
	assert.Equal(t, colormatch.Yellow, c.ClassifyColor())
	assert.InDelta(t, 1.0, c.LastMatch().Confidence, 1e-9)

	s.color = colormatch.Color{R: 0, G: 0, B: 1}
	assert.Equal(t, colormatch.Unknown, c.ClassifyColor())
}

func TestStartColorFind(t *testing.T) {
	c, m, _, _ := newTestController()

	for code, expected := range map[string]int{
		"G":  1,
		"R":  2,
		"Y":  3,
		"B":  0,
		"RG": 2,
	} {
		idx, ok := c.StartColorFind(code)
		assert.True(t, ok, code)
		assert.Equal(t, expected, idx, code)
	}

	for _, code := range []string{"", "X", "r"} {
		var ok bool
		out := captureStdout(t, func() {
			_, ok = c.StartColorFind(code)
		})
		assert.False(t, ok, code)
		assert.Contains(t, out, "No color was provided to spin to", code)
	}

	// Placeholder only: nothing moves.
	assert.Equal(t, Disabled, c.State())
	assert.Equal(t, 0, m.sets)
}

func captureStdout(t *testing.T, f func()) string {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() {
		os.Stdout = stdout
	}()

	f()

	require.NoError(t, w.Close())
	out, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestSolenoid(t *testing.T) {
	c, _, _, sol := newTestController()
	c.Deploy()
	assert.True(t, sol.on)
	c.Retract()
	assert.False(t, sol.on)
}

func TestSetOutputIsOverriddenByUpdate(t *testing.T) {
	c, m, _, _ := newTestController()
	c.SetOutput(2)
	assert.Equal(t, 1.0, m.percent)
	assert.Equal(t, 1.0, c.Output())
	c.SetOutput(-0.3)
	assert.Equal(t, -0.3, m.percent)

	c.Update()
	assert.Equal(t, 0.0, m.percent)
}

func TestJogWhileDisabled(t *testing.T) {
	c, m, _, _ := newTestController()
	c.SetJog(0.4)
	for i := 1; i <= 3; i++ {
		c.Update()
		assert.Equal(t, 0.4, m.percent)
		assert.Equal(t, i, m.sets, "one motor write per update")
	}

	// Ignored while rotating.
	require.NoError(t, c.StartEncoderRotate())
	c.Update()
	assert.Equal(t, testParams.FastSpeed, m.percent)

	c.Disable()
	c.Update()
	assert.Equal(t, 0.0, m.percent)

	c.SetJog(-3)
	c.Update()
	assert.Equal(t, -1.0, m.percent)
}

func TestStepDisabledAppliesJog(t *testing.T) {
	next, out := Step(Disabled, 0, Inputs{Jog: -0.25}, testParams)
	assert.Equal(t, Disabled, next)
	assert.Equal(t, -0.25, out.Percent)

	// Jog doesn't leak into the other states.
	_, out = Step(ColorRotate, 0, Inputs{Jog: -0.25, Color: colormatch.Blue}, testParams)
	assert.Equal(t, testParams.SlowSpeed, out.Percent)
}

func TestSetParams(t *testing.T) {
	c, m, _, _ := newTestController()
	p := c.Params()
	p.FastSpeed = 0.9
	c.SetParams(p)
	require.NoError(t, c.StartEncoderRotate())
	c.Update()
	assert.Equal(t, 0.9, m.percent)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "COLOR FINAL", ColorRotateFinal.String())
	assert.Equal(t, "unknown(7)", WheelState(7).String())
}

func TestParamsFromConfig(t *testing.T) {
	pc := config.Default().ControlPanel
	p := ParamsFromConfig(pc)
	assert.Equal(t, pc.FastSpeed, p.FastSpeed)
	assert.Equal(t, pc.SlowSpeed, p.SlowSpeed)
	assert.Equal(t, pc.FastRotationTicks, p.FastRotationTicks)
	assert.Equal(t, pc.OvershootTicks, p.OvershootTicks)
	assert.Equal(t, colormatch.Red, p.StopColor)
}
