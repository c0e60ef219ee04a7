package tunable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddSteps(t *testing.T) {
	var ts Tunables
	speed := ts.Create("fast-speed", 0.5, 0.05, 0, 1)
	assert.Equal(t, 0.5, speed.Get())

	speed.Add(2)
	assert.InDelta(t, 0.6, speed.Get(), 1e-9)
	speed.Add(-4)
	assert.InDelta(t, 0.4, speed.Get(), 1e-9)
}

func TestClamped(t *testing.T) {
	var ts Tunables
	speed := ts.Create("slow-speed", 0.2, 0.1, -1, 1)
	speed.Add(100)
	assert.Equal(t, 1.0, speed.Get())
	speed.Add(-100)
	assert.Equal(t, -1.0, speed.Get())
	speed.Set(7)
	assert.Equal(t, 1.0, speed.Get())
}

func TestSelectionWraps(t *testing.T) {
	var ts Tunables
	assert.Nil(t, ts.Current())
	ts.SelectNext()

	a := ts.Create("a", 1, 1, 0, 10)
	b := ts.Create("b", 2, 1, 0, 10)
	c := ts.Create("c", 3, 1, 0, 10)

	assert.Equal(t, a, ts.Current())
	ts.SelectNext()
	assert.Equal(t, b, ts.Current())
	ts.SelectNext()
	ts.SelectNext()
	assert.Equal(t, a, ts.Current())
	ts.SelectPrev()
	assert.Equal(t, c, ts.Current())
}

func TestString(t *testing.T) {
	var ts Tunables
	kp := ts.Create("kp", 0.0005, 0.0001, 0, 1)
	assert.Equal(t, "kp=0.0005", kp.String())
}
