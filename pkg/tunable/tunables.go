package tunable

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Tunable is a number that can be nudged from the joystick while the robot is running.  Reads and
// writes are atomic so the screen can show it from another goroutine.
type Tunable struct {
	Name     string
	Step     float64
	Min, Max float64

	bits uint64
}

func (t *Tunable) Add(steps int) float64 {
	for {
		old := atomic.LoadUint64(&t.bits)
		newV := t.clamp(math.Float64frombits(old) + float64(steps)*t.Step)
		if atomic.CompareAndSwapUint64(&t.bits, old, math.Float64bits(newV)) {
			fmt.Printf("TUNABLE: %s = %.4g\n", t.Name, newV)
			return newV
		}
	}
}

func (t *Tunable) Set(v float64) {
	atomic.StoreUint64(&t.bits, math.Float64bits(t.clamp(v)))
}

func (t *Tunable) Get() float64 {
	return math.Float64frombits(atomic.LoadUint64(&t.bits))
}

func (t *Tunable) String() string {
	return fmt.Sprintf("%s=%.4g", t.Name, t.Get())
}

func (t *Tunable) clamp(v float64) float64 {
	return math.Max(t.Min, math.Min(t.Max, v))
}

type Tunables struct {
	All      []*Tunable
	selected int
}

func (t *Tunables) Create(name string, value, step, min, max float64) *Tunable {
	newTunable := &Tunable{
		Name: name,
		Step: step,
		Min:  min,
		Max:  max,
	}
	newTunable.Set(value)
	t.All = append(t.All, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() {
	if len(t.All) == 0 {
		return
	}
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	fmt.Println("TUNABLE:", t.Current(), "selected")
}

func (t *Tunables) SelectPrev() {
	if len(t.All) == 0 {
		return
	}
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	fmt.Println("TUNABLE:", t.Current(), "selected")
}

// Current returns the selected tunable, or nil if there aren't any.
func (t *Tunables) Current() *Tunable {
	if len(t.All) == 0 {
		return nil
	}
	return t.All[t.selected]
}
