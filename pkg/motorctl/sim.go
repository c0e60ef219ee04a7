package motorctl

import (
	"fmt"
	"time"
)

// Sim is a motor with no hardware behind it.  Its encoder advances in proportion to the commanded
// output so that the control loops can be exercised on a bench or in tests.
type Sim struct {
	Name string
	// FreeSpeed is the encoder rate at full output, in counts per 100ms.
	FreeSpeed float64

	percent  float64
	position float64
	lastTime time.Time
	nowFunc  func() time.Time
}

var _ Interface = (*Sim)(nil)

func NewSim(name string, freeSpeed float64) *Sim {
	return &Sim{
		Name:      name,
		FreeSpeed: freeSpeed,
		nowFunc:   time.Now,
	}
}

func (s *Sim) SetPercent(percent float64) {
	s.advance()
	if percent > 1 {
		percent = 1
	} else if percent < -1 {
		percent = -1
	}
	if percent != s.percent {
		fmt.Printf("SIM %s: output %.2f\n", s.Name, percent)
	}
	s.percent = percent
}

func (s *Sim) Percent() float64 {
	return s.percent
}

func (s *Sim) Position() int64 {
	s.advance()
	return int64(s.position)
}

func (s *Sim) ResetPosition() {
	s.advance()
	s.position = 0
}

func (s *Sim) Velocity() float64 {
	return s.percent * s.FreeSpeed
}

func (s *Sim) advance() {
	now := s.nowFunc()
	if !s.lastTime.IsZero() {
		dt := now.Sub(s.lastTime)
		s.position += s.Velocity() * float64(dt) / float64(100*time.Millisecond)
	}
	s.lastTime = now
}
