package colorsensor

import (
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
)

// Fixed always reports the same colour.  Tests and the dummy hardware change Current directly.
type Fixed struct {
	Current colormatch.Color
}

func Dummy() *Fixed {
	return &Fixed{}
}

func (f *Fixed) Color() colormatch.Color {
	return f.Current
}

// Sequence reports each of its colours in turn, repeating the last one forever.
type Sequence struct {
	Colors []colormatch.Color
	next   int
}

func (s *Sequence) Color() colormatch.Color {
	if len(s.Colors) == 0 {
		return colormatch.Color{}
	}
	c := s.Colors[s.next]
	if s.next < len(s.Colors)-1 {
		s.next++
	}
	return c
}
