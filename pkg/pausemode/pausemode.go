package pausemode

import (
	"context"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

// PauseMode keeps everything still; it's the safe mode to leave the robot in between matches.
type PauseMode struct {
	hw hardware.Interface
}

func New(hw hardware.Interface) *PauseMode {
	return &PauseMode{hw: hw}
}

func (m *PauseMode) Name() string {
	return "PAUSE MODE"
}

func (m *PauseMode) StartupSound() sound.Event {
	return sound.PauseMode
}

func (m *PauseMode) Start(ctx context.Context) {
	m.hw.StopMotors()
	m.hw.Solenoid().Set(false)
}

func (m *PauseMode) Stop() {
}
