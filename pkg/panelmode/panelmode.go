package panelmode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/controlpanel"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/gamedata"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/tunable"
)

const stickDeadZone = 0.1

// PanelMode drives the control panel spinner from the joystick:
//
//	Triangle   rotate by encoder count
//	Circle     rotate until red
//	Square     work out the colour-find slot from the game data
//	Cross      stop
//	R1 / L1    deploy / retract the spinner
//	L stick    jog the wheel by hand while stopped
//	D-pad      left/right picks a tunable, up/down changes it
type PanelMode struct {
	hw         hardware.Interface
	gameData   gamedata.Source
	loopPeriod time.Duration

	controller *controlpanel.Controller
	tunables   tunable.Tunables
	fastSpeed  *tunable.Tunable
	slowSpeed  *tunable.Tunable

	lastGameData string

	cancel         context.CancelFunc
	stopWG         sync.WaitGroup
	joystickEvents chan *joystick.Event
}

func New(hw hardware.Interface, cfg *config.Config, gameData gamedata.Source) *PanelMode {
	pc := cfg.ControlPanel
	m := &PanelMode{
		hw:             hw,
		gameData:       gameData,
		loopPeriod:     cfg.LoopPeriod(),
		joystickEvents: make(chan *joystick.Event),
	}
	m.fastSpeed = m.tunables.Create("fast-speed", pc.FastSpeed, 0.05, 0, 1)
	m.slowSpeed = m.tunables.Create("slow-speed", pc.SlowSpeed, 0.02, 0, 1)
	m.controller = controlpanel.New(
		hw.PanelMotor(),
		hw.ColorSensor(),
		hw.Solenoid(),
		colormatch.New(pc.Colors.Targets(), pc.ConfidenceThreshold),
		controlpanel.ParamsFromConfig(pc),
	)
	return m
}

func (m *PanelMode) Name() string {
	return "PANEL MODE"
}

func (m *PanelMode) StartupSound() sound.Event {
	return sound.PanelMode
}

func (m *PanelMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *PanelMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

func (m *PanelMode) OnJoystickEvent(event *joystick.Event) {
	m.joystickEvents <- event
}

// Controller is only safe to use while the mode is stopped.
func (m *PanelMode) Controller() *controlpanel.Controller {
	return m.controller
}

func (m *PanelMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer m.controller.Disable()

	m.controller.SetJog(0)
	screen.SetTunable(m.tunables.Current().String())
	defer screen.SetTunable("")

	ticker := time.NewTicker(m.loopPeriod)
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

func (m *PanelMode) onTick() {
	p := m.controller.Params()
	p.FastSpeed = m.fastSpeed.Get()
	p.SlowSpeed = m.slowSpeed.Get()
	m.controller.SetParams(p)

	prev := m.controller.State()
	m.controller.Update()
	state := m.controller.State()

	switch {
	case prev == controlpanel.ColorRotate && state == controlpanel.ColorRotateFinal:
		m.hw.PlaySound(sound.ColorFound)
	case prev != controlpanel.Disabled && state == controlpanel.Disabled:
		m.hw.PlaySound(sound.RotationDone)
	}

	screen.SetPanelStatus(screen.PanelStatus{
		State:          state.String(),
		Match:          m.controller.LastMatch(),
		Position:       m.controller.LastPosition(),
		TargetRotation: m.controller.TargetRotation(),
		Output:         m.controller.Output(),
		GameData:       m.lastGameData,
	})
}

func (m *PanelMode) onJoystickEvent(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeButton:
		if event.Value != 1 {
			return
		}
		switch event.Number {
		case joystick.ButtonTriangle:
			m.checkStarted(m.controller.StartEncoderRotate())
		case joystick.ButtonCircle:
			m.checkStarted(m.controller.StartColorRotate())
		case joystick.ButtonSquare:
			m.colorFind()
		case joystick.ButtonCross:
			m.controller.Disable()
		case joystick.ButtonR1:
			m.controller.Deploy()
		case joystick.ButtonL1:
			m.controller.Retract()
		}
	case joystick.EventTypeAxis:
		switch event.Number {
		case joystick.AxisLStickY:
			// Stick up is negative.
			m.controller.SetJog(-joystick.AxisValue(event.Value, stickDeadZone) * m.fastSpeed.Get())
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

func (m *PanelMode) checkStarted(err error) {
	if err != nil {
		fmt.Println("PANEL:", err)
		m.hw.PlaySound(sound.Busy)
	}
}

func (m *PanelMode) colorFind() {
	msg, err := m.gameData.Message()
	if err != nil {
		fmt.Println("PANEL: no game data:", err)
	}
	m.lastGameData = msg
	if slot, ok := m.controller.StartColorFind(msg); ok {
		fmt.Printf("PANEL: colour find needs slot %d under the sensor\n", slot)
	}
}
