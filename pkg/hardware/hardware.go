package hardware

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/solenoid"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

// The motor boards stop by themselves if we go quiet for this long.
const motorWatchdog = 250 * time.Millisecond

// SensorOpener opens a colour sensor named by control_panel.sensor.  The returned closer is
// closed on shutdown.
type SensorOpener func(cfg *config.Config) (colorsensor.Interface, io.Closer, error)

type Option func(h *Hardware)

// WithSensor makes another colour sensor type available.  The camera sensor is added this way so
// that only the binaries that want it link OpenCV.
func WithSensor(name string, open SensorOpener) Option {
	return func(h *Hardware) {
		h.sensorOpeners[name] = open
	}
}

type Hardware struct {
	cfg           *config.Config
	sensorOpeners map[string]SensorOpener

	panelMotor *motorctl.Controller
	sensor     colorsensor.Interface
	solenoid   solenoid.Interface

	shooter      ShooterMotors
	shooterOK    bool
	motors       []*motorctl.Controller
	otherClosers []io.Closer

	sounds *sound.Player

	stopMonitor context.CancelFunc
	monitorDone chan struct{}
}

var _ Interface = (*Hardware)(nil)

// New opens all the devices named in the config.  periph's host.Init must have been done.
func New(cfg *config.Config, opts ...Option) (*Hardware, error) {
	h := newHardware(cfg, opts...)
	success := false
	defer func() {
		if !success {
			h.closeAll()
		}
	}()

	var err error
	pc := cfg.ControlPanel
	h.panelMotor, err = h.openMotor(pc.MotorAddr, "panel", pc.MotorInverted)
	if err != nil {
		return nil, err
	}

	if err := h.openSensor(); err != nil {
		return nil, err
	}

	h.solenoid, err = solenoid.New(pc.SolenoidPin)
	if err != nil {
		return nil, err
	}

	if sc := cfg.Shooter; sc.Enabled {
		// Both flywheel motors report the same direction; the follower's output is inverted by
		// the shooter itself when it's mounted the other way round.
		leader, err := h.openMotor(sc.LeaderAddr, "shooter-leader", false)
		if err != nil {
			return nil, err
		}
		follower, err := h.openMotor(sc.FollowerAddr, "shooter-follower", false)
		if err != nil {
			return nil, err
		}
		feeder, err := h.openMotor(sc.FeederAddr, "feeder", false)
		if err != nil {
			return nil, err
		}
		h.shooter = ShooterMotors{Leader: leader, Follower: follower, Feeder: feeder}
		h.shooterOK = true
	}

	h.sounds = sound.NewPlayer(cfg.SoundsDir)
	success = true
	return h, nil
}

func newHardware(cfg *config.Config, opts ...Option) *Hardware {
	h := &Hardware{
		cfg: cfg,
		sensorOpeners: map[string]SensorOpener{
			"apds9151": openAPDS9151,
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func openAPDS9151(cfg *config.Config) (colorsensor.Interface, io.Closer, error) {
	s, err := colorsensor.New(cfg.I2CBus, cfg.ControlPanel.SensorAddr)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Configure(); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, s, nil
}

func (h *Hardware) openSensor() error {
	name := h.cfg.ControlPanel.Sensor
	open, ok := h.sensorOpeners[name]
	if !ok {
		return errors.Errorf("colour sensor %q not available in this program", name)
	}
	s, closer, err := open(h.cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to open colour sensor %q", name)
	}
	if closer != nil {
		h.otherClosers = append(h.otherClosers, closer)
	}
	h.sensor = s
	return nil
}

func (h *Hardware) openMotor(addr int, name string, inverted bool) (*motorctl.Controller, error) {
	m, err := motorctl.New(h.cfg.I2CBus, addr, name, inverted)
	if err != nil {
		return nil, err
	}
	h.motors = append(h.motors, m)
	if err := m.SetWatchdog(motorWatchdog); err != nil {
		return nil, errors.Wrapf(err, "failed to set watchdog on %s", name)
	}
	return m, nil
}

func (h *Hardware) Start(ctx context.Context) {
	go screen.LoopUpdatingScreen(ctx, h.cfg.ScreenDevice)
	monitored := make([]monitoredMotor, len(h.motors))
	for i, m := range h.motors {
		monitored[i] = m
	}
	h.startMonitoring(ctx, monitored, monitorInterval)
}

func (h *Hardware) startMonitoring(ctx context.Context, motors []monitoredMotor, interval time.Duration) {
	var monitorCtx context.Context
	monitorCtx, h.stopMonitor = context.WithCancel(ctx)
	h.monitorDone = make(chan struct{})
	go func() {
		defer close(h.monitorDone)
		loopMonitoringMotors(monitorCtx, motors, interval)
	}()
}

// stopMonitoring returns once the monitor has finished with the motor boards.
func (h *Hardware) stopMonitoring() {
	if h.stopMonitor == nil {
		return
	}
	h.stopMonitor()
	<-h.monitorDone
	h.stopMonitor = nil
}

func (h *Hardware) PanelMotor() motorctl.Interface {
	return h.panelMotor
}

func (h *Hardware) ColorSensor() colorsensor.Interface {
	return h.sensor
}

func (h *Hardware) Solenoid() solenoid.Interface {
	return h.solenoid
}

func (h *Hardware) ShooterMotors() (ShooterMotors, bool) {
	return h.shooter, h.shooterOK
}

func (h *Hardware) PlaySound(e sound.Event) {
	h.sounds.Play(e)
}

func (h *Hardware) StopMotors() {
	for _, m := range h.motors {
		m.SetPercent(0)
	}
	time.Sleep(30 * time.Millisecond)
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: shutting down")
	h.stopMonitoring()
	h.StopMotors()
	h.solenoid.Set(false)
	h.closeAll()
	h.sounds.Close()
}

func (h *Hardware) closeAll() {
	for _, m := range h.motors {
		if err := m.Close(); err != nil {
			fmt.Println("HW: failed to close", m.Name(), err)
		}
	}
	for _, c := range h.otherClosers {
		_ = c.Close()
	}
	h.motors = nil
	h.otherClosers = nil
}
