package motorctl

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/loglimiter"
)

// Single-channel motor controller board on the I2C bus.  Each board drives one brushed motor and
// counts its quadrature encoder.  Register layout (all registers 16-bit, big-endian):
//
//    0 ctrl       enable/run/watchdog bits
//    1 status     fault/watchdog-expired
//    2 watchdog   timeout in ms
//    3 faults     fault count
//    4 output     signed duty cycle, full scale = +/-OutputScale
//    5 position   signed encoder count, wraps at 16 bits
//    6 velocity   signed counts per 100ms
//    7 battv      LSB=4mV
//    8 current
//    9 temp       LSB=0.01C

const (
	DefaultAddr = 0x60

	OutputScale = 10000
)

type Register byte

const (
	RegCtrl Register = iota
	RegStatus
	RegWatchdogTimeout
	RegFaultCount

	RegOutput
	RegPosition
	RegVelocity

	RegBattV
	RegCurrent
	RegTemperature
)

const (
	BattVLSB       = 0.004
	CurrentLSB     = 0.0001831054688
	TemperatureLSB = 0.01
)

const (
	RegCtrlEnableI2CControl uint16 = 1 << iota
	RegCtrlRun
	RegCtrlWatchdogEnable
)

type StatusFlag uint16

const (
	RegStatusFault StatusFlag = 1 << iota
	RegStatusWatchdogExpired
)

// Interface is what the robot's subsystems need from a motor.  Reads and writes never fail from the
// caller's point of view; the implementation logs and carries on with the last good value.
type Interface interface {
	SetPercent(percent float64)
	Position() int64
	Velocity() float64
}

// Controller is a motor on the I2C motor controller board.  Register access is serialised so the
// telemetry readers can share it with the control loop; the rest is for a single goroutine.
type Controller struct {
	bus     *i2c.Devfs
	addr    int
	busLock sync.Mutex
	dev     *i2c.Device
	name    string

	inverted bool

	lastConfigWord  uint16
	lastConfigTime  time.Time
	watchdogEnabled bool

	lastOutput   int16
	lastVelocity float64
	tracker      *PositionTracker
	log          *loglimiter.LogLimiter
}

var _ Interface = (*Controller)(nil)

func New(deviceFile string, addr int, name string, inverted bool) (*Controller, error) {
	bus := &i2c.Devfs{Dev: deviceFile}
	dev, err := i2c.Open(bus, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open motor controller %s at 0x%x", name, addr)
	}

	c := &Controller{
		bus:      bus,
		addr:     addr,
		dev:      dev,
		name:     name,
		inverted: inverted,
		log:      loglimiter.New(5 * time.Second),
	}
	c.tracker = NewPositionTracker(c)
	return c, nil
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) SetPercent(percent float64) {
	if err := c.SetOutput(percent); err != nil {
		c.log.Printf("MOTOR %s: failed to set output: %v", c.name, err)
	}
}

// SetOutput writes the duty cycle, clamped to [-1, 1].
func (c *Controller) SetOutput(percent float64) error {
	if err := c.maybeConfigure(true); err != nil {
		return err
	}
	if c.inverted {
		percent = -percent
	}
	raw := scaleAndClamp(percent)
	if raw == c.lastOutput && time.Since(c.lastConfigTime) < 100*time.Millisecond {
		return nil
	}
	if err := c.writeReg(RegOutput, uint16(raw)); err != nil {
		return err
	}
	c.lastOutput = raw
	return nil
}

func (c *Controller) Position() int64 {
	if err := c.tracker.Poll(); err != nil {
		c.log.Printf("MOTOR %s: failed to read position: %v", c.name, err)
	}
	return c.tracker.Position()
}

// ResetPosition zeroes the tracked position.  The board's own counter keeps running.
func (c *Controller) ResetPosition() {
	if err := c.tracker.Poll(); err != nil {
		c.log.Printf("MOTOR %s: failed to read position: %v", c.name, err)
	}
	c.tracker.Zero()
}

// Velocity returns counts per 100ms, the same units as the position register.
func (c *Controller) Velocity() float64 {
	raw, err := c.readReg(RegVelocity)
	if err != nil {
		c.log.Printf("MOTOR %s: failed to read velocity: %v", c.name, err)
		return c.lastVelocity
	}
	v := float64(int16(raw))
	if c.inverted {
		v = -v
	}
	c.lastVelocity = v
	return v
}

func (c *Controller) RawPosition() (int16, error) {
	raw, err := c.readReg(RegPosition)
	if err != nil {
		return 0, err
	}
	p := int16(raw)
	if c.inverted {
		p = -p
	}
	return p, nil
}

func (c *Controller) SetWatchdog(timeout time.Duration) error {
	if timeout == 0 {
		c.watchdogEnabled = false
		return c.maybeConfigure(c.lastConfigWord&RegCtrlRun != 0)
	}

	ms := timeout.Milliseconds()
	if ms > math.MaxUint16 {
		ms = math.MaxUint16
	}
	err := c.writeReg(RegWatchdogTimeout, uint16(ms))
	if err != nil {
		return err
	}

	c.watchdogEnabled = true
	return c.maybeConfigure(c.lastConfigWord&RegCtrlRun != 0)
}

func (c *Controller) Close() error {
	_ = c.writeReg(RegOutput, 0)
	_ = c.maybeConfigure(false)
	c.busLock.Lock()
	defer c.busLock.Unlock()
	return c.dev.Close()
}

func (c *Controller) writeWithRetries(data []byte) error {
	var err error
	for tries := 0; tries < 5; tries++ {
		err = c.dev.Write(data)
		if err == nil {
			if tries > 0 {
				fmt.Printf("MOTOR %s: write succeeded after %d retries\n", c.name, tries)
			}
			return nil
		}
		fmt.Printf("MOTOR %s: failed to write: %v\n", c.name, err)
		time.Sleep(1 * time.Millisecond)
		_ = c.dev.Close()
		dev, openErr := i2c.Open(c.bus, c.addr)
		if openErr != nil {
			continue
		}
		c.dev = dev
	}
	return errors.Wrapf(err, "motor controller %s: write failed", c.name)
}

func (c *Controller) maybeConfigure(enableMotor bool) error {
	var configWord uint16 = RegCtrlEnableI2CControl
	if enableMotor {
		configWord |= RegCtrlRun
	}
	if c.watchdogEnabled {
		configWord |= RegCtrlWatchdogEnable
	}

	if configWord == c.lastConfigWord && time.Since(c.lastConfigTime) < 100*time.Millisecond {
		// Skip writing config if we've done it recently.  Rewriting it periodically keeps the
		// watchdog fed.
		return nil
	}

	if err := c.writeReg(RegCtrl, configWord); err != nil {
		return err
	}

	status, err := c.readReg(RegStatus)
	if err != nil {
		return err
	}
	if StatusFlag(status)&RegStatusWatchdogExpired != 0 {
		fmt.Printf("MOTOR %s: watchdog had expired, clearing\n", c.name)
		if err := c.writeReg(RegStatus, uint16(RegStatusWatchdogExpired)); err != nil {
			return err
		}
	}

	c.lastConfigTime = time.Now()
	c.lastConfigWord = configWord
	return nil
}

func (c *Controller) BattVolts() (float32, error) {
	raw, err := c.readReg(RegBattV)
	if err != nil {
		return 0, err
	}
	return float32(raw) * BattVLSB, nil
}

func (c *Controller) CurrentAmps() (float32, error) {
	raw, err := c.readReg(RegCurrent)
	if err != nil {
		return 0, err
	}
	return float32(int16(raw)) * CurrentLSB, nil
}

func (c *Controller) TemperatureC() (float32, error) {
	raw, err := c.readReg(RegTemperature)
	if err != nil {
		return 0, err
	}
	return float32(int16(raw)) * TemperatureLSB, nil
}

func (c *Controller) Status() (StatusFlag, error) {
	raw, err := c.readReg(RegStatus)
	if err != nil {
		return 0, err
	}
	return StatusFlag(raw), nil
}

func (c *Controller) writeReg(reg Register, value uint16) error {
	c.busLock.Lock()
	defer c.busLock.Unlock()
	return c.writeWithRetries([]byte{byte(reg), byte(value >> 8), byte(value)})
}

func (c *Controller) readReg(reg Register) (uint16, error) {
	var buf [2]byte
	c.busLock.Lock()
	err := c.dev.ReadReg(byte(reg), buf[:])
	c.busLock.Unlock()
	if err != nil {
		return 0, errors.Wrapf(err, "motor controller %s: failed to read register %d", c.name, reg)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func scaleAndClamp(percent float64) int16 {
	if percent > 1 {
		percent = 1
	} else if percent < -1 {
		percent = -1
	}
	return int16(math.Round(percent * OutputScale))
}
