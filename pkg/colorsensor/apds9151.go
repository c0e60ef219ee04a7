package colorsensor

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/loglimiter"
)

// Driver for the Broadcom APDS-9151 as fitted to the REV Robotics Color Sensor V3.

const (
	DefaultAddr = 0x52

	RegMainCtrl   = 0x00
	RegPSLED      = 0x01
	RegPSPulses   = 0x02
	RegPSMeasRate = 0x03
	RegLSMeasRate = 0x04
	RegLSGain     = 0x05
	RegPartID     = 0x06
	RegMainStatus = 0x07
	RegDataIR     = 0x0A // IR, green, blue, red follow on, 3 bytes each.

	PartID = 0xC2

	MainCtrlLSEnable = 0x02
	MainCtrlRGBMode  = 0x04

	LSResolution18Bit = 0x2 << 4
	LSRate100ms       = 0x2
	LSGain3x          = 0x01

	dataMask = 0x3FFFF
)

var ErrBadPartID = errors.New("unexpected part ID; not an APDS-9151?")

type Interface interface {
	Color() colormatch.Color
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type RawColor struct {
	Red, Green, Blue, IR uint32
}

type APDS9151 struct {
	dev port

	last colormatch.Color
	log  *loglimiter.LogLimiter
}

var _ Interface = (*APDS9151)(nil)

func New(deviceFile string, addr int) (*APDS9151, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open colour sensor")
	}
	return newWithPort(dev), nil
}

func newWithPort(dev port) *APDS9151 {
	return &APDS9151{
		dev: dev,
		log: loglimiter.New(5 * time.Second),
	}
}

func (s *APDS9151) Configure() error {
	var id [1]byte
	if err := s.dev.ReadReg(RegPartID, id[:]); err != nil {
		return errors.Wrap(err, "failed to read colour sensor part ID")
	}
	if id[0] != PartID {
		return errors.Wrapf(ErrBadPartID, "got 0x%x", id[0])
	}
	for _, w := range []struct {
		reg, val byte
	}{
		{RegMainCtrl, MainCtrlLSEnable | MainCtrlRGBMode},
		{RegLSMeasRate, LSResolution18Bit | LSRate100ms},
		{RegLSGain, LSGain3x},
	} {
		if err := s.dev.WriteReg(w.reg, []byte{w.val}); err != nil {
			return errors.Wrapf(err, "failed to write colour sensor register 0x%x", w.reg)
		}
	}
	fmt.Println("Colour sensor configured")
	return nil
}

func (s *APDS9151) ReadRaw() (RawColor, error) {
	var buf [12]byte
	if err := s.dev.ReadReg(RegDataIR, buf[:]); err != nil {
		return RawColor{}, errors.Wrap(err, "failed to read colour data")
	}
	return decodeRaw(buf), nil
}

// Color returns the normalised reading.  On a read failure the previous reading is returned.
func (s *APDS9151) Color() colormatch.Color {
	raw, err := s.ReadRaw()
	if err != nil {
		s.log.Printf("COLOUR: %v", err)
		return s.last
	}
	s.last = raw.Normalized()
	return s.last
}

func (s *APDS9151) Close() error {
	_ = s.dev.WriteReg(RegMainCtrl, []byte{0})
	return s.dev.Close()
}

func (r RawColor) Normalized() colormatch.Color {
	return colormatch.Color{
		R: float64(r.Red),
		G: float64(r.Green),
		B: float64(r.Blue),
	}.Normalize()
}

func decodeRaw(buf [12]byte) RawColor {
	readChannel := func(b []byte) uint32 {
		return (uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16) & dataMask
	}
	return RawColor{
		IR:    readChannel(buf[0:3]),
		Green: readChannel(buf[3:6]),
		Blue:  readChannel(buf[6:9]),
		Red:   readChannel(buf[9:12]),
	}
}
