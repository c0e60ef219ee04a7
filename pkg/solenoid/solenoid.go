package solenoid

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

type Interface interface {
	Set(on bool)
	Get() bool
}

// GPIO drives a solenoid valve through a driver transistor on a GPIO pin.  periph's host.Init()
// must have been called first.
type GPIO struct {
	name string
	pin  gpio.PinIO
	on   bool
}

var _ Interface = (*GPIO)(nil)

func New(pinName string) (*GPIO, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("no such GPIO pin %q", pinName)
	}
	s := &GPIO{
		name: pinName,
		pin:  pin,
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "failed to set solenoid pin %s low", pinName)
	}
	return s, nil
}

func (s *GPIO) Set(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := s.pin.Out(level); err != nil {
		fmt.Printf("SOLENOID: failed to set %s to %v: %v\n", s.name, level, err)
		return
	}
	s.on = on
}

func (s *GPIO) Get() bool {
	return s.on
}

type dummySolenoid struct {
	on bool
}

func Dummy() Interface {
	return &dummySolenoid{}
}

func (d *dummySolenoid) Set(on bool) {
	fmt.Printf("Dummy solenoid set=%v\n", on)
	d.on = on
}

func (d *dummySolenoid) Get() bool {
	return d.on
}
