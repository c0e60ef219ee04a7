package hardware

import (
	"context"
	"fmt"
	"time"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
)

const (
	monitorInterval = 10 * time.Second
	lowBattVolts    = 11.5
	hotMotorC       = 70

	noticeLowBatt = "LOW BATT"
)

type monitoredMotor interface {
	Name() string
	BattVolts() (float32, error)
	CurrentAmps() (float32, error)
	TemperatureC() (float32, error)
	Status() (motorctl.StatusFlag, error)
}

type motorReport struct {
	Line    string
	Notices map[string]bool
}

// checkMotor reads a motor board's telemetry.  Notices maps each screen notice this motor is
// responsible for to whether it should be showing.
func checkMotor(m monitoredMotor) motorReport {
	name := m.Name()
	faultNotice := name + " FAULT"
	hotNotice := name + " HOT"
	r := motorReport{Notices: map[string]bool{}}

	volts, err := m.BattVolts()
	if err != nil {
		r.Line = fmt.Sprintf("HW: motor %s: failed to read telemetry: %v", name, err)
		return r
	}
	amps, err := m.CurrentAmps()
	if err != nil {
		r.Line = fmt.Sprintf("HW: motor %s: failed to read telemetry: %v", name, err)
		return r
	}
	temp, err := m.TemperatureC()
	if err != nil {
		r.Line = fmt.Sprintf("HW: motor %s: failed to read telemetry: %v", name, err)
		return r
	}
	status, err := m.Status()
	if err != nil {
		r.Line = fmt.Sprintf("HW: motor %s: failed to read status: %v", name, err)
		return r
	}

	r.Line = fmt.Sprintf("HW: motor %s: %.2fV %.2fA %.1fC status=%x", name, volts, amps, temp, status)
	r.Notices[noticeLowBatt] = volts < lowBattVolts
	r.Notices[faultNotice] = status&motorctl.RegStatusFault != 0
	r.Notices[hotNotice] = temp > hotMotorC
	return r
}

func loopMonitoringMotors(ctx context.Context, motors []monitoredMotor, interval time.Duration) {
	if len(motors) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		lowBatt := false
		for _, m := range motors {
			r := checkMotor(m)
			fmt.Println(r.Line)
			for n, show := range r.Notices {
				if n == noticeLowBatt {
					lowBatt = lowBatt || show
					continue
				}
				if show {
					screen.SetNotice(n, screen.LevelErr)
				} else {
					screen.ClearNotice(n)
				}
			}
		}
		if lowBatt {
			screen.SetNotice(noticeLowBatt, screen.LevelErr)
		} else {
			screen.ClearNotice(noticeLowBatt)
		}
	}
}
