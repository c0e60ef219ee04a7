package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/motorctl"
)

// Runs one motor board at a fixed output and prints its telemetry.
//
//	motortest [i2c address] [output]
func main() {
	fmt.Println("Motor board test program")
	addr := motorctl.DefaultAddr
	output := 0.2
	if len(os.Args) > 1 {
		a, err := strconv.ParseInt(os.Args[1], 0, 32)
		if err != nil {
			panic(err)
		}
		addr = int(a)
	}
	if len(os.Args) > 2 {
		o, err := strconv.ParseFloat(os.Args[2], 64)
		if err != nil {
			panic(err)
		}
		output = o
	}

	m, err := motorctl.New("/dev/i2c-1", addr, "test", false)
	if err != nil {
		panic(err)
	}
	defer m.Close()
	fmt.Println("Opened motor board. Enabling watchdog...")

	if err := m.SetWatchdog(time.Second); err != nil {
		panic(err)
	}
	fmt.Println("Watchdog enabled.")

	for {
		m.SetPercent(output)
		battV, _ := m.BattVolts()
		current, _ := m.CurrentAmps()
		tempC, _ := m.TemperatureC()
		status, _ := m.Status()
		fmt.Printf("%.1fC %.2fV %.3fA pos=%d vel=%.0f Status=%x\n",
			tempC, battV, current, m.Position(), m.Velocity(), status)
		time.Sleep(500 * time.Millisecond)
	}
}
