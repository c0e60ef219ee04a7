package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/joystick"
)

var buttonNames = map[uint8]string{
	joystick.ButtonCross:    "cross (stop)",
	joystick.ButtonCircle:   "circle (colour rotate)",
	joystick.ButtonTriangle: "triangle (encoder rotate)",
	joystick.ButtonSquare:   "square (colour find)",
	joystick.ButtonL1:       "L1 (retract)",
	joystick.ButtonR1:       "R1 (deploy)",
	joystick.ButtonR2:       "R2 (feed)",
	joystick.ButtonShare:    "share (prev mode)",
	joystick.ButtonOptions:  "options (next mode)",
}

// Prints joystick events along with what the controller would do with them.
func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = joystick.DefaultDevice
	}
	j, err := joystick.WaitForJoystick(ctx, jDev, func(err error) {
		fmt.Printf("Waiting for joystick: %v.\n", err)
	})
	if err != nil {
		return
	}
	fmt.Printf("Opened joystick\n")

	joystickEvents := make(chan *joystick.Event)
	go func() {
		defer cancel()
		err := j.LoopReadingEvents(ctx, joystickEvents)
		fmt.Printf("Joystick failed: %v\n", err)
	}()
	for je := range joystickEvents {
		if name, ok := buttonNames[je.Number]; ok && je.Type == joystick.EventTypeButton {
			fmt.Println(je, name)
			continue
		}
		fmt.Println(je)
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
