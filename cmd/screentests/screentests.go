package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
)

// Type a colour name (blue, green, red, yellow) to show its swatch, or anything else to show it as
// the mode name.
func main() {
	ctx := context.Background()

	device := "/dev/fb1"
	if len(os.Args) > 1 {
		device = os.Args[1]
	}
	go screen.LoopUpdatingScreen(ctx, device)

	screen.SetMode("SCREEN TEST")
	screen.SetShooterStatus(&screen.ShooterStatus{RPM: 2950, Setpoint: 3000, AtSetpoint: true})
	screen.SetNotice("TEST", screen.LevelInfo)

	labels := map[string]colormatch.Label{
		"blue":   colormatch.Blue,
		"green":  colormatch.Green,
		"red":    colormatch.Red,
		"yellow": colormatch.Yellow,
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		line = strings.TrimSpace(line)

		if l, ok := labels[strings.ToLower(line)]; ok {
			screen.SetPanelStatus(screen.PanelStatus{
				State: "COLOR ROTATE",
				Match: colormatch.Result{Label: l, Confidence: 0.9},
			})
			continue
		}
		screen.SetMode(line)
	}
}
