package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"time"

	arg "github.com/alexflint/go-arg"
	yaml "gopkg.in/yaml.v2"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/camerasensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
)

type Args struct {
	ConfigFile string        `arg:"-c,--config" help:"path to configuration file"`
	Samples    int           `arg:"-n,--samples" help:"readings to average per colour"`
	Interval   time.Duration `arg:"-i,--interval" help:"time between readings"`
}

// Walks through the four panel colours, averaging sensor readings for each, and prints a colors
// block to paste into the config.
func main() {
	fmt.Println("---- Colour calibration ----")
	args := Args{
		ConfigFile: config.DefaultPath,
		Samples:    50,
		Interval:   20 * time.Millisecond,
	}
	arg.MustParse(&args)
	cfg := config.LoadOrDefault(args.ConfigFile)

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	hw, err := hardware.New(cfg, hardware.WithSensor("camera", camerasensor.Open))
	if err != nil {
		log.Fatal(err)
	}
	defer hw.Shutdown()
	sensor := hw.ColorSensor()

	oldMatcher := colormatch.New(cfg.ControlPanel.Colors.Targets(), cfg.ControlPanel.ConfidenceThreshold)
	stdin := bufio.NewScanner(os.Stdin)
	var colors config.ColorsConfig
	for _, c := range []struct {
		label colormatch.Label
		dest  *config.RGB
	}{
		{colormatch.Blue, &colors.Blue},
		{colormatch.Green, &colors.Green},
		{colormatch.Red, &colors.Red},
		{colormatch.Yellow, &colors.Yellow},
	} {
		fmt.Printf("Put %v under the sensor and press enter.\n", c.label)
		if !stdin.Scan() {
			return
		}
		avg := averageColor(sensor, args.Samples, args.Interval)
		fmt.Printf("%v: %v (currently matches %v)\n", c.label, avg, oldMatcher.Match(avg))
		*c.dest = config.RGB{R: avg.R, G: avg.G, B: avg.B}
	}

	// Check the new targets are far enough apart to tell apart.
	newMatcher := colormatch.New(colors.Targets(), cfg.ControlPanel.ConfidenceThreshold)
	for _, a := range newMatcher.Targets() {
		for _, b := range newMatcher.Targets() {
			if a.Label >= b.Label {
				continue
			}
			if d := colormatch.Distance(a.Color, b.Color); d < 0.05 {
				fmt.Printf("WARNING: %v and %v are only %.3f apart\n", a.Label, b.Label, d)
			}
		}
	}

	out, err := yaml.Marshal(map[string]interface{}{
		"control-panel": map[string]interface{}{"colors": colors},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}

func averageColor(sensor colorsensor.Interface, samples int, interval time.Duration) colormatch.Color {
	var sum colormatch.Color
	for i := 0; i < samples; i++ {
		c := sensor.Color()
		sum.R += c.R
		sum.G += c.G
		sum.B += c.B
		time.Sleep(interval)
	}
	return sum.Normalize()
}
