package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	arg "github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/controlpanel"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
)

var CLI struct {
	Quit   QuitCmd   `cmd:"" help:"Quit."`
	Enc    EncCmd    `cmd:"" help:"Rotate the panel by encoder count."`
	Color  ColorCmd  `cmd:"" help:"Rotate the panel until it reaches red."`
	Find   FindCmd   `cmd:"" help:"Work out the colour-find slot for a game data message."`
	Stop   StopCmd   `cmd:"" help:"Stop the spinner."`
	Drop   DropCmd   `cmd:"" help:"Deploy the spinner."`
	Raise  RaiseCmd  `cmd:"" help:"Retract the spinner."`
	Jog    JogCmd    `cmd:"" help:"Run the spinner by hand for a while."`
	Sample SampleCmd `cmd:"" help:"Read and classify the colour sensor."`
	Status StatusCmd `cmd:"" help:"Show the spinner state."`
}

type Args struct {
	ConfigFile string        `arg:"-c,--config" help:"path to configuration file"`
	Dummy      bool          `arg:"-d,--dummy" help:"simulate the hardware"`
	Timeout    time.Duration `arg:"-t,--timeout" help:"give up on a rotation after this long"`
}

type Context struct {
	ctx     context.Context
	ctrl    *controlpanel.Controller
	period  time.Duration
	timeout time.Duration
}

// runUntilIdle drives the control loop until the spinner stops by itself.
func (c *Context) runUntilIdle() error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	deadline := time.After(c.timeout)
	start := time.Now()
	lastState := c.ctrl.State()
	for {
		select {
		case <-c.ctx.Done():
			c.ctrl.Disable()
			return c.ctx.Err()
		case <-deadline:
			c.ctrl.Disable()
			return errors.Errorf("timed out in state %v at position %d", lastState, c.ctrl.LastPosition())
		case <-ticker.C:
		}
		c.ctrl.Update()
		if s := c.ctrl.State(); s != lastState {
			fmt.Printf("%6.2fs %v position=%d colour=%v\n",
				time.Since(start).Seconds(), s, c.ctrl.LastPosition(), c.ctrl.LastMatch())
			lastState = s
		}
		if lastState == controlpanel.Disabled {
			return nil
		}
	}
}

type EncCmd struct{}

func (e *EncCmd) Run(ctx *Context) error {
	if err := ctx.ctrl.StartEncoderRotate(); err != nil {
		return err
	}
	return ctx.runUntilIdle()
}

type ColorCmd struct{}

func (e *ColorCmd) Run(ctx *Context) error {
	if err := ctx.ctrl.StartColorRotate(); err != nil {
		return err
	}
	return ctx.runUntilIdle()
}

type FindCmd struct {
	Message string `arg:"" optional:"" name:"message" help:"Game data, e.g. R."`
}

func (f *FindCmd) Run(ctx *Context) error {
	slot, ok := ctx.ctrl.StartColorFind(f.Message)
	if !ok {
		return errors.New("no colour to find")
	}
	fmt.Println("Slot:", slot)
	return nil
}

type StopCmd struct{}

func (s *StopCmd) Run(ctx *Context) error {
	ctx.ctrl.Disable()
	return nil
}

type DropCmd struct{}

func (d *DropCmd) Run(ctx *Context) error {
	ctx.ctrl.Deploy()
	return nil
}

type RaiseCmd struct{}

func (r *RaiseCmd) Run(ctx *Context) error {
	ctx.ctrl.Retract()
	return nil
}

type JogCmd struct {
	Percent  float64       `arg:"" name:"percent" help:"Output, -1 to 1."`
	Duration time.Duration `arg:"" optional:"" name:"duration" default:"1s"`
}

func (j *JogCmd) Run(ctx *Context) error {
	if ctx.ctrl.State() != controlpanel.Disabled {
		return controlpanel.ErrBusy
	}
	ticker := time.NewTicker(ctx.period)
	defer ticker.Stop()
	done := time.After(j.Duration)
	defer ctx.ctrl.Disable()
	ctx.ctrl.SetJog(j.Percent)
	for {
		select {
		case <-done:
			fmt.Println("Position:", ctx.ctrl.LastPosition())
			return nil
		case <-ticker.C:
		}
		ctx.ctrl.Update()
	}
}

type SampleCmd struct {
	Count int `arg:"" optional:"" name:"count" default:"1"`
}

func (s *SampleCmd) Run(ctx *Context) error {
	for i := 0; i < s.Count; i++ {
		ctx.ctrl.ClassifyColor()
		fmt.Println(ctx.ctrl.LastMatch())
		if i < s.Count-1 {
			time.Sleep(ctx.period)
		}
	}
	return nil
}

type StatusCmd struct{}

func (s *StatusCmd) Run(ctx *Context) error {
	c := ctx.ctrl
	fmt.Printf("state=%v position=%d target=%d output=%.2f colour=%v\n",
		c.State(), c.LastPosition(), c.TargetRotation(), c.Output(), c.LastMatch())
	return nil
}

type QuitCmd struct{}

func (q *QuitCmd) Run(ctx *Context) error {
	return Quit
}

var Quit = errors.New("Quit")

func main() {
	fmt.Println("---- paneltest ----")

	args := Args{
		ConfigFile: config.DefaultPath,
		Timeout:    20 * time.Second,
	}
	arg.MustParse(&args)
	cfg := config.LoadOrDefault(args.ConfigFile)

	var hw hardware.Interface
	if args.Dummy {
		hw = hardware.NewDummy(cfg)
	} else {
		if _, err := host.Init(); err != nil {
			log.Fatal(err)
		}
		realHW, err := hardware.New(cfg)
		if err != nil {
			log.Fatal(err)
		}
		hw = realHW
	}
	defer hw.Shutdown()

	k, err := kong.New(&CLI)
	if err != nil {
		panic(err)
	}

	pc := cfg.ControlPanel
	ctx := &Context{
		ctx: context.Background(),
		ctrl: controlpanel.New(
			hw.PanelMotor(),
			hw.ColorSensor(),
			hw.Solenoid(),
			colormatch.New(pc.Colors.Targets(), pc.ConfidenceThreshold),
			controlpanel.ParamsFromConfig(pc),
		),
		period:  cfg.LoopPeriod(),
		timeout: args.Timeout,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("Enter a command:")
		if !scanner.Scan() {
			break
		}
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		parsed, err := k.Parse(strings.Fields(command))
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		err = parsed.Run(ctx)
		if err == Quit {
			break
		} else if err != nil {
			fmt.Println("ERROR:", err)
			continue
		}
	}
}
