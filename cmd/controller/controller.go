package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/camerasensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/gamedata"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/panelmode"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/pausemode"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/screen"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/shootermode"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/sound"
)

type Mode interface {
	Name() string
	StartupSound() sound.Event
	Start(ctx context.Context)
	Stop()
}

type JoystickUser interface {
	OnJoystickEvent(event *joystick.Event)
}

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	InUseFile  string `arg:"--in-use" help:"where to record the configuration actually used"`
	Joystick   string `arg:"-j,--joystick,env:JOYSTICK_DEVICE" help:"joystick device"`
	Dummy      bool   `arg:"-d,--dummy" help:"simulate the hardware"`
}

func procArgs() Args {
	args := Args{
		ConfigFile: config.DefaultPath,
		InUseFile:  config.InUsePath,
		Joystick:   joystick.DefaultDevice,
	}
	arg.MustParse(&args)
	return args
}

func main() {
	fmt.Println("---- Control panel robot ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))
	args := procArgs()

	cfg := config.LoadOrDefault(args.ConfigFile)
	if err := cfg.WriteInUse(args.InUseFile); err != nil {
		fmt.Println("Failed to write in-use config:", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	// Initialise the hardware.
	var hw hardware.Interface
	if args.Dummy {
		hw = hardware.NewDummy(cfg)
	} else {
		if _, err := host.Init(); err != nil {
			log.Fatal("Failed to initialise periph: ", err)
		}
		realHW, err := hardware.New(cfg, hardware.WithSensor("camera", camerasensor.Open))
		if err != nil {
			log.Fatal("Failed to initialise hardware: ", err)
		}
		hw = realHW
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()
	hw.Start(ctx)

	gameData, err := gamedata.New(ctx, cfg.GameData)
	if err != nil {
		log.Fatal("Failed to set up game data: ", err)
	}

	// Wait for the joystick and kick off a background thread to read from it.
	joystickEvents, err := initJoystick(ctx, cancel, args.Joystick)
	if err != nil {
		fmt.Println("Gave up waiting for joystick:", err)
		return
	}

	hw.PlaySound(sound.Startup)

	allModes := []Mode{
		panelmode.New(hw, cfg, gameData),
	}
	if sm, err := shootermode.New(hw, cfg); err == nil {
		allModes = append(allModes, sm)
	} else {
		fmt.Println("Not using shooter mode:", err)
	}
	allModes = append(allModes, pausemode.New(hw))

	var activeMode Mode = allModes[0]
	fmt.Printf("----- %s -----\n", activeMode.Name())
	screen.SetMode(activeMode.Name())
	activeMode.Start(ctx)
	activeModeIdx := 0

	switchMode := func(delta int) {
		fmt.Println("Mode switch", delta)
		activeMode.Stop()
		hw.StopMotors()
		activeModeIdx += delta
		activeModeIdx = (activeModeIdx + len(allModes)) % len(allModes)
		activeMode = allModes[activeModeIdx]
		fmt.Printf("----- %s -----\n", activeMode.Name())
		screen.SetMode(activeMode.Name())

		hw.PlaySound(activeMode.StartupSound())

		activeMode.Start(ctx)
		fmt.Println("Mode switch done.")
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	fmt.Println("Waiting for events...")
	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping active mode and shutting down")
			activeMode.Stop()
			return
		case event, ok := <-joystickEvents:
			if !ok {
				fmt.Println("Joystick events channel closed!")
				activeMode.Stop()
				cancel()
				return
			}
			// Intercept Options/Share to implement mode switching.
			if event.IsPress(joystick.ButtonOptions) {
				fmt.Printf("Options pressed: switching modes >>\n")
				switchMode(1)
				continue
			} else if event.IsPress(joystick.ButtonShare) {
				fmt.Printf("Share pressed: switching modes <<\n")
				switchMode(-1)
				continue
			}
			// Pass other joystick events through if this mode requires them.
			if ju, ok := activeMode.(JoystickUser); ok {
				done := make(chan struct{})
				go func() {
					defer close(done)
					ju.OnJoystickEvent(event)
				}()
				timeout := time.NewTimer(1 * time.Second)
				select {
				case <-done:
					timeout.Stop()
				case <-timeout.C:
					// All the modes are supposed to just queue the event to the background thread.
					// If they block this long, they've probably deadlocked.
					panic("Deadlock? Active mode blocked OnJoystickEvent for >1s")
				}
			}
		case <-watchdog.C:
			fmt.Println("Main loop still running")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

func initJoystick(ctx context.Context, cancel context.CancelFunc, device string) (chan *joystick.Event, error) {
	const noJoy = "NO JOY"
	j, err := joystick.WaitForJoystick(ctx, device, func(err error) {
		screen.SetNotice(noJoy, screen.LevelErr)
		fmt.Printf("Waiting for joystick: %v.\n", err)
	})
	if err != nil {
		return nil, err
	}
	screen.ClearNotice(noJoy)
	fmt.Printf("Opened joystick\n")

	joystickEvents := make(chan *joystick.Event, 1)
	go func() {
		defer cancel()
		err := j.LoopReadingEvents(ctx, joystickEvents)
		fmt.Printf("Joystick failed: %v\n", err)
	}()
	return joystickEvents, nil
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
