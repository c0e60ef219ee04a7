package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
)

const (
	DefaultPath = "/cfg/robot.yaml"
	InUsePath   = "/cfg/robot-in-use.yaml"
)

type Config struct {
	I2CBus       string         `yaml:"i2c-bus"`
	LoopPeriodMS int            `yaml:"loop-period-ms"`
	SoundsDir    string         `yaml:"sounds-dir"`
	ScreenDevice string         `yaml:"screen-device"`
	ControlPanel PanelConfig    `yaml:"control-panel"`
	Shooter      ShooterConfig  `yaml:"shooter"`
	GameData     GameDataConfig `yaml:"game-data"`
}

type PanelConfig struct {
	MotorAddr     int    `yaml:"motor-addr"`
	MotorInverted bool   `yaml:"motor-inverted"`
	SolenoidPin   string `yaml:"solenoid-pin"`
	// Sensor is "apds9151" or "camera".
	Sensor       string `yaml:"sensor"`
	SensorAddr   int    `yaml:"sensor-addr"`
	CameraDevice int    `yaml:"camera-device"`

	FastSpeed         float64 `yaml:"fast-speed"`
	SlowSpeed         float64 `yaml:"slow-speed"`
	FastRotationTicks int64   `yaml:"fast-rotation-ticks"`
	OvershootTicks    int64   `yaml:"overshoot-ticks"`

	ConfidenceThreshold float64      `yaml:"confidence-threshold"`
	Colors              ColorsConfig `yaml:"colors"`
}

type RGB struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
}

func (c RGB) Color() colormatch.Color {
	return colormatch.Color{R: c.R, G: c.G, B: c.B}
}

type ColorsConfig struct {
	Blue   RGB `yaml:"blue,flow"`
	Green  RGB `yaml:"green,flow"`
	Red    RGB `yaml:"red,flow"`
	Yellow RGB `yaml:"yellow,flow"`
}

func (c ColorsConfig) Targets() []colormatch.Target {
	return []colormatch.Target{
		{Label: colormatch.Blue, Color: c.Blue.Color()},
		{Label: colormatch.Green, Color: c.Green.Color()},
		{Label: colormatch.Red, Color: c.Red.Color()},
		{Label: colormatch.Yellow, Color: c.Yellow.Color()},
	}
}

type ShooterConfig struct {
	// The shooter is carried over from last season's robot and is off unless asked for.
	Enabled        bool    `yaml:"enabled"`
	LeaderAddr     int     `yaml:"leader-addr"`
	FollowerAddr   int     `yaml:"follower-addr"`
	FeederAddr     int     `yaml:"feeder-addr"`
	EncoderCPR     float64 `yaml:"encoder-cpr"`
	ToleranceRPM   float64 `yaml:"tolerance-rpm"`
	FeederSpeed    float64 `yaml:"feeder-speed"`
	DefaultRPM     float64 `yaml:"default-rpm"`
	FollowerInvert bool    `yaml:"follower-invert"`
	PID            PID     `yaml:"pid,flow"`
}

type PID struct {
	KP float64 `yaml:"kp"`
	KI float64 `yaml:"ki"`
	KD float64 `yaml:"kd"`
	KF float64 `yaml:"kf"`
}

type GameDataConfig struct {
	// Source is "file", "serial" or "static".
	Source     string `yaml:"source"`
	Path       string `yaml:"path"`
	SerialPort string `yaml:"serial-port"`
	BaudRate   int    `yaml:"baud-rate"`
	Static     string `yaml:"static"`
}

var defaultConfig = Config{
	I2CBus:       "/dev/i2c-1",
	LoopPeriodMS: 20,
	SoundsDir:    "/sounds",
	ScreenDevice: "/dev/fb1",
	ControlPanel: PanelConfig{
		MotorAddr:           0x60,
		SolenoidPin:         "GPIO17",
		Sensor:              "apds9151",
		SensorAddr:          0x52,
		FastSpeed:           0.5,
		SlowSpeed:           0.2,
		FastRotationTicks:   28672,
		OvershootTicks:      512,
		ConfidenceThreshold: colormatch.DefaultConfidenceThreshold,
		Colors: ColorsConfig{
			Blue:   rgb(colormatch.BlueTarget),
			Green:  rgb(colormatch.GreenTarget),
			Red:    rgb(colormatch.RedTarget),
			Yellow: rgb(colormatch.YellowTarget),
		},
	},
	Shooter: ShooterConfig{
		LeaderAddr:     0x61,
		FollowerAddr:   0x62,
		FeederAddr:     0x63,
		EncoderCPR:     2048,
		ToleranceRPM:   50,
		FeederSpeed:    0.5,
		DefaultRPM:     3000,
		FollowerInvert: true,
		PID: PID{
			KP: 0.0005,
			KF: 0.00017,
		},
	},
	GameData: GameDataConfig{
		Source:   "file",
		Path:     "/run/robot/gamedata",
		BaudRate: 115200,
	},
}

func rgb(c colormatch.Color) RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

func Default() *Config {
	c := defaultConfig
	return &c
}

func (c *Config) LoopPeriod() time.Duration {
	return time.Duration(c.LoopPeriodMS) * time.Millisecond
}

func (c *Config) Validate() error {
	if c.LoopPeriodMS <= 0 {
		return errors.New("loop-period-ms must be positive")
	}
	if err := c.ControlPanel.Validate(); err != nil {
		return errors.Wrap(err, "control-panel")
	}
	if err := c.Shooter.Validate(); err != nil {
		return errors.Wrap(err, "shooter")
	}
	if err := c.GameData.Validate(); err != nil {
		return errors.Wrap(err, "game-data")
	}
	return nil
}

func (c *PanelConfig) Validate() error {
	switch c.Sensor {
	case "apds9151", "camera":
	default:
		return errors.Errorf("unknown sensor %q", c.Sensor)
	}
	if !inDutyRange(c.FastSpeed) || !inDutyRange(c.SlowSpeed) {
		return errors.New("speeds should be in range -1 - 1")
	}
	if c.FastRotationTicks <= 0 {
		return errors.New("fast-rotation-ticks must be positive")
	}
	if c.OvershootTicks < 0 {
		return errors.New("overshoot-ticks must not be negative")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.New("confidence-threshold should be in range 0 - 1")
	}
	return nil
}

func (c *ShooterConfig) Validate() error {
	if c.EncoderCPR <= 0 {
		return errors.New("encoder-cpr must be positive")
	}
	if c.ToleranceRPM <= 0 {
		return errors.New("tolerance-rpm must be positive")
	}
	if !inDutyRange(c.FeederSpeed) {
		return errors.New("feeder-speed should be in range -1 - 1")
	}
	return nil
}

func (c *GameDataConfig) Validate() error {
	switch c.Source {
	case "file":
		if c.Path == "" {
			return errors.New("path is required for the file source")
		}
	case "serial":
		if c.SerialPort == "" {
			return errors.New("serial-port is required for the serial source")
		}
		if c.BaudRate <= 0 {
			return errors.New("baud-rate must be positive")
		}
	case "static":
	default:
		return errors.Errorf("unknown source %q", c.Source)
	}
	return nil
}

func inDutyRange(v float64) bool {
	return v >= -1 && v <= 1
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := Default()
	if err := yaml.Unmarshal(buf, conf); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadOrDefault reads the config file, falling back to the defaults if it's missing.  It's better to
// drive with a default config than not drive at all.
func LoadOrDefault(filename string) *Config {
	conf, err := ParseConfigFile(filename)
	if err != nil {
		fmt.Println("CONFIG: using defaults:", err)
		return Default()
	}
	return conf
}

// WriteInUse records the config that's actually being used, for debugging at the competition.
func (c *Config) WriteInUse(filename string) error {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, buf, 0666)
}
