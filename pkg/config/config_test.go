package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, *Default(), *conf)
	assert.Equal(t, 20*time.Millisecond, conf.LoopPeriod())
	assert.False(t, conf.Shooter.Enabled)
	assert.Equal(t, colormatch.DefaultTargets(), conf.ControlPanel.Colors.Targets())
}

func TestAllSet(t *testing.T) {
	config := []byte(`
i2c-bus: /dev/i2c-3
loop-period-ms: 10
sounds-dir: /opt/sounds
screen-device: /dev/fb0
control-panel:
    motor-addr: 0x40
    motor-inverted: true
    solenoid-pin: GPIO5
    sensor: camera
    sensor-addr: 0x39
    camera-device: 1
    fast-speed: 0.8
    slow-speed: 0.1
    fast-rotation-ticks: 10000
    overshoot-ticks: 200
    confidence-threshold: 0.9
    colors:
        blue: {r: 0.143, g: 0.427, b: 0.429}
        green: {r: 0.197, g: 0.561, b: 0.240}
        red: {r: 0.561, g: 0.232, b: 0.114}
        yellow: {r: 0.361, g: 0.524, b: 0.113}
shooter:
    enabled: true
    leader-addr: 0x20
    follower-addr: 0x21
    feeder-addr: 0x22
    encoder-cpr: 4096
    tolerance-rpm: 25
    feeder-speed: 0.7
    default-rpm: 4000
    follower-invert: false
    pid: {kp: 1, ki: 2, kd: 3, kf: 4}
game-data:
    source: serial
    serial-port: /dev/ttyACM0
    baud-rate: 9600
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		I2CBus:       "/dev/i2c-3",
		LoopPeriodMS: 10,
		SoundsDir:    "/opt/sounds",
		ScreenDevice: "/dev/fb0",
		ControlPanel: PanelConfig{
			MotorAddr:           0x40,
			MotorInverted:       true,
			SolenoidPin:         "GPIO5",
			Sensor:              "camera",
			SensorAddr:          0x39,
			CameraDevice:        1,
			FastSpeed:           0.8,
			SlowSpeed:           0.1,
			FastRotationTicks:   10000,
			OvershootTicks:      200,
			ConfidenceThreshold: 0.9,
			Colors: ColorsConfig{
				Blue:   RGB{0.143, 0.427, 0.429},
				Green:  RGB{0.197, 0.561, 0.240},
				Red:    RGB{0.561, 0.232, 0.114},
				Yellow: RGB{0.361, 0.524, 0.113},
			},
		},
		Shooter: ShooterConfig{
			Enabled:        true,
			LeaderAddr:     0x20,
			FollowerAddr:   0x21,
			FeederAddr:     0x22,
			EncoderCPR:     4096,
			ToleranceRPM:   25,
			FeederSpeed:    0.7,
			DefaultRPM:     4000,
			FollowerInvert: false,
			PID:            PID{KP: 1, KI: 2, KD: 3, KF: 4},
		},
		GameData: GameDataConfig{
			Source:     "serial",
			Path:       "/run/robot/gamedata",
			SerialPort: "/dev/ttyACM0",
			BaudRate:   9600,
		},
	}, *conf)
}

func TestPartialOverride(t *testing.T) {
	conf, err := ParseConfig([]byte(`
control-panel:
    slow-speed: 0.15
`))
	require.NoError(t, err)
	assert.Equal(t, 0.15, conf.ControlPanel.SlowSpeed)
	assert.Equal(t, 0.5, conf.ControlPanel.FastSpeed)
	assert.Equal(t, "apds9151", conf.ControlPanel.Sensor)
}

func TestInvalidSensor(t *testing.T) {
	_, err := ParseConfig([]byte(`
control-panel:
    sensor: lidar
`))
	assert.Error(t, err)
}

func TestInvalidSpeed(t *testing.T) {
	_, err := ParseConfig([]byte(`
control-panel:
    fast-speed: 1.5
`))
	assert.Error(t, err)
}

func TestInvalidThreshold(t *testing.T) {
	_, err := ParseConfig([]byte(`
control-panel:
    confidence-threshold: 80
`))
	assert.Error(t, err)
}

func TestInvalidRotationTicks(t *testing.T) {
	_, err := ParseConfig([]byte(`
control-panel:
    fast-rotation-ticks: 0
`))
	assert.Error(t, err)
}

func TestSerialGameDataNeedsPort(t *testing.T) {
	_, err := ParseConfig([]byte(`
game-data:
    source: serial
`))
	assert.Error(t, err)
}

func TestUnknownGameDataSource(t *testing.T) {
	_, err := ParseConfig([]byte(`
game-data:
    source: carrier-pigeon
`))
	assert.Error(t, err)
}

func TestInvalidShooter(t *testing.T) {
	_, err := ParseConfig([]byte(`
shooter:
    encoder-cpr: 0
`))
	assert.Error(t, err)
}

func TestBadYAML(t *testing.T) {
	_, err := ParseConfig([]byte("control-panel: [1, 2"))
	assert.Error(t, err)
}

func TestWriteInUseRoundTrips(t *testing.T) {
	dir, err := ioutil.TempDir("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	conf := Default()
	conf.ControlPanel.SlowSpeed = 0.25
	filename := filepath.Join(dir, "in-use.yaml")
	require.NoError(t, conf.WriteInUse(filename))

	reread, err := ParseConfigFile(filename)
	require.NoError(t, err)
	assert.Equal(t, conf, reread)
}

func TestLoadOrDefaultWithMissingFile(t *testing.T) {
	conf := LoadOrDefault("/does/not/exist.yaml")
	assert.Equal(t, Default(), conf)
}
