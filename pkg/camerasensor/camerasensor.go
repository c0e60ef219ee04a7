package camerasensor

import (
	"fmt"
	"image"
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colorsensor"
	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
)

const DefaultPatchSize = 40

// Camera uses the mean colour of a square patch in the middle of a webcam frame as the sensor
// reading.  It stands in for the I2C sensor when that isn't fitted; the calibration needs redoing
// with cmd/colorcal since the camera's response differs.
type Camera struct {
	webcam    *gocv.VideoCapture
	img       gocv.Mat
	patchSize int

	last colormatch.Color
}

var _ colorsensor.Interface = (*Camera)(nil)

// Open opens the camera named in the control panel config, for use with hardware.WithSensor.
func Open(cfg *config.Config) (colorsensor.Interface, io.Closer, error) {
	c, err := New(cfg.ControlPanel.CameraDevice, DefaultPatchSize)
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

func New(deviceID int, patchSize int) (*Camera, error) {
	webcam, err := gocv.VideoCaptureDevice(deviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening video capture device %d", deviceID)
	}
	return &Camera{
		webcam:    webcam,
		img:       gocv.NewMat(),
		patchSize: patchSize,
	}, nil
}

func (c *Camera) Color() colormatch.Color {
	col, err := c.read()
	if err != nil {
		fmt.Println("COLOUR: camera:", err)
		return c.last
	}
	c.last = col
	return col
}

func (c *Camera) read() (colormatch.Color, error) {
	if ok := c.webcam.Read(&c.img); !ok {
		return colormatch.Color{}, errors.New("cannot read frame from camera")
	}
	if c.img.Empty() {
		return colormatch.Color{}, errors.New("no image on device")
	}

	patch := centrePatch(c.img.Cols(), c.img.Rows(), c.patchSize)
	region := c.img.Region(patch)
	defer region.Close()

	// Frames are BGR.
	mean := region.Mean()
	return colormatch.Color{R: mean.Val3, G: mean.Val2, B: mean.Val1}.Normalize(), nil
}

func (c *Camera) Close() error {
	_ = c.img.Close()
	return c.webcam.Close()
}

func centrePatch(width, height, size int) image.Rectangle {
	if size > width {
		size = width
	}
	if size > height {
		size = height
	}
	x0 := (width - size) / 2
	y0 := (height - size) / 2
	return image.Rect(x0, y0, x0+size, y0+size)
}
