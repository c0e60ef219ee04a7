package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/colormatch"
)

const size = 128

type Level int

const (
	LevelInfo Level = iota
	LevelErr
)

// PanelStatus is what the screen shows about the control panel spinner.
type PanelStatus struct {
	State          string
	Match          colormatch.Result
	Position       int64
	TargetRotation int64
	Output         float64
	GameData       string
}

type ShooterStatus struct {
	RPM, Setpoint float64
	AtSetpoint    bool
}

var (
	lock          sync.Mutex
	mode          string
	notices       = map[string]Level{}
	panelStatus   PanelStatus
	shooterStatus *ShooterStatus
	tunable       string
)

func SetMode(m string) {
	lock.Lock()
	defer lock.Unlock()
	mode = m
}

func SetNotice(text string, level Level) {
	lock.Lock()
	defer lock.Unlock()
	notices[text] = level
}

func ClearNotice(text string) {
	lock.Lock()
	defer lock.Unlock()
	delete(notices, text)
}

func SetPanelStatus(s PanelStatus) {
	lock.Lock()
	defer lock.Unlock()
	panelStatus = s
}

// SetShooterStatus shows the shooter line; nil hides it.
func SetShooterStatus(s *ShooterStatus) {
	lock.Lock()
	defer lock.Unlock()
	shooterStatus = s
}

func SetTunable(t string) {
	lock.Lock()
	defer lock.Unlock()
	tunable = t
}

func LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("SCREEN: failed to open screen, ignoring:", err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [size * size * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := toRGB565(Render())
		_, err = f.Seek(0, 0)
		if err != nil {
			fmt.Println("SCREEN: failure:", err)
			return
		}
		for i := 0; i < size; i++ {
			_, err = f.Write(buf[i*size*2 : (i+1)*size*2])
			if err != nil {
				fmt.Println("SCREEN: failure:", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the current status.
func Render() image.Image {
	lock.Lock()
	m := mode
	ps := panelStatus
	var ss *ShooterStatus
	if shooterStatus != nil {
		s := *shooterStatus
		ss = &s
	}
	t := tunable
	var ns []string
	var anyErr bool
	for n, l := range notices {
		ns = append(ns, n)
		anyErr = anyErr || l == LevelErr
	}
	lock.Unlock()
	sort.Strings(ns)

	dc := gg.NewContext(size, size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(m, 2, 12)
	dc.DrawString(ps.State, 2, 26)
	dc.DrawString(fmt.Sprintf("pos %d", ps.Position), 2, 40)
	if ps.State == "COLOR FINAL" {
		dc.DrawString(fmt.Sprintf("tgt %d", ps.TargetRotation), 2, 54)
	}
	dc.DrawString(fmt.Sprintf("out %.2f", ps.Output), 2, 68)
	if ps.GameData != "" {
		dc.DrawString("FMS "+ps.GameData, 70, 68)
	}

	// Swatch of the colour under the sensor, with how sure we are.
	dc.Push()
	setLabelColor(dc, ps.Match.Label)
	dc.DrawRectangle(88, 4, 36, 36)
	dc.Fill()
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(fmt.Sprintf("%.0f%%", ps.Match.Confidence*100), 92, 54)
	dc.Pop()

	y := 82.0
	if ss != nil {
		if ss.AtSetpoint {
			dc.SetRGB(0, 1, 0)
		}
		dc.DrawString(fmt.Sprintf("RPM %.0f/%.0f", ss.RPM, ss.Setpoint), 2, y)
		dc.SetRGBA(1, 0.9, 0, 1)
		y += 14
	}
	if t != "" {
		dc.DrawString(t, 2, y)
		y += 14
	}

	if len(ns) > 0 {
		dc.Push()
		dc.Translate(14, y+4)
		if anyErr {
			DrawWarning(dc)
		}
		dc.Pop()
		dc.SetRGB(1, 0.2, 0)
		for _, n := range ns {
			dc.DrawString(n, 30, y+8)
			y += 14
		}
	}
	return dc.Image()
}

func setLabelColor(dc *gg.Context, l colormatch.Label) {
	switch l {
	case colormatch.Blue:
		dc.SetRGB(0, 0.4, 1)
	case colormatch.Green:
		dc.SetRGB(0, 0.8, 0)
	case colormatch.Red:
		dc.SetRGB(1, 0, 0)
	case colormatch.Yellow:
		dc.SetRGB(1, 0.9, 0)
	default:
		dc.SetRGB(0.3, 0.3, 0.3)
	}
}

// toRGB565 packs the image in the order the panel wants: columns, bottom row first.
func toRGB565(img image.Image) []byte {
	buf := make([]byte, size*size*2)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(size-1-y)*2+x*size*2+1] = (rb << 3) | (gb >> 3)
			buf[(size-1-y)*2+x*size*2] = bb | (gb << 5)
		}
	}
	return buf
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}
