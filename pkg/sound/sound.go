package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Event names a sound; each one is a .wav file in the sounds directory.
type Event string

const (
	Startup      Event = "startup"
	PanelMode    Event = "panelmode"
	ShooterMode  Event = "shootermode"
	PauseMode    Event = "pausemode"
	RotationDone Event = "rotationdone"
	ColorFound   Event = "colorfound"
	UpToSpeed    Event = "uptospeed"
	Busy         Event = "busy"
)

type Player struct {
	dir          string
	soundsToPlay chan string
}

// NewPlayer starts the background goroutine that owns the speaker.
func NewPlayer(dir string) *Player {
	p := newPlayer(dir, make(chan string))
	go loopPlayingSounds(p.soundsToPlay)
	return p
}

func newPlayer(dir string, soundsToPlay chan string) *Player {
	return &Player{
		dir:          dir,
		soundsToPlay: soundsToPlay,
	}
}

func (p *Player) Path(e Event) string {
	return filepath.Join(p.dir, string(e)+".wav")
}

// Play queues the sound, giving up quickly if the player is busy.  Nothing in the control loops
// should wait for the speaker.
func (p *Player) Play(e Event) {
	path := p.Path(e)
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case p.soundsToPlay <- path:
		return
	case <-time.After(10 * time.Millisecond):
		fmt.Println("SOUND: timed out trying to play", path)
	}
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}

func loopPlayingSounds(soundsToPlay chan string) {
	defer func() {
		recover()
		for s := range soundsToPlay {
			fmt.Println("SOUND: unable to play", s)
		}
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("SOUND: failed to open speaker", err)
		for s := range soundsToPlay {
			fmt.Println("SOUND: unable to play", s)
		}
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			_ = s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			fmt.Println("SOUND: failed to open", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("SOUND: failed to decode", soundToPlay, err)
			_ = f.Close()
			s = nil
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}
