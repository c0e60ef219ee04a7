package gamedata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/tigerbot-team/tigerbot/frc-controller/pkg/config"
)

// Source supplies the field's game-specific message, for example "R" when the control panel needs
// to be turned to red.  An empty message means the field hasn't said anything yet.
type Source interface {
	Message() (string, error)
}

// New creates the source described by the config.  Sources that need a background reader are
// started on ctx.
func New(ctx context.Context, cfg config.GameDataConfig) (Source, error) {
	switch cfg.Source {
	case "file":
		return NewFile(cfg.Path), nil
	case "serial":
		s := NewSerial(cfg.SerialPort, cfg.BaudRate)
		go s.LoopReadingMessages(ctx)
		return s, nil
	case "static":
		return Static(cfg.Static), nil
	default:
		return nil, errors.Errorf("unknown game data source %q", cfg.Source)
	}
}

// File reads the message from a file that something else on the robot keeps up to date.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Message() (string, error) {
	buf, err := ioutil.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read game data")
	}
	return strings.TrimSpace(string(buf)), nil
}

type Static string

func (s Static) Message() (string, error) {
	return string(s), nil
}

const linePrefix = "GAMEDATA"

// Serial listens to a relay board that forwards the field messages as lines of the form
// "GAMEDATA <msg>".  Anything else on the line is ignored.
type Serial struct {
	Port     string
	BaudRate int

	open          func() (io.ReadCloser, error)
	retryInterval time.Duration

	lock    sync.Mutex
	message string
	err     error
}

func NewSerial(port string, baudRate int) *Serial {
	s := &Serial{
		Port:          port,
		BaudRate:      baudRate,
		retryInterval: time.Second,
		err:           errors.New("no game data received yet"),
	}
	s.open = func() (io.ReadCloser, error) {
		p, err := serial.Open(s.Port, &serial.Mode{BaudRate: s.BaudRate})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open serial port %s", s.Port)
		}
		return p, nil
	}
	return s
}

func (s *Serial) Message() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.message == "" && s.err != nil {
		return "", s.err
	}
	return s.message, nil
}

func (s *Serial) LoopReadingMessages(ctx context.Context) {
	for ctx.Err() == nil {
		err := s.openAndLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		fmt.Println("GAMEDATA: serial loop stopped; will retry", err)
		s.lock.Lock()
		s.err = err
		s.lock.Unlock()
		select {
		case <-ctx.Done():
		case <-time.After(s.retryInterval):
		}
	}
}

func (s *Serial) openAndLoop(ctx context.Context) error {
	port, err := s.open()
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closePort := func() {
		closeOnce.Do(func() { _ = port.Close() })
	}
	defer closePort()

	done := make(chan struct{})
	defer close(done)
	go func() {
		// Unblock the scanner on shutdown.
		select {
		case <-ctx.Done():
			closePort()
		case <-done:
		}
	}()
	return s.readMessages(ctx, port)
}

func (s *Serial) readMessages(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if msg, ok := ParseLine(scanner.Text()); ok {
			s.lock.Lock()
			if msg != s.message {
				fmt.Printf("GAMEDATA: %q\n", msg)
			}
			s.message = msg
			s.err = nil
			s.lock.Unlock()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read from serial")
	}
	return io.EOF
}

// ParseLine extracts the message from one relay line.
func ParseLine(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != linePrefix {
		return "", false
	}
	if len(fields) == 1 {
		return "", true
	}
	return fields[1], true
}
