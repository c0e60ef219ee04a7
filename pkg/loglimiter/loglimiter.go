package loglimiter

import (
	"fmt"
	"time"
)

// LogLimiter drops a message if it's identical to the previous one and arrives within the interval.
// The control loops run at 50Hz so without this a stuck state floods the console.
type LogLimiter struct {
	interval time.Duration
	nowFunc  func() time.Time
	output   func(s string)

	previousEntry string
	previousTime  time.Time
}

func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		output:   func(s string) { fmt.Println(s) },
	}
}

func (l *LogLimiter) Printf(format string, v ...interface{}) {
	l.Println(fmt.Sprintf(format, v...))
}

func (l *LogLimiter) Println(s string) {
	now := l.nowFunc()
	if s == l.previousEntry && now.Sub(l.previousTime) < l.interval {
		return
	}
	l.output(s)
	l.previousEntry = s
	l.previousTime = now
}
