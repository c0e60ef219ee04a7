package motorctl

type rawPositionProvider interface {
	RawPosition() (int16, error)
}

// PositionTracker extends the controller's 16-bit wrapping encoder count to 64 bits.  It must be
// polled at least once per half-wrap (32768 counts) to stay accurate.
type PositionTracker struct {
	motor rawPositionProvider

	doneFirstPoll bool
	lastRaw       int16

	accumulator int64
}

func NewPositionTracker(motor rawPositionProvider) *PositionTracker {
	return &PositionTracker{
		motor: motor,
	}
}

func (t *PositionTracker) Poll() error {
	raw, err := t.motor.RawPosition()
	if err != nil {
		return err
	}

	if t.doneFirstPoll {
		// int16 arithmetic wraps, which gives the right delta across the rollover.
		delta := raw - t.lastRaw
		t.accumulator += int64(delta)
	} else {
		t.accumulator = int64(raw)
	}

	t.lastRaw = raw
	t.doneFirstPoll = true
	return nil
}

func (t *PositionTracker) Position() int64 {
	return t.accumulator
}

func (t *PositionTracker) Zero() {
	t.accumulator = 0
}
