package door

import (
	"log/slog"
	"sync"
	"time"
)

// Latch drives the physical lock. The default implementation only logs;
// deployments wire GPIO or a relay board behind this.
type Latch interface {
	Open() error
	Close() error
}

// Indicator gives user feedback on an authorization outcome (LEDs,
// buzzer). Logging-only by default.
type Indicator interface {
	Granted()
	Denied()
}

// Door runs the latch state machine carried over from the firmware: an
// open request drives the latch for the move time, the door stays open
// for the hold time, then closes itself. Requests while the door is open
// or moving are ignored.
type Door struct {
	latch Latch

	// moveTime is how long the latch takes to travel; holdTime is how
	// long the door stays open before auto-closing.
	moveTime time.Duration
	holdTime time.Duration

	mu     sync.Mutex
	open   bool
	moving bool
	closer *time.Timer
}

// Default timings from the deployed hardware.
const (
	DefaultMoveTime = 360 * time.Millisecond
	DefaultHoldTime = 3 * time.Second
)

// New creates a Door over the given latch. Zero durations select the
// defaults.
func New(latch Latch, moveTime, holdTime time.Duration) *Door {
	if moveTime == 0 {
		moveTime = DefaultMoveTime
	}
	if holdTime == 0 {
		holdTime = DefaultHoldTime
	}
	return &Door{latch: latch, moveTime: moveTime, holdTime: holdTime}
}

// RequestOpen opens the door if it is closed and idle. Returns whether
// the request was acted on.
func (d *Door) RequestOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open || d.moving {
		return false
	}
	if err := d.latch.Open(); err != nil {
		slog.Error("latch open failed", "err", err)
		return false
	}
	d.open = true
	d.moving = true
	slog.Info("door opening")
	time.AfterFunc(d.moveTime, d.settle)
	d.closer = time.AfterFunc(d.holdTime, d.autoClose)
	return true
}

func (d *Door) settle() {
	d.mu.Lock()
	d.moving = false
	d.mu.Unlock()
}

func (d *Door) autoClose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return
	}
	if err := d.latch.Close(); err != nil {
		slog.Error("latch close failed", "err", err)
		return
	}
	d.open = false
	d.moving = true
	slog.Info("door closing")
	time.AfterFunc(d.moveTime, d.settle)
}

// State reports the door position for the status API.
func (d *Door) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.open && d.moving:
		return "opening"
	case d.open:
		return "open"
	case d.moving:
		return "closing"
	default:
		return "closed"
	}
}

// LogLatch is the default latch: it records transitions and drives no
// hardware.
type LogLatch struct{}

func (LogLatch) Open() error {
	slog.Info("latch", "action", "open")
	return nil
}

func (LogLatch) Close() error {
	slog.Info("latch", "action", "close")
	return nil
}

// LogIndicator is the default indicator.
type LogIndicator struct{}

func (LogIndicator) Granted() {
	slog.Info("indicator", "signal", "access granted")
}

func (LogIndicator) Denied() {
	slog.Info("indicator", "signal", "access denied")
}
