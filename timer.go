package hwcounter

import (
	"errors"
	"runtime"

	"github.com/cwbudde/hwcounter/internal/cpu"
)

// Timer counts the cycles spent in a code region, net of the cost of the
// counter reads that bound it.
//
// A Timer is Idle until Enter and Active until the matching Exit. After Exit
// the result is available from Cycles until the next Enter. It can be
// re-entered any number of times; each measurement replaces the last.
//
// The zero value is an Idle timer ready for use. A Timer holds plain fields
// with no synchronization and must not be used from several goroutines while
// a measurement is in progress.
type Timer struct {
	start    uint64
	overhead uint64
	elapsed  uint64

	active bool
	trials int
}

// Option configures a Timer.
type Option func(*Timer)

// WithOverheadTrials sets how many empty-region trials each Enter takes to
// calibrate the read overhead. Values below 1 select DefaultOverheadTrials.
func WithOverheadTrials(n int) Option {
	return func(t *Timer) {
		t.trials = n
	}
}

// NewTimer returns an Idle timer.
func NewTimer(opts ...Option) *Timer {
	t := &Timer{}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Enter calibrates the read overhead and then opens the measured region.
// On an Active timer it returns ErrTimerActive and changes nothing.
//
// Calibrating on every Enter costs a few dozen cycles outside the region and
// follows frequency changes between measurements.
func (t *Timer) Enter() error {
	if t.active {
		return ErrTimerActive
	}

	t.active = true
	t.overhead = MeasureOverheadTrials(t.overheadTrials())
	t.start = cpu.ReadStart()

	return nil
}

// Exit closes the measured region and stores the net cycle count.
// On an Idle timer it returns ErrTimerIdle and keeps the previous result.
func (t *Timer) Exit() error {
	end := cpu.ReadEnd()

	if !t.active {
		return ErrTimerIdle
	}

	t.elapsed = netCycles(t.start, end, t.overhead)
	t.start, t.overhead = 0, 0
	t.active = false

	return nil
}

// Cycles returns the net cycle count of the last completed measurement. It is
// zero on a timer that has never been exited.
//
// Noise can make a near-empty region cost less than the calibrated overhead.
// Such results are reported as 0 rather than wrapping around.
func (t *Timer) Cycles() uint64 {
	return t.elapsed
}

// Active reports whether the timer has been entered and not yet exited.
func (t *Timer) Active() bool {
	return t.active
}

// Measure runs fn inside an Enter/Exit pair and returns the net cycle count.
// Exit runs however fn leaves, including by panic, in which case the result
// is recorded and the panic continues. fn is not run if Enter fails.
//
// The calling goroutine is locked to its OS thread for the duration so the
// region starts and ends on the same core, barring OS-level migration.
//
// Only the call into fn and the call to Exit sit between the two reads; the
// deferred exit for the panic path is registered before Enter.
func (t *Timer) Measure(fn func()) (uint64, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	entered := false
	defer func() {
		if entered && t.active {
			_ = t.Exit()
		}
	}()

	if err := t.Enter(); err != nil {
		return 0, err
	}

	entered = true

	fn()

	err := t.Exit()

	return t.elapsed, err
}

// MeasureErr is Measure for a region that can fail. The returned error joins
// the error from fn with any lifecycle error.
func (t *Timer) MeasureErr(fn func() error) (uint64, error) {
	var fnErr error

	cycles, err := t.Measure(func() {
		fnErr = fn()
	})

	return cycles, errors.Join(fnErr, err)
}

// Measure runs fn under a fresh Timer and returns the net cycle count.
func Measure(fn func()) uint64 {
	var t Timer

	// A fresh timer is Idle, the lifecycle cannot fail.
	cycles, _ := t.Measure(fn)

	return cycles
}

func (t *Timer) overheadTrials() int {
	if t.trials < 1 {
		return DefaultOverheadTrials
	}

	return t.trials
}

// netCycles computes end - start - overhead, saturating at zero.
func netCycles(start, end, overhead uint64) uint64 {
	if end < start || end-start < overhead {
		return 0
	}

	return end - start - overhead
}
