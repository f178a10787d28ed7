package hwcounter

import "errors"

// Sentinel errors returned by hwcounter operations.
var (
	// ErrUnsupportedPlatform is reported when the processor lacks an
	// instruction the counter reads depend on. Package initialization
	// panics with an error wrapping it, so it never surfaces mid-measurement.
	ErrUnsupportedPlatform = errors.New("hwcounter: unsupported platform")

	// ErrTimerActive is returned by Enter on a timer that has not been exited.
	// The running measurement is left untouched.
	ErrTimerActive = errors.New("hwcounter: timer already active")

	// ErrTimerIdle is returned by Exit on a timer that was never entered, or
	// was already exited. The previous result stays readable.
	ErrTimerIdle = errors.New("hwcounter: timer not active")
)
