package hwcounter

import (
	"fmt"
	"strings"

	"github.com/cwbudde/hwcounter/internal/cpu"
)

// DefaultOverheadTrials is the number of empty-region trials MeasureOverhead
// takes the minimum of.
const DefaultOverheadTrials = 3

// Features describes the counter related capabilities of the processor.
type Features = cpu.Features

var features = cpu.DetectFeatures()

func init() {
	if err := check(features); err != nil {
		panic(err)
	}
}

func check(f Features) error {
	if missing := f.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s processor lacks %s", ErrUnsupportedPlatform,
			strings.TrimSpace(f.Vendor), strings.Join(missing, ", "))
	}

	return nil
}

// Check reports whether the processor supports the counter reads. A process
// that got past package initialization always gets nil; it exists for
// callers that want to log the outcome explicitly.
func Check() error {
	return check(features)
}

// Platform returns the processor features detected at initialization.
// HasInvariantTSC tells whether counts taken on different cores, or across
// frequency changes, are comparable at all.
func Platform() Features {
	return features
}

// Count returns the current counter value, taken after every preceding
// instruction has completed. Pair it with CountEnd.
func Count() uint64 {
	return cpu.ReadStart()
}

// CountEnd returns the current counter value, taken once every preceding
// instruction has retired and before any following one starts. Suitable for
// the end of a region opened with Count.
func CountEnd() uint64 {
	return cpu.ReadEnd()
}

// Since returns the cycles elapsed since start, a value obtained from Count.
// It returns 0 if the counter reads lower than start.
func Since(start uint64) uint64 {
	end := cpu.ReadEnd()
	if end < start {
		return 0
	}

	return end - start
}

// MeasureOverhead returns the cost in cycles of one Count followed by one
// CountEnd with nothing in between, as the minimum of DefaultOverheadTrials
// trials.
func MeasureOverhead() uint64 {
	return MeasureOverheadTrials(DefaultOverheadTrials)
}

// MeasureOverheadTrials is MeasureOverhead with an explicit number of trials.
// Values below 1 are treated as 1.
//
// The minimum is used because noise (interrupts, cache misses, preemption)
// only ever inflates a trial.
func MeasureOverheadTrials(trials int) uint64 {
	trials = max(trials, 1)
	overhead := ^uint64(0)

	for range trials {
		// Calls into assembly are opaque to the compiler, so the empty
		// region between the reads cannot be moved or elided.
		t0 := cpu.ReadStart()
		t1 := cpu.ReadEnd()

		if elapsed := t1 - t0; elapsed < overhead {
			overhead = elapsed
		}
	}

	return overhead
}
