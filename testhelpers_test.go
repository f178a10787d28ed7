package hwcounter

import (
	"slices"
	"testing"
)

// sink keeps work loops observable so the compiler cannot drop them.
var sink uint64

// work performs n independent multiply-adds.
func work(n int) {
	for i := range n {
		sink += uint64(i)*0x9e3779b97f4a7c15 + 1
	}
}

// minCycles returns the smallest net count over samples runs of fn. The
// minimum discards runs inflated by interrupts or preemption.
func minCycles(samples int, fn func()) uint64 {
	best := ^uint64(0)
	for range samples {
		best = min(best, Measure(fn))
	}

	return best
}

func median(values []uint64) uint64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return sorted[len(sorted)/2]
}

// skipIfTrapped skips tests that compare small cycle counts on hosts where
// CPUID traps to a hypervisor. There the read cost is in the thousands of
// cycles with jitter larger than the regions being compared.
func skipIfTrapped(t *testing.T) {
	t.Helper()

	const trappedOverhead = 2000

	if overhead := MeasureOverheadTrials(16); overhead > trappedOverhead {
		t.Skipf("counter read overhead %d cycles, CPUID is likely trapped by a hypervisor", overhead)
	}
}
