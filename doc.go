// Package hwcounter measures elapsed processor cycles across a code region
// using the x86_64 time stamp counter.
//
// Two asymmetric reads bound the region. Count serializes the pipeline with
// CPUID before it samples the counter, CountEnd samples with RDTSCP and
// serializes afterwards. A Timer pairs them and subtracts the calibrated cost
// of the reads themselves:
//
//	var t hwcounter.Timer
//	cycles, err := t.Measure(func() {
//	    work()
//	})
//
// Counts are raw cycles. Converting them to wall-clock time is left to the
// caller, as is making sure the counter is invariant and synchronized across
// cores (see Platform).
//
// Only amd64 is supported; other targets fail to build.
package hwcounter
