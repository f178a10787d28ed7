//go:build !amd64 || purego

package cpu

// The counter reads are CPUID/RDTSC/RDTSCP sequences written in amd64
// assembly. There is no portable substitute with the same ordering
// guarantees, so other targets are rejected at build time.
var _ = hwcounter_requires_amd64_with_rdtscp
