//go:build amd64 && !purego

// Package cpu holds the architecture primitives behind hwcounter: the two
// serialized reads of the time stamp counter and CPUID based detection of
// the instructions they need.
//
// Only amd64 is implemented. Building for any other target, or with the
// purego tag, fails with an undefined identifier naming the requirement.
package cpu

// ReadStart drains the pipeline with CPUID and then samples the counter with
// RDTSC. Nothing issued before the call is still in flight when the
// timestamp is taken.
// Implemented in counter_amd64.s
//
//go:noescape
func ReadStart() uint64

// ReadEnd samples the counter with RDTSCP, which waits for all prior
// instructions to retire, and then executes CPUID so that nothing after the
// call can be reordered back into the measured window.
// Implemented in counter_amd64.s
//
//go:noescape
func ReadEnd() uint64

// CPUID executes the CPUID instruction with the given EAX and ECX inputs.
// Returns EAX, EBX, ECX, EDX outputs.
// Implemented in counter_amd64.s
//
//go:noescape
func CPUID(eaxArg, ecxArg uint32) (eax, ebx, ecx, edx uint32)
